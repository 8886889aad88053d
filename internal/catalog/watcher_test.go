package catalog

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "size.yaml", sizeTemplateYAML)

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	reloads := 0
	go c.Watch(ctx, logger, func() {
		mu.Lock()
		reloads++
		mu.Unlock()
	})

	time.Sleep(100 * time.Millisecond)

	writeTemplate(t, dir, "contact.yaml", contactTemplateYAML)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, ok := c.Template("contact-template")
		return ok
	}, "new template not picked up by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return reloads >= 1
	}, "reload callback not invoked")
}

func TestWatch_RemovalDropsTemplate(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "size.yaml", sizeTemplateYAML)
	writeTemplate(t, dir, "contact.yaml", contactTemplateYAML)

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go c.Watch(ctx, logger, nil)
	time.Sleep(100 * time.Millisecond)

	_ = os.Remove(filepath.Join(dir, "contact.yaml"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		_, ok := c.Template("contact-template")
		return !ok
	}, "removed template still served")
}
