package models

import "regexp"

// ValueClass is the display-time classification of a stored value string.
// It affects rendering only, never the storage shape.
type ValueClass string

// Value classes.
const (
	ClassText  ValueClass = "text"
	ClassColor ValueClass = "color"
	ClassURL   ValueClass = "url"
)

var (
	colorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	urlRe   = regexp.MustCompile(`^https?://\S+$`)
)

// ClassifyValue reports whether s looks like a hex color, a URL, or plain
// text. Pure function of the string contents.
func ClassifyValue(s string) ValueClass {
	switch {
	case colorRe.MatchString(s):
		return ClassColor
	case urlRe.MatchString(s):
		return ClassURL
	default:
		return ClassText
	}
}
