package api

import (
	"time"

	"github.com/starford/fehu/internal/editor"
	"github.com/starford/fehu/internal/models"
)

// CreateEntityRequest is the request body for creating a host entity.
type CreateEntityRequest struct {
	Class string `json:"class" example:"order"`
	Title string `json:"title" example:"Order #1042"`
}

// EntityResponse describes one host entity.
type EntityResponse struct {
	ID        string    `json:"id"`
	Class     string    `json:"class"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntityListResponse wraps paginated entity listings.
type EntityListResponse struct {
	Entities []EntityResponse `json:"entities"`
	Total    int              `json:"total"`
}

// DocumentResponse is the attribute document of one entity plus its
// session state.
type DocumentResponse struct {
	Document    models.Document `json:"document"`
	Dirty       bool            `json:"dirty"`
	State       string          `json:"state"`
	ActiveGroup string          `json:"active_group,omitempty"`
	LoadNotice  string          `json:"load_notice,omitempty"`
}

// OpRequest is the request body for applying one edit operation.
// Destructive operations require Confirm to be true.
type OpRequest struct {
	Op      editor.Op `json:"op"`
	Confirm bool      `json:"confirm,omitempty"`
}

// OpResponse carries the op outcome plus the resulting document state.
type OpResponse struct {
	CreatedGroupID string `json:"created_group_id,omitempty"`
	DocumentResponse
}

// SaveResponse reports the persistence gate state after a save request.
type SaveResponse struct {
	State string `json:"state"`
	Dirty bool   `json:"dirty"`
}

// MetaSearchResult is one search hit annotated with its display class.
type MetaSearchResult struct {
	models.ValueRecord
	Class models.ValueClass `json:"class"`
}

// MetaSearchResponse is the metadata search result envelope.
type MetaSearchResponse struct {
	Success string             `json:"success"`
	Data    []MetaSearchResult `json:"data"`
}

// MetaRecordRequest is the request body for seeding a metadata record.
type MetaRecordRequest struct {
	Field string `json:"field"`
	ID    string `json:"id,omitempty"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// MetaRecordListResponse wraps the records owned by one field definition.
type MetaRecordListResponse struct {
	Records []models.ValueRecord `json:"records"`
}

// TemplateListResponse wraps the catalog listing for one entity class.
type TemplateListResponse struct {
	Templates []models.Template `json:"templates"`
}
