package models

// FieldType selects the editor and the value shape a bound field may hold.
type FieldType string

// Supported field types.
const (
	FieldText     FieldType = "text"
	FieldSelect   FieldType = "select"
	FieldCheckbox FieldType = "checkbox"
)

// Target restricts which host entity class a template may be bound to.
type Target string

// Supported template targets.
const (
	TargetOrder Target = "order"
	TargetUser  Target = "user"
)

// FieldDefinition describes one typed field inside a template.
type FieldDefinition struct {
	ID    string    `json:"id" yaml:"id"`
	Title string    `json:"title" yaml:"title"`
	Type  FieldType `json:"type" yaml:"type"`
}

// Template is an admin-defined schema describing a named group of typed
// fields, reusable across host entities. Templates are read-only at runtime;
// the catalog loads them from disk.
type Template struct {
	ID     string            `json:"id" yaml:"id"`
	Title  string            `json:"title" yaml:"title"`
	MapTo  Target            `json:"mapto" yaml:"mapto"`
	Fields []FieldDefinition `json:"children" yaml:"fields"`
}

// ValueRecord is one candidate value returned by the attribute metadata
// search for a given field definition.
type ValueRecord struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}
