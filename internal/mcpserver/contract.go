package mcpserver

// DocumentFormatContract describes the persisted attribute document shape
// that LLM consumers should understand when reading entity attributes.
const DocumentFormatContract = `# Fehu Attribute Document Format

An entity's attribute document is a JSON array of groups. Groups contain
attribute instances, instances contain value rows, rows contain fields.

## Structure

` + "```" + `json
[
  {
    "id": "b4f0c7e2-...",
    "title": "Sizing",
    "attributes": [
      {
        "id": "size-template",
        "title": "Size options",
        "children": [
          [
            {"id": "size", "title": "Size", "value": "XL"},
            {"id": "color", "title": "Color", "value": {"id": "42", "title": "Crimson", "value": "#dc143c"}},
            {"id": "tags", "title": "Tags", "value": [{"id": "7", "title": "Summer", "value": "summer"}]}
          ]
        ]
      }
    ]
  }
]
` + "```" + `

## Rules

1. The top level is always a JSON array of group objects.
2. A group has ` + "`" + `id` + "`" + ` (UUID), ` + "`" + `title` + "`" + `, and ` + "`" + `attributes` + "`" + `.
3. An attribute instance's ` + "`" + `id` + "`" + ` is the template id it was created from;
   ` + "`" + `children` + "`" + ` is an array of rows.
4. A row is an array of fields in template order.
5. A field value takes one of three shapes depending on the field type:
   - text field: a bare JSON string
   - select field: an object ` + "`" + `{"id", "title", "value"}` + "`" + ` referencing a metadata record
   - checkbox field: an array of such objects
6. Field values whose ` + "`" + `value` + "`" + ` looks like a hex color (` + "`" + `#rgb` + "`" + `, ` + "`" + `#rrggbb` + "`" + `, ` + "`" + `#rrggbbaa` + "`" + `)
   or an http(s) URL are rendered specially by clients; anything else is plain text.
7. Documents are edited through operations, never by writing raw JSON.
`
