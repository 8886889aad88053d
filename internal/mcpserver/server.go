// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Fehu tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/fehu/internal/attrservice"
	"github.com/starford/fehu/internal/models"
)

// Server wraps the MCP server with Fehu tools.
type Server struct {
	mcp *server.MCPServer
	svc *attrservice.Service
}

// New creates a new MCP server with all Fehu tools registered.
func New(svc *attrservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Fehu",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List the attribute templates offered for an entity class."),
		mcp.WithString("class", mcp.Description("Entity class: order or user (default order)")),
	), s.listTemplates)

	s.mcp.AddTool(mcp.NewTool("search_attribute_meta",
		mcp.WithDescription("Keyword search over the metadata records that can be bound "+
			"to select and checkbox fields of a given field definition."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("field", mcp.Required(), mcp.Description("Field definition id owning the records")),
		mcp.WithString("entity", mcp.Required(), mcp.Description("Entity id whose editing session the search runs in")),
	), s.searchAttributeMeta)

	s.mcp.AddTool(mcp.NewTool("read_entity_attributes",
		mcp.WithDescription("Read the attribute document of an entity as JSON. "+
			"Read the fehu://document-format resource first to understand the shape."),
		mcp.WithString("entity", mcp.Required(), mcp.Description("Entity id")),
	), s.readEntityAttributes)

	s.mcp.AddTool(mcp.NewTool("get_document_contract",
		mcp.WithDescription("Returns the attribute document format contract. "+
			"Call this before interpreting entity attribute documents."),
	), s.getDocumentContract)

	// Resource: document format contract.
	s.mcp.AddResource(
		mcp.NewResource("fehu://document-format", "Attribute Document Format",
			mcp.WithResourceDescription("Canonical JSON shape of persisted attribute documents."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDocumentFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	class := string(models.TargetOrder)
	if c, err := req.RequireString("class"); err == nil && c != "" {
		class = c
	}
	templates := s.svc.Templates(models.Target(class))
	out, _ := json.MarshalIndent(templates, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchAttributeMeta(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fieldID, err := req.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entityID, err := req.RequireString("entity")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	records, err := s.svc.SearchMeta(ctx, entityID, query, fieldID, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(records, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readEntityAttributes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entityID, err := req.RequireString("entity")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess, err := s.svc.Open(ctx, entityID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", entityID)), nil
	}
	out, _ := json.MarshalIndent(sess.Document(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDocumentContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormatContract), nil
}

func (s *Server) readDocumentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "fehu://document-format",
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
