// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the course catalog and tag engine via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/clm/internal/dirkind"
	"github.com/starford/clm/internal/docservice"
	"github.com/starford/clm/internal/variant"
)

const tagContractURI = "clm://tag-contract"

// Server wraps the MCP server with clm tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all clm tools registered.
func New(svc *docservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"clm",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through notebook titles and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits (default 20)")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List catalog documents, optionally restricted to one label."),
		mcp.WithString("label", mcp.Description("Optional label filter"),
			mcp.Enum(string(dirkind.DataFile), string(dirkind.Folder), string(dirkind.Notebook),
				string(dirkind.ExampleSolution), string(dirkind.ExampleStarterKit))),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("classify_path",
		mcp.WithDescription("Classify a file or directory of the course (Notebook, DataFile, Folder, ExampleSolution, ExampleStarterKit or Ignored)."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the course root")),
	), s.classifyPath)

	s.mcp.AddTool(mcp.NewTool("get_titles",
		mcp.WithDescription("Return the German and English titles of a notebook."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Notebook path relative to the course root")),
	), s.getTitles)

	s.mcp.AddTool(mcp.NewTool("derive_variant",
		mcp.WithDescription("Render one variant of a notebook. Read the tag contract first via "+
			"the get_tag_contract tool or the "+tagContractURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Notebook path relative to the course root")),
		mcp.WithString("lang", mcp.Required(), mcp.Description("Output language, e.g. de or en")),
		mcp.WithString("audience", mcp.Description("Audience (default public)"),
			mcp.Enum(variant.AudiencePublic, variant.AudienceSpeaker)),
		mcp.WithString("form", mcp.Description("Form (default completed)"),
			mcp.Enum(variant.FormCompleted, variant.FormCodealong)),
	), s.deriveVariant)

	s.mcp.AddTool(mcp.NewTool("list_diagnostics",
		mcp.WithDescription("List tag diagnostics of one notebook or of the whole course."),
		mcp.WithString("path", mcp.Description("Optional notebook path")),
	), s.listDiagnostics)

	s.mcp.AddTool(mcp.NewTool("get_tag_contract",
		mcp.WithDescription("Returns the cell tag contract: the tag vocabulary and how tags shape variants."),
	), s.getTagContract)

	s.mcp.AddResource(
		mcp.NewResource(tagContractURI, "Cell Tag Contract",
			mcp.WithResourceDescription("Cell tag vocabulary and variant derivation rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTagContractResource,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	label := dirkind.Label(req.GetString("label", ""))
	items, total, err := s.svc.ListDocuments(ctx, 1000, 0, label)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"documents": items, "total": total})
}

func (s *Server) classifyPath(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := s.svc.Classify(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(c)
}

func (s *Server) getTitles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, err := s.svc.Titles(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(t)
}

func (s *Server) deriveVariant(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lang, err := req.RequireString("lang")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v := variant.Variant{
		Lang:     lang,
		Audience: req.GetString("audience", variant.AudiencePublic),
		Form:     req.GetString("form", variant.FormCompleted),
	}
	doc, err := s.svc.DeriveVariant(ctx, path, v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(doc.Content), nil
}

func (s *Server) listDiagnostics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := s.svc.Diagnostics(ctx, req.GetString("path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("no diagnostics"), nil
	}
	return jsonResult(rows)
}

func (s *Server) getTagContract(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(TagContract()), nil
}

func (s *Server) readTagContractResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      tagContractURI,
			MIMEType: "text/markdown",
			Text:     TagContract(),
		},
	}, nil
}
