// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Pantry tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/pantry/internal/apperr"
	"github.com/starford/pantry/internal/filter"
	"github.com/starford/pantry/internal/index"
	"github.com/starford/pantry/internal/recipeservice"
	"github.com/starford/pantry/internal/storage"
)

const pageFormatURI = "pantry://page-format"

// Server wraps the MCP server with Pantry tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *recipeservice.Service
	store storage.Provider
	ix    *index.Indexer
}

// New creates a new MCP server with all Pantry tools registered.
func New(svc *recipeservice.Service, store storage.Provider, ix *index.Indexer) *Server {
	s := &Server{svc: svc, store: store, ix: ix}

	s.mcp = server.NewMCPServer(
		"Pantry",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List the captured recipe listing pages with their titles and card counts."),
	), s.listPages)

	s.mcp.AddTool(mcp.NewTool("filter_recipes",
		mcp.WithDescription("Filter the recipe cards of a captured page. A card is kept when any query word "+
			"appears in its title or description and its times do not exceed the limits. Cards without a "+
			"time always pass that limit. Returns the visible cards with matched words wrapped in <mark>."),
		mcp.WithString("page", mcp.Required(), mcp.Description("Page path as returned by list_pages (e.g. index.html)")),
		mcp.WithString("query", mcp.Description("Free-text query; words are matched case-insensitively")),
		mcp.WithString("max_prep", mcp.Description("Maximum preparation time, e.g. \"15 min\" (empty for no limit)")),
		mcp.WithString("max_cook", mcp.Description("Maximum cooking time, e.g. \"30 min\" (empty for no limit)")),
	), s.filterRecipes)

	s.mcp.AddTool(mcp.NewTool("extract_minutes",
		mcp.WithDescription("Extract the number of minutes from a free-form time label such as \"Prep: 15 min\"."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Time label text")),
	), s.extractMinutes)

	s.mcp.AddTool(mcp.NewTool("get_page_format",
		mcp.WithDescription("Returns the listing page markup that capture expects. "+
			"Call this before importing a page to make sure its cards will be found."),
	), s.getPageFormat)

	s.mcp.AddTool(mcp.NewTool("import_page",
		mcp.WithDescription("Download a recipe listing page (http/https URL or base64 data: URI with "+
			"text/html), save it into the site and capture its cards. Read the page format first via "+
			"get_page_format or the "+pageFormatURI+" resource."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Page URL or data:text/html;base64,... URI")),
		mcp.WithString("path", mcp.Description("Site-relative path to save to (must end with .html); derived from the URL when empty")),
	), s.importPage)

	s.mcp.AddResource(
		mcp.NewResource(pageFormatURI, "Listing Page Format",
			mcp.WithResourceDescription("Markup of a recipe listing page as expected by capture."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPageFormatResource,
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

// visibleCard is a card kept by filter_recipes.
type visibleCard struct {
	Position        int    `json:"position"`
	TitleHTML       string `json:"title_html"`
	DescriptionHTML string `json:"description_html"`
	PrepMinutes     *int   `json:"prep_minutes,omitempty"`
	CookMinutes     *int   `json:"cook_minutes,omitempty"`
}

type filterOutput struct {
	Page         string          `json:"page"`
	Label        string          `json:"label"`
	VisibleCount int             `json:"visible_count"`
	Total        int             `json:"total"`
	Criteria     filter.Criteria `json:"criteria"`
	Cards        []visibleCard   `json:"cards"`
}

func (s *Server) listPages(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pages, err := s.svc.ListPages(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(pages) == 0 {
		return mcp.NewToolResultText("no pages captured"), nil
	}
	lines := make([]string, len(pages))
	for i, p := range pages {
		lines[i] = fmt.Sprintf("%s\t%s\t%d cards", p.Path, p.Title, p.RecordCount)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) filterRecipes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page, err := req.RequireString("page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in := filter.Inputs{
		Query: req.GetString("query", ""),
		Prep:  req.GetString("max_prep", ""),
		Cook:  req.GetString("max_cook", ""),
	}
	res, err := s.svc.Filter(ctx, page, in)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("page not found: %s", page)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := filterOutput{
		Page:         res.Page,
		Label:        res.Label,
		VisibleCount: res.VisibleCount,
		Total:        len(res.Records),
		Criteria:     res.Criteria,
		Cards:        []visibleCard{},
	}
	for i, c := range res.Cards {
		if !c.Visible {
			continue
		}
		out.Cards = append(out.Cards, visibleCard{
			Position:        c.Position,
			TitleHTML:       string(c.TitleHTML),
			DescriptionHTML: string(c.DescriptionHTML),
			PrepMinutes:     res.Records[i].PrepMinutes,
			CookMinutes:     res.Records[i].CookMinutes,
		})
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) extractMinutes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m, ok := filter.ExtractMinutes(text)
	if !ok {
		return mcp.NewToolResultText("absent"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%d", m)), nil
}

func (s *Server) getPageFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PageFormat), nil
}

func (s *Server) readPageFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      pageFormatURI,
			MIMEType: "text/markdown",
			Text:     PageFormat,
		},
	}, nil
}
