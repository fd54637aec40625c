// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the blog to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/swashbuckle/internal/apperr"
	"github.com/starford/swashbuckle/internal/blog"
	"github.com/starford/swashbuckle/internal/search"
)

const formatURI = "blog://post-format"

// Server wraps the MCP server with blog tools.
type Server struct {
	mcp *server.MCPServer
	svc *blog.Service
}

// New creates a new MCP server with all blog tools registered.
func New(svc *blog.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Swashbuckle",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_posts",
		mcp.WithDescription("Full-text search through post titles, descriptions and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of hits (default 20, max 100)")),
	), s.searchPosts)

	s.mcp.AddTool(mcp.NewTool("read_post",
		mcp.WithDescription("Read the Markdown source of a post by its route."),
		mcp.WithString("route", mcp.Required(), mcp.Description("Post route, e.g. /jest-mocks/")),
	), s.readPost)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List every post as a citation card, newest first."),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("ask_blog",
		mcp.WithDescription("Ask the blog's answering service a question. Returns the answer "+
			"and the posts it cites."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The question")),
		mcp.WithString("variant", mcp.Description("Answering preset; defaults to the first configured variant")),
	), s.askBlog)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Post Format",
			mcp.WithResourceDescription("Frontmatter fields and routing rules for blog posts."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPostFormatResource,
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

func (s *Server) searchPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.svc.Search(ctx, query, req.GetInt("limit", search.DefaultLimit))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(hits)
}

func normalizeRoute(route string) string {
	route = strings.Trim(strings.TrimSpace(route), "/")
	if route == "" {
		return "/"
	}
	return "/" + route + "/"
}

func (s *Server) readPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	route, err := req.RequireString("route")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	post, err := s.svc.GetPost(ctx, normalizeRoute(route))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", route)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", post.Title)
	if post.DisplayDate != "" {
		fmt.Fprintf(&b, "Published %s. ", post.DisplayDate)
	}
	fmt.Fprintf(&b, "Route %s.\n\n", post.Route)
	b.WriteString(post.Markdown)
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) listPosts(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.ListPosts(ctx))
}

func (s *Server) askBlog(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ans, err := s.svc.Ask(ctx, req.GetString("variant", ""), query)
	switch {
	case errors.Is(err, apperr.ErrUnknownVariant):
		names := make([]string, 0)
		for _, v := range s.svc.Variants() {
			names = append(names, v.Name)
		}
		return mcp.NewToolResultError(fmt.Sprintf("unknown variant; choose one of %s", strings.Join(names, ", "))), nil
	case err != nil:
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString(ans.Response)
	if ans.HasSources() {
		b.WriteString("\n\nSources:\n")
		for _, c := range ans.Sources {
			fmt.Fprintf(&b, "- %s (%s)\n", c.Title, c.Route)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) readPostFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     PostFormatContract,
		},
	}, nil
}
