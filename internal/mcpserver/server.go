// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the dsaflash catalog to LLM clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/dsaflash/internal/catalog"
	"github.com/starford/dsaflash/internal/forms"
	"github.com/starford/dsaflash/internal/models"
	"github.com/starford/dsaflash/internal/notes"
)

// NoteFormatURI is the resource URI of the note format contract.
const NoteFormatURI = "dsaflash://note-format"

// Server wraps the MCP server with the catalog tools.
type Server struct {
	mcp *server.MCPServer
	svc *catalog.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *catalog.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"dsaflash",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_topics",
		mcp.WithDescription("List all study topics in display order."),
	), s.listTopics)

	s.mcp.AddTool(mcp.NewTool("list_problems",
		mcp.WithDescription("List problems newest first, optionally for one topic."),
		mcp.WithString("topicId", mcp.Description("Topic ID to filter by (empty for all)")),
	), s.listProblems)

	s.mcp.AddTool(mcp.NewTool("search",
		mcp.WithDescription("Case-insensitive search over topic names and descriptions and "+
			"problem titles, solutions, notes and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Max results per kind (default 20)")),
	), s.search)

	s.mcp.AddTool(mcp.NewTool("get_topic_notes",
		mcp.WithDescription("Read the note of a topic as its text and image blocks."),
		mcp.WithString("topicId", mcp.Required(), mcp.Description("Topic ID")),
	), s.getTopicNotes)

	s.mcp.AddTool(mcp.NewTool("append_topic_note",
		mcp.WithDescription("Append a text block to the note of a topic. "+
			"Read the format via the "+NoteFormatURI+" resource first."),
		mcp.WithString("topicId", mcp.Required(), mcp.Description("Topic ID")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to append as a new block")),
	), s.appendTopicNote)

	s.mcp.AddTool(mcp.NewTool("create_topic",
		mcp.WithDescription("Create a study topic."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Topic name")),
		mcp.WithString("description", mcp.Required(), mcp.Description("Short description")),
		mcp.WithString("category", mcp.Description("Category, e.g. Data Structures, Algorithms, Techniques")),
		mcp.WithString("icon", mcp.Description("Icon name, e.g. ShareIcon")),
	), s.createTopic)

	s.mcp.AddTool(mcp.NewTool("create_problem",
		mcp.WithDescription("Record a solved problem under a topic."),
		mcp.WithString("topicId", mcp.Required(), mcp.Description("Topic ID")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Problem title")),
		mcp.WithString("difficulty", mcp.Required(), mcp.Enum("Easy", "Medium", "Hard")),
		mcp.WithString("solution", mcp.Required(), mcp.Description("Solution approach")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
		mcp.WithString("leetcodeUrl", mcp.Description("LeetCode link")),
		mcp.WithString("timeComplexity", mcp.Description("e.g. O(n)")),
		mcp.WithString("spaceComplexity", mcp.Description("e.g. O(1)")),
	), s.createProblem)

	s.mcp.AddResource(
		mcp.NewResource(NoteFormatURI, "Topic Note Format",
			mcp.WithResourceDescription("How topic notes are structured as text and image blocks."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
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

func optString(req mcp.CallToolRequest, key string) string {
	v, err := req.RequireString(key)
	if err != nil {
		return ""
	}
	return v
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listTopics(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topics, err := s.svc.ListTopics(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(topics)
}

func (s *Server) listProblems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	problems, err := s.svc.ListProblems(ctx, optString(req, "topicId"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(problems)
}

func (s *Server) search(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) getTopicNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topicID, err := req.RequireString("topicId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := s.svc.TopicNotes(ctx, topicID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(notes.Decode(raw))
}

func (s *Server) appendTopicNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	topicID, err := req.RequireString("topicId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	raw, err := s.svc.TopicNotes(ctx, topicID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	blocks := notes.Decode(raw)
	// A fresh note decodes to one empty block; fill it instead of appending.
	if raw == "" {
		blocks = blocks[:0]
	}
	blocks = notes.Append(blocks, notes.Block{ID: notes.NewID(), Type: notes.TypeText, Content: text})
	content, err := notes.Encode(blocks)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.svc.SaveTopicNotes(ctx, topicID, content); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("appended block %d to note of %s", len(blocks), topicID)), nil
}

func (s *Server) createTopic(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	form := forms.TopicForm{
		Name:        optString(req, "name"),
		Description: optString(req, "description"),
		Category:    optString(req, "category"),
		Icon:        optString(req, "icon"),
	}
	if err := form.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	topics, err := s.svc.ListTopics(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t := models.Topic{
		Name:        form.Name,
		Description: form.Description,
		Category:    form.Category,
		Icon:        form.Icon,
		Order:       nextOrder(topics),
	}
	created, err := s.svc.CreateTopic(ctx, t)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(created)
}

// nextOrder places a new topic after every existing one.
func nextOrder(topics []models.Topic) int64 {
	var top int64
	for _, t := range topics {
		if t.Order > top {
			top = t.Order
		}
	}
	return top + 1
}

func (s *Server) createProblem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	form := forms.ProblemForm{
		TopicID:         optString(req, "topicId"),
		Title:           optString(req, "title"),
		Difficulty:      optString(req, "difficulty"),
		Solution:        optString(req, "solution"),
		Tags:            optString(req, "tags"),
		LeetcodeURL:     optString(req, "leetcodeUrl"),
		TimeComplexity:  optString(req, "timeComplexity"),
		SpaceComplexity: optString(req, "spaceComplexity"),
	}
	if err := form.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.svc.Store().GetTopic(ctx, form.TopicID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("unknown topic: %s", strings.TrimSpace(form.TopicID))), nil
	}
	created, err := s.svc.CreateProblem(ctx, form.Problem())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(created)
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      NoteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
