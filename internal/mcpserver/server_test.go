package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/dsaflash/internal/catalog"
	"github.com/starford/dsaflash/internal/models"
	"github.com/starford/dsaflash/internal/notes"
	"github.com/starford/dsaflash/internal/testutil"
)

func testServer(t *testing.T) (*Server, *catalog.Service) {
	t.Helper()

	svc := catalog.NewService(testutil.TestDB(t), nil)
	return New(svc, "test"), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"list_topics":       srv.listTopics,
		"list_problems":     srv.listProblems,
		"search":            srv.search,
		"get_topic_notes":   srv.getTopicNotes,
		"append_topic_note": srv.appendTopicNote,
		"create_topic":      srv.createTopic,
		"create_problem":    srv.createProblem,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func createTopic(t *testing.T, srv *Server, name string) models.Topic {
	t.Helper()
	r := callTool(t, srv, "create_topic", map[string]interface{}{
		"name": name, "description": name + " desc",
	})
	if r.IsError {
		t.Fatalf("create_topic: %s", resultText(r))
	}
	var tp models.Topic
	if err := json.Unmarshal([]byte(resultText(r)), &tp); err != nil {
		t.Fatal(err)
	}
	return tp
}

func TestCreateAndListTopics(t *testing.T) {
	srv, _ := testServer(t)
	a := createTopic(t, srv, "Arrays")
	b := createTopic(t, srv, "Graphs")
	if b.Order <= a.Order {
		t.Errorf("orders = %d, %d; new topics must sort last", a.Order, b.Order)
	}
	if a.Category != models.CategoryDataStructures {
		t.Errorf("category default = %q", a.Category)
	}

	var topics []models.Topic
	if err := json.Unmarshal([]byte(resultText(callTool(t, srv, "list_topics", nil))), &topics); err != nil {
		t.Fatal(err)
	}
	if len(topics) != 2 || topics[0].Name != "Arrays" {
		t.Errorf("topics = %+v", topics)
	}

	r := callTool(t, srv, "create_topic", map[string]interface{}{"name": " ", "description": "d"})
	if !r.IsError {
		t.Error("blank name should fail")
	}
}

func TestCreateProblemAndSearch(t *testing.T) {
	srv, _ := testServer(t)
	tp := createTopic(t, srv, "Arrays")

	r := callTool(t, srv, "create_problem", map[string]interface{}{
		"topicId": tp.ID, "title": "Container With Most Water", "difficulty": "Medium",
		"solution": "shrink the shorter side", "tags": "two-pointers, , greedy",
	})
	if r.IsError {
		t.Fatalf("create_problem: %s", resultText(r))
	}
	var p models.Problem
	_ = json.Unmarshal([]byte(resultText(r)), &p)
	if len(p.Tags) != 2 || p.Tags[0] != "two-pointers" {
		t.Errorf("tags = %v", p.Tags)
	}

	r = callTool(t, srv, "create_problem", map[string]interface{}{
		"topicId": "000000000000000000000000", "title": "x", "difficulty": "Easy", "solution": "s",
	})
	if !r.IsError {
		t.Error("unknown topic should fail")
	}

	r = callTool(t, srv, "search", map[string]interface{}{"query": "POINTER"})
	var res catalog.SearchResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Problems) != 1 || res.Problems[0].ID != p.ID {
		t.Errorf("search = %+v", res)
	}

	r = callTool(t, srv, "list_problems", map[string]interface{}{"topicId": tp.ID})
	if !strings.Contains(resultText(r), "Container With Most Water") {
		t.Errorf("list_problems = %s", resultText(r))
	}
}

func TestSearchRequiresQuery(t *testing.T) {
	srv, _ := testServer(t)
	if r := callTool(t, srv, "search", map[string]interface{}{}); !r.IsError {
		t.Error("expected error for missing query")
	}
}

func TestAppendAndReadTopicNote(t *testing.T) {
	srv, svc := testServer(t)

	r := callTool(t, srv, "append_topic_note", map[string]interface{}{"topicId": "t1", "text": "first"})
	if r.IsError {
		t.Fatalf("append: %s", resultText(r))
	}
	callTool(t, srv, "append_topic_note", map[string]interface{}{"topicId": "t1", "text": "second"})

	raw, _ := svc.TopicNotes(context.Background(), "t1")
	blocks := notes.Decode(raw)
	if len(blocks) != 2 || blocks[0].Content != "first" || blocks[1].Content != "second" {
		t.Errorf("blocks = %+v", blocks)
	}

	var got []notes.Block
	if err := json.Unmarshal([]byte(resultText(callTool(t, srv, "get_topic_notes", map[string]interface{}{"topicId": "t1"}))), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1].Type != notes.TypeText {
		t.Errorf("get_topic_notes = %+v", got)
	}
}

func TestAppendToLegacyNote(t *testing.T) {
	srv, svc := testServer(t)
	if _, err := svc.SaveTopicNotes(context.Background(), "t1", "old notes"); err != nil {
		t.Fatal(err)
	}
	callTool(t, srv, "append_topic_note", map[string]interface{}{"topicId": "t1", "text": "new"})

	raw, _ := svc.TopicNotes(context.Background(), "t1")
	blocks := notes.Decode(raw)
	if len(blocks) != 2 || blocks[0].Content != "old notes" || blocks[1].Content != "new" {
		t.Errorf("blocks = %+v", blocks)
	}
}

func TestNoteFormatResource(t *testing.T) {
	srv, _ := testServer(t)
	contents, err := srv.readNoteFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != NoteFormatURI || !strings.Contains(tc.Text, `"type": "image"`) {
		t.Errorf("resource = %+v", contents[0])
	}
}
