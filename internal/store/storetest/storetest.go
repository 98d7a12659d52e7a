// Package storetest is a behavioural test suite every store.Store
// implementation must pass.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/starford/dsaflash/internal/apperr"
	"github.com/starford/dsaflash/internal/models"
	"github.com/starford/dsaflash/internal/store"
)

// Factory returns an empty store. It registers its own cleanup.
type Factory func(t *testing.T) store.Store

// Run executes the suite against stores produced by open.
func Run(t *testing.T, open Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"TopicCRUD", testTopicCRUD},
		{"TopicsSortedByOrder", testTopicsSortedByOrder},
		{"ProblemCRUD", testProblemCRUD},
		{"ProblemsNewestFirst", testProblemsNewestFirst},
		{"ProblemsByTopic", testProblemsByTopic},
		{"DeleteTopicCascades", testDeleteTopicCascades},
		{"NoteUpsert", testNoteUpsert},
		{"UnknownIDs", testUnknownIDs},
		{"Ping", testPing},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, open(t))
		})
	}
}

func ptr[T any](v T) *T { return &v }

func mustTopic(t *testing.T, s store.Store, name string, order int64) models.Topic {
	t.Helper()
	tp, err := s.CreateTopic(context.Background(), models.Topic{
		Name: name, Description: name + " desc", Category: models.CategoryAlgorithms, Order: order,
	})
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	return tp
}

func mustProblem(t *testing.T, s store.Store, topicID, title string, created time.Time) models.Problem {
	t.Helper()
	p, err := s.CreateProblem(context.Background(), models.Problem{
		TopicID:    topicID,
		Title:      title,
		Difficulty: models.DifficultyEasy,
		Solution:   "solution of " + title,
		Tags:       []string{"a", "b", "b"},
		CreatedAt:  created,
	})
	if err != nil {
		t.Fatalf("CreateProblem: %v", err)
	}
	return p
}

func testTopicCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()
	in := models.Topic{Name: "Arrays", Description: "desc", Category: models.CategoryDataStructures, Order: 7, Icon: "LinkIcon"}
	created, err := s.CreateTopic(ctx, in)
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	if len(created.ID) != 24 {
		t.Errorf("ID = %q, want 24 hex chars", created.ID)
	}
	in.ID = created.ID
	if created != in {
		t.Errorf("created = %+v, want %+v", created, in)
	}

	got, err := s.GetTopic(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTopic: %v", err)
	}
	if got != in {
		t.Errorf("got = %+v, want %+v", got, in)
	}

	updated, err := s.UpdateTopic(ctx, created.ID, models.TopicPatch{Name: ptr("Arrays & Hashing"), Order: ptr(int64(1))})
	if err != nil {
		t.Fatalf("UpdateTopic: %v", err)
	}
	if updated.Name != "Arrays & Hashing" || updated.Order != 1 || updated.Description != "desc" {
		t.Errorf("updated = %+v", updated)
	}

	unchanged, err := s.UpdateTopic(ctx, created.ID, models.TopicPatch{})
	if err != nil {
		t.Fatalf("empty UpdateTopic: %v", err)
	}
	if unchanged != updated {
		t.Errorf("empty patch changed topic: %+v", unchanged)
	}

	if err := s.DeleteTopic(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTopic: %v", err)
	}
	if _, err := s.GetTopic(ctx, created.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetTopic after delete: %v", err)
	}
}

func testTopicsSortedByOrder(t *testing.T, s store.Store) {
	mustTopic(t, s, "c", 30)
	mustTopic(t, s, "a", 10)
	mustTopic(t, s, "b", 20)

	topics, err := s.ListTopics(context.Background())
	if err != nil {
		t.Fatalf("ListTopics: %v", err)
	}
	if len(topics) != 3 {
		t.Fatalf("len = %d", len(topics))
	}
	for i, want := range []string{"a", "b", "c"} {
		if topics[i].Name != want {
			t.Errorf("topics[%d] = %s, want %s", i, topics[i].Name, want)
		}
	}
}

func testProblemCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()
	topic := mustTopic(t, s, "Arrays", 1)
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	p := mustProblem(t, s, topic.ID, "Two Sum", created)

	got, err := s.GetProblem(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProblem: %v", err)
	}
	if got.Title != "Two Sum" || got.TopicID != topic.ID || got.Difficulty != models.DifficultyEasy {
		t.Errorf("got = %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if len(got.Tags) != 3 || got.Tags[2] != "b" {
		t.Errorf("Tags = %v, duplicates must be kept", got.Tags)
	}

	hard := models.DifficultyHard
	updated, err := s.UpdateProblem(ctx, p.ID, models.ProblemPatch{
		Difficulty: &hard,
		Tags:       &[]string{"hash-map"},
		Notes:      ptr("remember the complement"),
	})
	if err != nil {
		t.Fatalf("UpdateProblem: %v", err)
	}
	if updated.Difficulty != hard || len(updated.Tags) != 1 || updated.Notes != "remember the complement" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Title != "Two Sum" || !updated.CreatedAt.Equal(created) {
		t.Errorf("unpatched fields changed: %+v", updated)
	}

	if err := s.DeleteProblem(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProblem: %v", err)
	}
	if _, err := s.GetProblem(ctx, p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetProblem after delete: %v", err)
	}
}

func testProblemsNewestFirst(t *testing.T, s store.Store) {
	topic := mustTopic(t, s, "T", 1)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mustProblem(t, s, topic.ID, "old", base)
	mustProblem(t, s, topic.ID, "new", base.Add(2*time.Hour))
	mustProblem(t, s, topic.ID, "mid", base.Add(time.Hour))

	problems, err := s.ListProblems(context.Background(), "")
	if err != nil {
		t.Fatalf("ListProblems: %v", err)
	}
	var titles []string
	for _, p := range problems {
		titles = append(titles, p.Title)
	}
	if len(titles) != 3 || titles[0] != "new" || titles[1] != "mid" || titles[2] != "old" {
		t.Errorf("order = %v, want [new mid old]", titles)
	}
}

func testProblemsByTopic(t *testing.T, s store.Store) {
	a := mustTopic(t, s, "A", 1)
	b := mustTopic(t, s, "B", 2)
	now := time.Now().UTC()
	mustProblem(t, s, a.ID, "a1", now)
	mustProblem(t, s, b.ID, "b1", now)
	mustProblem(t, s, a.ID, "a2", now)

	got, err := s.ListProblems(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("ListProblems: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, p := range got {
		if p.TopicID != a.ID {
			t.Errorf("foreign problem %+v", p)
		}
	}

	none, err := s.ListProblems(context.Background(), "unknown-topic")
	if err != nil {
		t.Fatalf("ListProblems: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("want empty non-nil slice, got %#v", none)
	}
}

func testDeleteTopicCascades(t *testing.T, s store.Store) {
	ctx := context.Background()
	doomed := mustTopic(t, s, "doomed", 1)
	kept := mustTopic(t, s, "kept", 2)
	now := time.Now().UTC()
	mustProblem(t, s, doomed.ID, "d1", now)
	mustProblem(t, s, doomed.ID, "d2", now)
	survivor := mustProblem(t, s, kept.ID, "k1", now)
	if _, err := s.SaveTopicNote(ctx, doomed.ID, "doomed notes"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SaveTopicNote(ctx, kept.ID, "kept notes"); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteTopic(ctx, doomed.ID); err != nil {
		t.Fatalf("DeleteTopic: %v", err)
	}

	problems, err := s.ListProblems(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(problems) != 1 || problems[0].ID != survivor.ID {
		t.Errorf("problems after cascade = %+v", problems)
	}
	if _, err := s.GetTopicNote(ctx, doomed.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("note of deleted topic: %v", err)
	}
	n, err := s.GetTopicNote(ctx, kept.ID)
	if err != nil || n.Content != "kept notes" {
		t.Errorf("kept note = %+v, %v", n, err)
	}
}

func testNoteUpsert(t *testing.T, s store.Store) {
	ctx := context.Background()
	topic := mustTopic(t, s, "T", 1)

	if _, err := s.GetTopicNote(ctx, topic.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing note: %v", err)
	}
	for _, content := range []string{"first", `[{"id":"1","type":"text","content":"second"}]`} {
		n, err := s.SaveTopicNote(ctx, topic.ID, content)
		if err != nil {
			t.Fatalf("SaveTopicNote: %v", err)
		}
		if n.Content != content || n.TopicID != topic.ID {
			t.Errorf("saved = %+v", n)
		}
	}
	n, err := s.GetTopicNote(ctx, topic.ID)
	if err != nil {
		t.Fatalf("GetTopicNote: %v", err)
	}
	if n.Content != `[{"id":"1","type":"text","content":"second"}]` {
		t.Errorf("content = %q, want the last save", n.Content)
	}
}

func testUnknownIDs(t *testing.T, s store.Store) {
	ctx := context.Background()
	for _, id := range []string{"000000000000000000000000", "not-an-id"} {
		if _, err := s.GetTopic(ctx, id); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("GetTopic(%s): %v", id, err)
		}
		if _, err := s.UpdateTopic(ctx, id, models.TopicPatch{Name: ptr("x")}); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("UpdateTopic(%s): %v", id, err)
		}
		if err := s.DeleteTopic(ctx, id); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("DeleteTopic(%s): %v", id, err)
		}
		if _, err := s.UpdateProblem(ctx, id, models.ProblemPatch{Title: ptr("x")}); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("UpdateProblem(%s): %v", id, err)
		}
		if err := s.DeleteProblem(ctx, id); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("DeleteProblem(%s): %v", id, err)
		}
	}
}

func testPing(t *testing.T, s store.Store) {
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
