package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/dsaflash/internal/apperr"
	"github.com/starford/dsaflash/internal/models"
	"github.com/starford/dsaflash/internal/sse"
	"github.com/starford/dsaflash/internal/store/sqlite"
)

type recorded struct {
	entity, kind string
	data         sse.ChangeData
}

type recorder struct {
	mu     sync.Mutex
	events []recorded
}

func (r *recorder) PublishChange(entity, kind string, data sse.ChangeData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recorded{entity, kind, data})
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.entity + "." + e.kind
	}
	return out
}

func testService(t *testing.T) (*Service, *recorder) {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	rec := &recorder{}
	svc := NewService(db, rec)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc, rec
}

func ptr[T any](v T) *T { return &v }

func TestCreateTopic_TrimsAndValidates(t *testing.T) {
	svc, rec := testService(t)
	ctx := context.Background()

	tp, err := svc.CreateTopic(ctx, models.Topic{Name: "  Arrays ", Description: " desc ", Category: "Data Structures"})
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	if tp.Name != "Arrays" || tp.Description != "desc" {
		t.Errorf("not trimmed: %+v", tp)
	}

	for _, bad := range []models.Topic{
		{Name: " ", Description: "d", Category: "c"},
		{Name: "n", Description: "", Category: "c"},
		{Name: "n", Description: "d"},
	} {
		if _, err := svc.CreateTopic(ctx, bad); !errors.Is(err, apperr.ErrInvalid) {
			t.Errorf("CreateTopic(%+v) err = %v, want ErrInvalid", bad, err)
		}
	}

	if got := rec.types(); len(got) != 1 || got[0] != "topic.created" {
		t.Errorf("events = %v", got)
	}
}

func TestCreateProblem(t *testing.T) {
	svc, rec := testService(t)
	ctx := context.Background()

	p, err := svc.CreateProblem(ctx, models.Problem{
		TopicID: "t1", Title: " Two Sum ", Difficulty: models.DifficultyEasy,
		Solution: "hashmap", Tags: []string{" a", "b "},
	})
	if err != nil {
		t.Fatalf("CreateProblem: %v", err)
	}
	if p.Title != "Two Sum" || p.Tags[0] != "a" || p.Tags[1] != "b" {
		t.Errorf("not trimmed: %+v", p)
	}
	if !p.CreatedAt.Equal(svc.now()) {
		t.Errorf("CreatedAt = %v", p.CreatedAt)
	}

	_, err = svc.CreateProblem(ctx, models.Problem{TopicID: "t1", Title: "x", Difficulty: "Trivial", Solution: "s"})
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("bad difficulty err = %v", err)
	}
	_, err = svc.CreateProblem(ctx, models.Problem{Title: "x", Difficulty: models.DifficultyHard, Solution: "s"})
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("missing topic err = %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.events) != 1 || rec.events[0].data.TopicID != "t1" {
		t.Errorf("events = %+v", rec.events)
	}
}

func TestUpdateValidation(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	tp, _ := svc.CreateTopic(ctx, models.Topic{Name: "n", Description: "d", Category: "c"})

	if _, err := svc.UpdateTopic(ctx, tp.ID, models.TopicPatch{Name: ptr("  ")}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("blank name err = %v", err)
	}
	got, err := svc.UpdateTopic(ctx, tp.ID, models.TopicPatch{Name: ptr(" renamed ")})
	if err != nil || got.Name != "renamed" {
		t.Errorf("UpdateTopic = %+v, %v", got, err)
	}
	if _, err := svc.UpdateTopic(ctx, "000000000000000000000000", models.TopicPatch{Name: ptr("x")}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unknown id err = %v", err)
	}

	p, _ := svc.CreateProblem(ctx, models.Problem{TopicID: tp.ID, Title: "x", Difficulty: models.DifficultyEasy, Solution: "s"})
	bad := models.Difficulty("Impossible")
	if _, err := svc.UpdateProblem(ctx, p.ID, models.ProblemPatch{Difficulty: &bad}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("bad difficulty err = %v", err)
	}
	if _, err := svc.UpdateProblem(ctx, p.ID, models.ProblemPatch{Solution: ptr("")}); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("blank solution err = %v", err)
	}
	up, err := svc.UpdateProblem(ctx, p.ID, models.ProblemPatch{Tags: &[]string{" x "}})
	if err != nil || len(up.Tags) != 1 || up.Tags[0] != "x" {
		t.Errorf("UpdateProblem = %+v, %v", up, err)
	}
}

func TestDeleteTopic_Cascades(t *testing.T) {
	svc, rec := testService(t)
	ctx := context.Background()
	tp, _ := svc.CreateTopic(ctx, models.Topic{Name: "n", Description: "d", Category: "c"})
	if _, err := svc.CreateProblem(ctx, models.Problem{TopicID: tp.ID, Title: "x", Difficulty: models.DifficultyEasy, Solution: "s"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SaveTopicNotes(ctx, tp.ID, "notes"); err != nil {
		t.Fatal(err)
	}

	if err := svc.DeleteTopic(ctx, tp.ID); err != nil {
		t.Fatalf("DeleteTopic: %v", err)
	}
	problems, _ := svc.ListProblems(ctx, "")
	if len(problems) != 0 {
		t.Errorf("problems left: %+v", problems)
	}
	notes, err := svc.TopicNotes(ctx, tp.ID)
	if err != nil || notes != "" {
		t.Errorf("notes after delete = %q, %v", notes, err)
	}

	want := []string{"topic.created", "problem.created", "note.saved", "topic.deleted"}
	got := rec.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestTopicNotes(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	empty, err := svc.TopicNotes(ctx, "t1")
	if err != nil || empty != "" {
		t.Errorf("missing note = %q, %v", empty, err)
	}
	saved, err := svc.SaveTopicNotes(ctx, "t1", "hello")
	if err != nil || saved != "hello" {
		t.Errorf("SaveTopicNotes = %q, %v", saved, err)
	}
	got, _ := svc.TopicNotes(ctx, "t1")
	if got != "hello" {
		t.Errorf("TopicNotes = %q", got)
	}
	if _, err := svc.SaveTopicNotes(ctx, " ", "x"); !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("blank topic err = %v", err)
	}
}

func TestSearch(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	arrays, _ := svc.CreateTopic(ctx, models.Topic{Name: "Arrays", Description: "contiguous memory", Category: "c"})
	svc.CreateTopic(ctx, models.Topic{Name: "Graphs", Description: "nodes and edges", Category: "c"})
	svc.CreateProblem(ctx, models.Problem{TopicID: arrays.ID, Title: "Container", Difficulty: models.DifficultyMedium, Solution: "s", Tags: []string{"two-pointers"}})
	svc.CreateProblem(ctx, models.Problem{TopicID: arrays.ID, Title: "Two Sum", Difficulty: models.DifficultyEasy, Solution: "hash map"})

	res, err := svc.Search(ctx, "POINTER", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Problems) != 1 || res.Problems[0].Title != "Container" {
		t.Errorf("problems = %+v", res.Problems)
	}
	if len(res.Topics) != 0 {
		t.Errorf("topics = %+v", res.Topics)
	}

	res, _ = svc.Search(ctx, "memory", 0)
	if len(res.Topics) != 1 || res.Topics[0].Name != "Arrays" {
		t.Errorf("topics = %+v", res.Topics)
	}

	res, _ = svc.Search(ctx, "", 1)
	if len(res.Topics) != 1 || len(res.Problems) != 1 {
		t.Errorf("limit not applied: %+v", res)
	}
}
