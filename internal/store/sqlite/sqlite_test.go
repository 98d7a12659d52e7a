package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/dsaflash/internal/models"
	"github.com/starford/dsaflash/internal/store"
	"github.com/starford/dsaflash/internal/store/storetest"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "dsaflash.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return testDB(t) })
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"topics", "problems", "topic_notes"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dsaflash.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	tp, err := db.CreateTopic(context.Background(), models.Topic{Name: "Graphs", Description: "d"})
	if err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	got, err := db.GetTopic(context.Background(), tp.ID)
	if err != nil {
		t.Fatalf("GetTopic after reopen: %v", err)
	}
	if got.Name != "Graphs" {
		t.Errorf("name = %q", got.Name)
	}
}

func TestCreateProblemDefaultsCreatedAt(t *testing.T) {
	db := testDB(t)
	before := time.Now().UTC().Add(-time.Second)
	p, err := db.CreateProblem(context.Background(), models.Problem{TopicID: "t", Title: "x", Difficulty: models.DifficultyEasy})
	if err != nil {
		t.Fatal(err)
	}
	if p.CreatedAt.Before(before) {
		t.Errorf("CreatedAt = %v, want about now", p.CreatedAt)
	}
	if p.Tags == nil {
		t.Error("Tags should be non-nil")
	}
}

func TestBuildSetIgnoresUnknownFields(t *testing.T) {
	set, args := buildSet(map[string]any{
		"title":  "t",
		"tags":   []string{"x"},
		"bogus;": "drop table",
	}, problemColumns)
	if set != "tags = ?, title = ?" {
		t.Errorf("set = %q", set)
	}
	if len(args) != 2 || args[0] != `["x"]` || args[1] != "t" {
		t.Errorf("args = %v", args)
	}
}
