// Package testutil provides shared test helpers for setting up stores and
// seeded catalogs.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/starford/dsaflash/internal/models"
	"github.com/starford/dsaflash/internal/store/sqlite"
)

// TestDB creates a temporary SQLite store that is automatically cleaned up.
func TestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "dsaflash-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() {
		os.Remove(dbFile.Name())
		os.Remove(dbFile.Name() + "-wal")
		os.Remove(dbFile.Name() + "-shm")
	})

	db, err := sqlite.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// SeedTopic stores a topic with the given name and returns it.
func SeedTopic(t *testing.T, db *sqlite.DB, name string, order int64) models.Topic {
	t.Helper()
	tp, err := db.CreateTopic(context.Background(), models.Topic{
		Name:        name,
		Description: name + " basics",
		Category:    models.CategoryDataStructures,
		Order:       order,
	})
	if err != nil {
		t.Fatal(err)
	}
	return tp
}

// SeedProblem stores a problem under topicID and returns it.
func SeedProblem(t *testing.T, db *sqlite.DB, topicID, title string, d models.Difficulty) models.Problem {
	t.Helper()
	p, err := db.CreateProblem(context.Background(), models.Problem{
		TopicID:    topicID,
		Title:      title,
		Difficulty: d,
		Solution:   "solution of " + title,
		Tags:       []string{},
	})
	if err != nil {
		t.Fatal(err)
	}
	return p
}
