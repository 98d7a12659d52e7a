package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/starford/dsaflash/internal/store"
	"github.com/starford/dsaflash/internal/store/storetest"
)

// The suite needs a live server; set DSAFLASH_TEST_MONGO_URI to run it.
func testStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("DSAFLASH_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("DSAFLASH_TEST_MONGO_URI not set")
	}
	s, err := Connect(context.Background(), uri, "dsaflash_test", 10*time.Second)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := s.Drop(context.Background()); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return testStore(t) })
}

func TestConnectRejectsEmptyURI(t *testing.T) {
	if _, err := Connect(context.Background(), "", "db", time.Second); err == nil {
		t.Error("expected error for empty uri")
	}
}

func TestObjectIDNotFound(t *testing.T) {
	if _, err := objectID("topic", "nope"); err == nil {
		t.Error("expected error for malformed id")
	}
	if _, err := objectID("topic", "65a1f0c2e4b0a1b2c3d4e5f6"); err != nil {
		t.Errorf("valid id rejected: %v", err)
	}
}
