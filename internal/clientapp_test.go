package internal

import (
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/dsaflash/internal/api"
	"github.com/starford/dsaflash/internal/catalog"
	"github.com/starford/dsaflash/internal/models"
	"github.com/starford/dsaflash/internal/storage"
	"github.com/starford/dsaflash/internal/testutil"
)

func TestOpenClientAgainstServer(t *testing.T) {
	svc := catalog.NewService(testutil.TestDB(t), nil)
	srv := httptest.NewServer(api.NewServer(api.Deps{Catalog: svc, UploadDir: t.TempDir()}))
	defer srv.Close()

	cfg := NewDefaultConfig()
	cfg.Client.APIURL = srv.URL
	cfg.Client.CacheDir = filepath.Join(t.TempDir(), "cache")

	app, err := OpenClient(cfg, io.Discard)
	if err != nil {
		t.Fatalf("OpenClient: %v", err)
	}

	ctx := context.Background()
	if err := app.State.LoadAll(ctx); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(app.State.Topics()) != 0 {
		t.Errorf("fresh server should have no topics, got %d", len(app.State.Topics()))
	}

	created, err := app.State.AddTopic(ctx, models.Topic{Name: "Heaps", Description: "d", Category: models.CategoryDataStructures})
	if err != nil {
		t.Fatalf("AddTopic: %v", err)
	}
	if len(created.ID) != 24 {
		t.Errorf("server id expected, got %q", created.ID)
	}

	// The remote result is mirrored into the cache directory.
	if _, err := os.Stat(filepath.Join(cfg.Client.CacheDir, storage.KeyTopics+".json")); err != nil {
		t.Errorf("topics cache file: %v", err)
	}
}

func TestOpenClientRequiresConfig(t *testing.T) {
	if _, err := OpenClient(nil, io.Discard); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), DatabaseConfig{Driver: "redis"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenStoreSQLite(t *testing.T) {
	db, err := OpenStore(context.Background(), DatabaseConfig{
		Driver: DriverSQLite,
		SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "x.db")},
	})
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer db.Close()
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
