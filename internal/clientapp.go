package internal

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/starford/dsaflash/internal/client"
	"github.com/starford/dsaflash/internal/localcache"
	"github.com/starford/dsaflash/internal/state"
	"github.com/starford/dsaflash/internal/storage"
)

// ClientApp is the composed client side: REST client, local cache,
// synchronization layer and the state container every command works on.
type ClientApp struct {
	Client  *client.Client
	Cache   *localcache.FS
	Storage *storage.Storage
	State   *state.Container
	Logger  *slog.Logger
}

// OpenClient builds the client side from cfg. Logs go to logOut as text.
func OpenClient(cfg *Config, logOut io.Writer) (*ClientApp, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))

	cache, err := localcache.NewFS(cfg.Client.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	c := client.New(cfg.Client.APIURL, client.WithTimeout(cfg.Client.Timeout))
	st := storage.New(storage.FromClient(c), cache, logger)

	return &ClientApp{
		Client:  c,
		Cache:   cache,
		Storage: st,
		State:   state.New(st, state.WithLogger(logger)),
		Logger:  logger,
	}, nil
}
