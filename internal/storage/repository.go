package storage

import (
	"context"
	"log/slog"
	"sync"

	"github.com/starford/dsaflash/internal/localcache"
)

// Remote is the server side of one entity collection.
type Remote[T, P any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, id string, patch P) (T, error)
	Delete(ctx context.Context, id string) error
}

// Kind describes how a repository handles one entity type.
type Kind[T, P any] struct {
	Name     string         // used in log lines
	Key      string         // local cache key
	ID       func(T) string // identity
	Apply    func(P, T) T   // merge a patch
	Normal   func(T) T      // canonical form of a remote result; nil for none
	Defaults func() []T     // bundled fallback dataset
}

// Repository implements the remote-primary, local-fallback policy for one
// entity collection. Remote failures are logged and absorbed; the only error
// a caller sees is its own context being done.
type Repository[T, P any] struct {
	kind   Kind[T, P]
	remote Remote[T, P]
	cache  localcache.Store
	logger *slog.Logger

	mu sync.Mutex // serializes read-modify-write on the cache key
}

// NewRepository binds kind to a remote and a cache.
func NewRepository[T, P any](kind Kind[T, P], remote Remote[T, P], cache localcache.Store, logger *slog.Logger) *Repository[T, P] {
	if kind.Normal == nil {
		kind.Normal = func(v T) T { return v }
	}
	return &Repository[T, P]{kind: kind, remote: remote, cache: cache, logger: logger}
}

// GetAll returns the remote collection and mirrors it into the cache. When
// the remote fails it returns the cached snapshot, or the bundled defaults
// when nothing usable is cached.
func (r *Repository[T, P]) GetAll(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	items, err := r.remote.List(ctx)
	if err == nil {
		out := make([]T, 0, len(items))
		for _, it := range items {
			out = append(out, r.kind.Normal(it))
		}
		r.mu.Lock()
		r.save(out)
		r.mu.Unlock()
		return out, nil
	}
	r.remoteFailed("list", err)
	return r.Local(), nil
}

// Add creates item remotely and returns the server's version. When the
// remote fails the item is kept locally as submitted, provisional ID
// included.
func (r *Repository[T, P]) Add(ctx context.Context, item T) (T, error) {
	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}
	created, err := r.remote.Create(ctx, item)
	if err == nil {
		created = r.kind.Normal(created)
		r.modify(func(items []T) []T { return append(items, created) })
		return created, nil
	}
	r.remoteFailed("create", err)
	r.modify(func(items []T) []T { return append(items, item) })
	return item, nil
}

// Update applies patch to the entity id. The second result is false when
// neither the remote nor the cache knows the entity.
func (r *Repository[T, P]) Update(ctx context.Context, id string, patch P) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	updated, err := r.remote.Update(ctx, id, patch)
	if err == nil {
		updated = r.kind.Normal(updated)
		r.modify(func(items []T) []T {
			for i := range items {
				if r.kind.ID(items[i]) == id {
					items[i] = updated
				}
			}
			return items
		})
		return updated, true, nil
	}
	r.remoteFailed("update", err)

	found := false
	r.modify(func(items []T) []T {
		for i := range items {
			if r.kind.ID(items[i]) == id {
				items[i] = r.kind.Apply(patch, items[i])
				updated, found = items[i], true
			}
		}
		if !found {
			return nil
		}
		return items
	})
	if !found {
		return zero, false, nil
	}
	return updated, true, nil
}

// Delete removes the entity remotely and from the cache. The cache is pruned
// whether or not the remote call succeeded.
func (r *Repository[T, P]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.remote.Delete(ctx, id); err != nil {
		r.remoteFailed("delete", err)
	}
	r.RemoveLocal(func(v T) bool { return r.kind.ID(v) == id })
	return nil
}

// RemoveLocal drops every cached entity matching pred. It never contacts the
// remote.
func (r *Repository[T, P]) RemoveLocal(pred func(T) bool) {
	r.modify(func(items []T) []T {
		kept := make([]T, 0, len(items))
		for _, v := range items {
			if !pred(v) {
				kept = append(kept, v)
			}
		}
		if len(kept) == len(items) {
			return nil
		}
		return kept
	})
}

// Local returns what GetAll yields without a server: the cached snapshot, or
// the bundled defaults when nothing usable is cached.
func (r *Repository[T, P]) Local() []T {
	if cached, ok := r.cached(); ok {
		return cached
	}
	return r.kind.Defaults()
}

// Cached returns the cached snapshot, if one is present and readable.
func (r *Repository[T, P]) Cached() ([]T, bool) {
	return r.cached()
}

func (r *Repository[T, P]) cached() ([]T, bool) {
	var items []T
	found, err := localcache.LoadJSON(r.cache, r.kind.Key, &items)
	if err != nil {
		r.logger.Warn("storage: unreadable cache, ignoring",
			slog.String("kind", r.kind.Name),
			slog.String("key", r.kind.Key),
			slog.String("error", err.Error()))
		return nil, false
	}
	if !found {
		return nil, false
	}
	if items == nil {
		items = []T{}
	}
	return items, true
}

// modify runs a read-modify-write on the cache. The base is the cached
// snapshot, or the defaults when there is none, so local edits made before
// the first successful sync are not lost to a later fallback. fn returns nil
// to leave the cache untouched.
func (r *Repository[T, P]) modify(fn func([]T) []T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items, ok := r.cached()
	if !ok {
		items = r.kind.Defaults()
	}
	if next := fn(items); next != nil {
		r.save(next)
	}
}

func (r *Repository[T, P]) save(items []T) {
	if items == nil {
		items = []T{}
	}
	if err := localcache.SaveJSON(r.cache, r.kind.Key, items); err != nil {
		r.logger.Error("storage: cache write failed",
			slog.String("kind", r.kind.Name),
			slog.String("key", r.kind.Key),
			slog.String("error", err.Error()))
	}
}

func (r *Repository[T, P]) remoteFailed(op string, err error) {
	r.logger.Warn("storage: remote failed, using local cache",
		slog.String("kind", r.kind.Name),
		slog.String("op", op),
		slog.String("error", err.Error()))
}
