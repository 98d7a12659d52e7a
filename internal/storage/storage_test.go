package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/dsaflash/internal/localcache"
	"github.com/starford/dsaflash/internal/models"
)

var errDown = errors.New("connection refused")

// fakeRemote is an in-memory server collection that can be switched off.
type fakeRemote[T, P any] struct {
	mu     sync.Mutex
	down   bool
	items  []T
	nextID int
	id     func(T) string
	setID  func(T, string) T
	apply  func(P, T) T
	calls  []string
}

func (f *fakeRemote[T, P]) setDown(v bool) {
	f.mu.Lock()
	f.down = v
	f.mu.Unlock()
}

func (f *fakeRemote[T, P]) record(op string) error {
	f.calls = append(f.calls, op)
	if f.down {
		return errDown
	}
	return nil
}

func (f *fakeRemote[T, P]) List(context.Context) ([]T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("list"); err != nil {
		return nil, err
	}
	return append([]T(nil), f.items...), nil
}

func (f *fakeRemote[T, P]) Create(_ context.Context, item T) (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create"); err != nil {
		var zero T
		return zero, err
	}
	f.nextID++
	item = f.setID(item, "srv-"+string(rune('0'+f.nextID)))
	f.items = append(f.items, item)
	return item, nil
}

func (f *fakeRemote[T, P]) Update(_ context.Context, id string, patch P) (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var zero T
	if err := f.record("update"); err != nil {
		return zero, err
	}
	for i := range f.items {
		if f.id(f.items[i]) == id {
			f.items[i] = f.apply(patch, f.items[i])
			return f.items[i], nil
		}
	}
	return zero, errors.New("status 404")
}

func (f *fakeRemote[T, P]) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete"); err != nil {
		return err
	}
	kept := f.items[:0]
	for _, it := range f.items {
		if f.id(it) != id {
			kept = append(kept, it)
		}
	}
	f.items = kept
	return nil
}

type fakeNotes struct {
	mu    sync.Mutex
	down  bool
	notes map[string]string
}

func (f *fakeNotes) Get(_ context.Context, topicID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return "", errDown
	}
	return f.notes[topicID], nil
}

func (f *fakeNotes) Save(_ context.Context, topicID, content string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return "", errDown
	}
	f.notes[topicID] = content
	return content, nil
}

type env struct {
	topics   *fakeRemote[models.Topic, models.TopicPatch]
	problems *fakeRemote[models.Problem, models.ProblemPatch]
	notes    *fakeNotes
	cache    *localcache.Memory
	store    *Storage
}

func (e *env) down() {
	e.topics.setDown(true)
	e.problems.setDown(true)
	e.notes.mu.Lock()
	e.notes.down = true
	e.notes.mu.Unlock()
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		topics: &fakeRemote[models.Topic, models.TopicPatch]{
			id:    func(v models.Topic) string { return v.ID },
			setID: func(v models.Topic, id string) models.Topic { v.ID = id; return v },
			apply: models.TopicPatch.Apply,
		},
		problems: &fakeRemote[models.Problem, models.ProblemPatch]{
			id:    func(v models.Problem) string { return v.ID },
			setID: func(v models.Problem, id string) models.Problem { v.ID = id; return v },
			apply: models.ProblemPatch.Apply,
		},
		notes: &fakeNotes{notes: map[string]string{}},
		cache: localcache.NewMemory(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e.store = New(Remotes{Topics: e.topics, Problems: e.problems, Notes: e.notes}, e.cache, logger)
	return e
}

func cachedTopics(t *testing.T, c localcache.Store) []models.Topic {
	t.Helper()
	var out []models.Topic
	found, err := localcache.LoadJSON(c, KeyTopics, &out)
	require.NoError(t, err)
	require.True(t, found, "topics key should be cached")
	return out
}

func cachedProblems(t *testing.T, c localcache.Store) []models.Problem {
	t.Helper()
	var out []models.Problem
	found, err := localcache.LoadJSON(c, KeyProblems, &out)
	require.NoError(t, err)
	require.True(t, found, "problems key should be cached")
	return out
}

func TestDefaultsParse(t *testing.T) {
	require.NoError(t, DefaultsErr())
	topics := DefaultTopics()
	problems := DefaultProblems()
	require.NotEmpty(t, topics)
	require.NotEmpty(t, problems)

	ids := map[string]bool{}
	for _, tp := range topics {
		assert.NotEmpty(t, tp.ID)
		assert.NotEmpty(t, tp.Name)
		ids[tp.ID] = true
	}
	for _, p := range problems {
		assert.True(t, ids[p.TopicID], "problem %s points at unknown topic %s", p.ID, p.TopicID)
		assert.True(t, p.Difficulty.Valid(), "problem %s", p.ID)
		assert.NotNil(t, p.Tags)
		assert.False(t, p.CreatedAt.IsZero())
	}

	// Callers get copies.
	topics[0].Name = "mutated"
	assert.NotEqual(t, "mutated", DefaultTopics()[0].Name)
}

func TestGetAll_MirrorsRemote(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.topics.items = []models.Topic{{ID: "a", Name: "Arrays"}}

	got, err := e.store.GetTopics(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Topic{{ID: "a", Name: "Arrays"}}, got)
	assert.Equal(t, got, cachedTopics(t, e.cache))
}

func TestGetAll_FallsBackToCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.topics.items = []models.Topic{{ID: "a", Name: "Arrays"}}
	_, err := e.store.GetTopics(ctx)
	require.NoError(t, err)

	e.down()
	got, err := e.store.GetTopics(ctx)
	require.NoError(t, err, "remote failure must not surface")
	assert.Equal(t, []models.Topic{{ID: "a", Name: "Arrays"}}, got)
}

func TestGetAll_FallsBackToDefaults(t *testing.T) {
	e := newEnv(t)
	e.down()

	got, err := e.store.GetTopics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultTopics(), got)

	problems, err := e.store.GetProblems(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultProblems(), problems)
}

func TestGetAll_CorruptCacheUsesDefaults(t *testing.T) {
	e := newEnv(t)
	e.down()
	require.NoError(t, e.cache.Set(KeyTopics, []byte("{not json")))

	got, err := e.store.GetTopics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultTopics(), got)
}

func TestGetAll_EmptyCacheIsNotDefaults(t *testing.T) {
	e := newEnv(t)
	e.down()
	require.NoError(t, e.cache.Set(KeyTopics, []byte("[]")))

	got, err := e.store.GetTopics(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetProblems_NormalizesRemote(t *testing.T) {
	e := newEnv(t)
	loc := time.FixedZone("X", 3600)
	e.problems.items = []models.Problem{{ID: "p", Title: "T", CreatedAt: time.Date(2024, 1, 1, 10, 0, 0, 0, loc)}}

	got, err := e.store.GetProblems(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.NotNil(t, got[0].Tags)
	assert.Equal(t, time.UTC, got[0].CreatedAt.Location())
}

func TestAdd_RemoteAssignsID(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.store.GetTopics(ctx)
	require.NoError(t, err)

	got, err := e.store.AddTopic(ctx, models.Topic{ID: "topic-1", Name: "Arrays", Description: "desc", Category: "Data Structures"})
	require.NoError(t, err)
	assert.Equal(t, "srv-1", got.ID)
	assert.Equal(t, "Arrays", got.Name)
	assert.Equal(t, []models.Topic{got}, cachedTopics(t, e.cache))
}

func TestAdd_OfflineKeepsProvisionalID(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, localcache.SaveJSON(e.cache, KeyTopics, []models.Topic{}))
	e.down()

	in := models.Topic{ID: "topic-1", Name: "Arrays", Description: "desc"}
	got, err := e.store.AddTopic(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, in, got)

	all, err := e.store.GetTopics(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Topic{in}, all)
}

func TestAdd_OfflineWithoutCacheKeepsDefaults(t *testing.T) {
	e := newEnv(t)
	e.down()

	in := models.Topic{ID: "topic-1", Name: "Mine"}
	_, err := e.store.AddTopic(context.Background(), in)
	require.NoError(t, err)

	all := cachedTopics(t, e.cache)
	assert.Len(t, all, len(DefaultTopics())+1)
	assert.Equal(t, in, all[len(all)-1])
}

func TestUpdate_RemoteAndOffline(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.problems.items = []models.Problem{{ID: "p1", Title: "Old", Tags: []string{}}}
	_, err := e.store.GetProblems(ctx)
	require.NoError(t, err)

	title := "New"
	got, ok, err := e.store.UpdateProblem(ctx, "p1", models.ProblemPatch{Title: &title})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "New", cachedProblems(t, e.cache)[0].Title)

	e.down()
	offline := "Offline"
	got, ok, err = e.store.UpdateProblem(ctx, "p1", models.ProblemPatch{Title: &offline})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Offline", got.Title)
	assert.Equal(t, "Offline", cachedProblems(t, e.cache)[0].Title)

	_, ok, err = e.store.UpdateProblem(ctx, "missing", models.ProblemPatch{Title: &offline})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete_MirrorsCacheOnSuccess(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.problems.items = []models.Problem{{ID: "p1"}, {ID: "p2"}}
	_, err := e.store.GetProblems(ctx)
	require.NoError(t, err)

	require.NoError(t, e.store.DeleteProblem(ctx, "p1"))
	cached := cachedProblems(t, e.cache)
	require.Len(t, cached, 1)
	assert.Equal(t, "p2", cached[0].ID)
}

func TestDelete_OfflineStillPrunesCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.problems.items = []models.Problem{{ID: "p1"}, {ID: "p2"}}
	_, err := e.store.GetProblems(ctx)
	require.NoError(t, err)

	e.down()
	require.NoError(t, e.store.DeleteProblem(ctx, "p2"))
	got, err := e.store.GetProblems(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ID)
}

func TestDeleteTopic_CascadesInCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.topics.items = []models.Topic{{ID: "t1"}, {ID: "t2"}}
	e.problems.items = []models.Problem{{ID: "p1", TopicID: "t1"}, {ID: "p2", TopicID: "t2"}, {ID: "p3", TopicID: "t1"}}
	_, err := e.store.GetTopics(ctx)
	require.NoError(t, err)
	_, err = e.store.GetProblems(ctx)
	require.NoError(t, err)
	require.NoError(t, e.store.SaveTopicNotes(ctx, "t1", "n1"))
	require.NoError(t, e.store.SaveTopicNotes(ctx, "t2", "n2"))

	e.down()
	require.NoError(t, e.store.DeleteTopic(ctx, "t1"))

	topics := cachedTopics(t, e.cache)
	require.Len(t, topics, 1)
	assert.Equal(t, "t2", topics[0].ID)
	problems := cachedProblems(t, e.cache)
	require.Len(t, problems, 1)
	assert.Equal(t, "p2", problems[0].ID)

	n1, err := e.store.GetTopicNotes(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, n1)
	n2, err := e.store.GetTopicNotes(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, "n2", n2)
}

func TestTopicNotes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	got, err := e.store.GetTopicNotes(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	require.NoError(t, e.store.SaveTopicNotes(ctx, "t1", "remote"))
	assert.Equal(t, "remote", e.notes.notes["t1"])

	e.down()
	require.NoError(t, e.store.SaveTopicNotes(ctx, "t1", "offline"))
	got, err = e.store.GetTopicNotes(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "offline", got)
}

func TestGetTopicNotes_MirrorsRemote(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.notes.notes["t1"] = "from server"

	got, err := e.store.GetTopicNotes(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "from server", got)

	e.down()
	got, err = e.store.GetTopicNotes(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "from server", got)
}

func TestClear(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.topics.items = []models.Topic{{ID: "a"}}
	_, err := e.store.GetTopics(ctx)
	require.NoError(t, err)
	require.NoError(t, e.store.SaveTopicNotes(ctx, "a", "x"))

	require.NoError(t, e.store.Clear())
	for _, key := range []string{KeyTopics, KeyProblems, KeyTopicNotes} {
		_, err := e.cache.Get(key)
		assert.ErrorIs(t, err, localcache.ErrNotFound, key)
	}
}

func TestLocal_MatchesOfflineGetAllAfterClear(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.topics.items = []models.Topic{{ID: "a", Name: "Arrays"}}
	e.problems.items = []models.Problem{{ID: "p", TopicID: "a", Tags: []string{}}}
	_, err := e.store.GetTopics(ctx)
	require.NoError(t, err)
	_, err = e.store.GetProblems(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Topic{{ID: "a", Name: "Arrays"}}, e.store.LocalTopics())

	e.down()
	require.NoError(t, e.store.Clear())
	offline, err := e.store.GetTopics(ctx)
	require.NoError(t, err)

	_, cached := e.store.CachedTopics()
	assert.False(t, cached, "offline reads do not write the defaults back")
	assert.Equal(t, DefaultTopics(), e.store.LocalTopics())
	assert.Equal(t, offline, e.store.LocalTopics())
	assert.Equal(t, DefaultProblems(), e.store.LocalProblems())
}

func TestCancelledContext(t *testing.T) {
	e := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.store.GetTopics(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = e.store.AddProblem(ctx, models.Problem{ID: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, e.store.DeleteTopic(ctx, "x"), context.Canceled)
	assert.ErrorIs(t, e.store.SaveTopicNotes(ctx, "x", "y"), context.Canceled)
	assert.Empty(t, e.topics.calls, "no remote call after cancellation")
}
