// Package state holds the client's in-memory view of the catalogue: the
// collections, the current selection and the UI flags. The container is
// created once by the composition root and handed to every consumer.
package state

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/dsaflash/internal/models"
)

// Storage is the persistence the container drives.
type Storage interface {
	GetTopics(ctx context.Context) ([]models.Topic, error)
	AddTopic(ctx context.Context, t models.Topic) (models.Topic, error)
	UpdateTopic(ctx context.Context, id string, patch models.TopicPatch) (models.Topic, bool, error)
	DeleteTopic(ctx context.Context, id string) error

	GetProblems(ctx context.Context) ([]models.Problem, error)
	AddProblem(ctx context.Context, p models.Problem) (models.Problem, error)
	UpdateProblem(ctx context.Context, id string, patch models.ProblemPatch) (models.Problem, bool, error)
	DeleteProblem(ctx context.Context, id string) error

	GetTopicNotes(ctx context.Context, topicID string) (string, error)
	SaveTopicNotes(ctx context.Context, topicID, content string) error

	Clear() error
}

// Snapshot is an immutable copy of the container's state.
type Snapshot struct {
	Topics            []models.Topic
	Problems          []models.Problem
	SelectedTopicID   string
	SelectedProblemID string
	SearchQuery       string
	ShowAddTopic      bool
	ShowAddProblem    bool
}

// Option configures a Container.
type Option func(*Container)

// WithClock overrides the time source used for provisional IDs and creation
// times.
func WithClock(now func() time.Time) Option {
	return func(c *Container) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Container) { c.logger = l }
}

// Container is the application state. Each mutation computes fresh
// collections and swaps them in under the lock in a single step, so readers
// never observe a half-applied change. Two concurrent edits of the same
// entity resolve as last write wins.
type Container struct {
	storage Storage
	now     func() time.Time
	logger  *slog.Logger

	mu   sync.RWMutex
	snap Snapshot

	idMu   sync.Mutex
	lastID int64

	// pubMu is taken before mu is released, so subscribers see snapshots
	// in commit order.
	pubMu   sync.Mutex
	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// New creates an empty container over storage. Call LoadAll to populate it.
func New(storage Storage, opts ...Option) *Container {
	c := &Container{
		storage: storage,
		now:     time.Now,
		logger:  slog.Default(),
		snap:    Snapshot{Topics: []models.Topic{}, Problems: []models.Problem{}},
		subs:    make(map[int]func(Snapshot)),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Subscribe registers fn to be called with the new snapshot after every
// change, in the order the changes were applied. fn may read the container
// but must not mutate it. The returned function unregisters it.
func (c *Container) Subscribe(fn func(Snapshot)) func() {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()
	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// update applies fn to a copy of the state and publishes the result.
func (c *Container) update(fn func(s *Snapshot)) {
	c.mu.Lock()
	next := c.snap
	fn(&next)
	c.snap = next
	published := next.clone()
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	c.mu.Unlock()

	c.subMu.Lock()
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, sub := range c.subs {
		subs = append(subs, sub)
	}
	c.subMu.Unlock()
	for _, sub := range subs {
		sub(published)
	}
}

func (s Snapshot) clone() Snapshot {
	s.Topics = append([]models.Topic{}, s.Topics...)
	problems := make([]models.Problem, len(s.Problems))
	for i, p := range s.Problems {
		p.Tags = append([]string{}, p.Tags...)
		problems[i] = p
	}
	s.Problems = problems
	return s
}

// provisionalID returns "<prefix>-<unix millis>", bumped past the previous
// ID when the clock has not advanced.
func (c *Container) provisionalID(prefix string) string {
	c.idMu.Lock()
	defer c.idMu.Unlock()
	ms := c.now().UnixMilli()
	if ms <= c.lastID {
		ms = c.lastID + 1
	}
	c.lastID = ms
	return prefix + "-" + strconv.FormatInt(ms, 10)
}

// LoadAll fetches topics and problems concurrently and replaces both
// collections. On failure both collections are emptied.
func (c *Container) LoadAll(ctx context.Context) error {
	var topics []models.Topic
	var problems []models.Problem

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		topics, err = c.storage.GetTopics(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		problems, err = c.storage.GetProblems(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		c.logger.Error("state: load failed", slog.String("error", err.Error()))
		c.update(func(s *Snapshot) {
			s.Topics = []models.Topic{}
			s.Problems = []models.Problem{}
		})
		return err
	}

	c.update(func(s *Snapshot) {
		s.Topics = nonNil(topics)
		s.Problems = nonNil(problems)
	})
	return nil
}

// Reset drops the local cache and reloads, which brings back the server
// state or, offline, the bundled defaults.
func (c *Container) Reset(ctx context.Context) error {
	if err := c.storage.Clear(); err != nil {
		c.logger.Error("state: clear cache failed", slog.String("error", err.Error()))
	}
	return c.LoadAll(ctx)
}

// Adopt replaces both collections with ones observed outside this
// container, such as cache files written by another process. Selections
// pointing at entities that no longer exist are cleared.
func (c *Container) Adopt(topics []models.Topic, problems []models.Problem) {
	c.update(func(s *Snapshot) {
		s.Topics = append([]models.Topic{}, topics...)
		s.Problems = append([]models.Problem{}, problems...)
		if s.SelectedTopicID != "" && !containsID(s.Topics, s.SelectedTopicID, func(t models.Topic) string { return t.ID }) {
			s.SelectedTopicID = ""
		}
		if s.SelectedProblemID != "" && !containsID(s.Problems, s.SelectedProblemID, func(p models.Problem) string { return p.ID }) {
			s.SelectedProblemID = ""
		}
	})
}

// AddTopic assigns a provisional ID, persists the topic and appends the
// stored version, which carries the server ID when the server accepted it.
func (c *Container) AddTopic(ctx context.Context, t models.Topic) (models.Topic, error) {
	t.ID = c.provisionalID("topic")
	created, err := c.storage.AddTopic(ctx, t)
	if err != nil {
		return models.Topic{}, err
	}
	if created.ID == "" {
		created = t
	}
	c.update(func(s *Snapshot) {
		s.Topics = append(append([]models.Topic{}, s.Topics...), created)
	})
	return created, nil
}

// UpdateTopic applies a partial update to a topic.
func (c *Container) UpdateTopic(ctx context.Context, id string, patch models.TopicPatch) (models.Topic, bool, error) {
	stored, ok, err := c.storage.UpdateTopic(ctx, id, patch)
	if err != nil {
		return models.Topic{}, false, err
	}
	var result models.Topic
	found := false
	c.update(func(s *Snapshot) {
		topics := make([]models.Topic, len(s.Topics))
		for i, t := range s.Topics {
			if t.ID == id {
				if ok {
					t = stored
				} else {
					t = patch.Apply(t)
				}
				result, found = t, true
			}
			topics[i] = t
		}
		s.Topics = topics
	})
	if !found && ok {
		return stored, true, nil
	}
	return result, found, nil
}

// DeleteTopic removes a topic together with its problems. The in-memory
// cascade happens whatever the server did.
func (c *Container) DeleteTopic(ctx context.Context, id string) error {
	if err := c.storage.DeleteTopic(ctx, id); err != nil {
		return err
	}
	c.update(func(s *Snapshot) {
		topics := make([]models.Topic, 0, len(s.Topics))
		for _, t := range s.Topics {
			if t.ID != id {
				topics = append(topics, t)
			}
		}
		problems := make([]models.Problem, 0, len(s.Problems))
		selectedGone := s.SelectedProblemID != ""
		for _, p := range s.Problems {
			if p.TopicID == id {
				continue
			}
			if p.ID == s.SelectedProblemID {
				selectedGone = false
			}
			problems = append(problems, p)
		}
		s.Topics, s.Problems = topics, problems
		if s.SelectedTopicID == id {
			s.SelectedTopicID = ""
		}
		if selectedGone {
			s.SelectedProblemID = ""
		}
	})
	return nil
}

// AddProblem assigns a provisional ID and creation time, persists the
// problem and appends the stored version.
func (c *Container) AddProblem(ctx context.Context, p models.Problem) (models.Problem, error) {
	p.ID = c.provisionalID("problem")
	p.CreatedAt = c.now().UTC()
	if p.Tags == nil {
		p.Tags = []string{}
	}
	created, err := c.storage.AddProblem(ctx, p)
	if err != nil {
		return models.Problem{}, err
	}
	if created.ID == "" {
		created = p
	}
	c.update(func(s *Snapshot) {
		s.Problems = append(append([]models.Problem{}, s.Problems...), created)
	})
	return created, nil
}

// UpdateProblem applies a partial update to a problem.
func (c *Container) UpdateProblem(ctx context.Context, id string, patch models.ProblemPatch) (models.Problem, bool, error) {
	stored, ok, err := c.storage.UpdateProblem(ctx, id, patch)
	if err != nil {
		return models.Problem{}, false, err
	}
	var result models.Problem
	found := false
	c.update(func(s *Snapshot) {
		problems := make([]models.Problem, len(s.Problems))
		for i, p := range s.Problems {
			if p.ID == id {
				if ok {
					p = stored
				} else {
					p = patch.Apply(p)
				}
				result, found = p, true
			}
			problems[i] = p
		}
		s.Problems = problems
	})
	if !found && ok {
		return stored, true, nil
	}
	return result, found, nil
}

// DeleteProblem removes a problem.
func (c *Container) DeleteProblem(ctx context.Context, id string) error {
	if err := c.storage.DeleteProblem(ctx, id); err != nil {
		return err
	}
	c.update(func(s *Snapshot) {
		problems := make([]models.Problem, 0, len(s.Problems))
		for _, p := range s.Problems {
			if p.ID != id {
				problems = append(problems, p)
			}
		}
		s.Problems = problems
		if s.SelectedProblemID == id {
			s.SelectedProblemID = ""
		}
	})
	return nil
}

// TopicNotes returns the serialized note of a topic.
func (c *Container) TopicNotes(ctx context.Context, topicID string) (string, error) {
	return c.storage.GetTopicNotes(ctx, topicID)
}

// SaveTopicNotes stores the serialized note of a topic.
func (c *Container) SaveTopicNotes(ctx context.Context, topicID, content string) error {
	return c.storage.SaveTopicNotes(ctx, topicID, content)
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func containsID[T any](items []T, id string, idOf func(T) string) bool {
	for _, it := range items {
		if idOf(it) == id {
			return true
		}
	}
	return false
}
