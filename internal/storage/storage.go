// Package storage is the client's synchronization layer. Every operation
// goes to the server first and falls back to the local cache when the server
// cannot be reached or answers with an error; successful server results are
// mirrored into the cache so the fallback stays close to the last known good
// state.
package storage

import (
	"context"
	"log/slog"
	"sync"

	"github.com/starford/dsaflash/internal/client"
	"github.com/starford/dsaflash/internal/localcache"
	"github.com/starford/dsaflash/internal/models"
)

// Local cache keys.
const (
	KeyTopics     = "dsa_topics"
	KeyProblems   = "dsa_problems"
	KeyTopicNotes = "dsa_topic_notes"
)

// NotesRemote is the server side of topic notes.
type NotesRemote interface {
	Get(ctx context.Context, topicID string) (string, error)
	Save(ctx context.Context, topicID, content string) (string, error)
}

// Remotes groups the server collections the storage talks to.
type Remotes struct {
	Topics   Remote[models.Topic, models.TopicPatch]
	Problems Remote[models.Problem, models.ProblemPatch]
	Notes    NotesRemote
}

// FromClient wires every collection to the REST client.
func FromClient(c *client.Client) Remotes {
	return Remotes{Topics: c.Topics(), Problems: c.Problems(), Notes: c.Notes()}
}

// TopicKind is the repository description of topics.
var TopicKind = Kind[models.Topic, models.TopicPatch]{
	Name:     "topic",
	Key:      KeyTopics,
	ID:       func(t models.Topic) string { return t.ID },
	Apply:    models.TopicPatch.Apply,
	Defaults: DefaultTopics,
}

// ProblemKind is the repository description of problems.
var ProblemKind = Kind[models.Problem, models.ProblemPatch]{
	Name:     "problem",
	Key:      KeyProblems,
	ID:       func(p models.Problem) string { return p.ID },
	Apply:    models.ProblemPatch.Apply,
	Normal:   normalizeProblem,
	Defaults: DefaultProblems,
}

// normalizeProblem gives remote problems a canonical shape: a non-nil tag
// list and a UTC creation time.
func normalizeProblem(p models.Problem) models.Problem {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if !p.CreatedAt.IsZero() {
		p.CreatedAt = p.CreatedAt.UTC()
	}
	return p
}

// Storage is the synchronization layer for all entity kinds.
type Storage struct {
	topics   *Repository[models.Topic, models.TopicPatch]
	problems *Repository[models.Problem, models.ProblemPatch]
	notes    NotesRemote
	cache    localcache.Store
	logger   *slog.Logger

	notesMu sync.Mutex
}

// New creates the synchronization layer.
func New(remotes Remotes, cache localcache.Store, logger *slog.Logger) *Storage {
	return &Storage{
		topics:   NewRepository(TopicKind, remotes.Topics, cache, logger),
		problems: NewRepository(ProblemKind, remotes.Problems, cache, logger),
		notes:    remotes.Notes,
		cache:    cache,
		logger:   logger,
	}
}

// GetTopics returns all topics.
func (s *Storage) GetTopics(ctx context.Context) ([]models.Topic, error) {
	return s.topics.GetAll(ctx)
}

// AddTopic creates a topic.
func (s *Storage) AddTopic(ctx context.Context, t models.Topic) (models.Topic, error) {
	return s.topics.Add(ctx, t)
}

// UpdateTopic applies a partial topic update.
func (s *Storage) UpdateTopic(ctx context.Context, id string, patch models.TopicPatch) (models.Topic, bool, error) {
	return s.topics.Update(ctx, id, patch)
}

// DeleteTopic deletes a topic. The server cascades to the topic's problems
// and note; the cache is pruned the same way here so both stay consistent
// even when the server was unreachable.
func (s *Storage) DeleteTopic(ctx context.Context, id string) error {
	if err := s.topics.Delete(ctx, id); err != nil {
		return err
	}
	s.problems.RemoveLocal(func(p models.Problem) bool { return p.TopicID == id })
	s.modifyNotes(func(notes map[string]string) bool {
		if _, ok := notes[id]; !ok {
			return false
		}
		delete(notes, id)
		return true
	})
	return nil
}

// GetProblems returns all problems.
func (s *Storage) GetProblems(ctx context.Context) ([]models.Problem, error) {
	return s.problems.GetAll(ctx)
}

// AddProblem creates a problem.
func (s *Storage) AddProblem(ctx context.Context, p models.Problem) (models.Problem, error) {
	return s.problems.Add(ctx, normalizeProblem(p))
}

// UpdateProblem applies a partial problem update.
func (s *Storage) UpdateProblem(ctx context.Context, id string, patch models.ProblemPatch) (models.Problem, bool, error) {
	return s.problems.Update(ctx, id, patch)
}

// DeleteProblem deletes a problem.
func (s *Storage) DeleteProblem(ctx context.Context, id string) error {
	return s.problems.Delete(ctx, id)
}

// GetTopicNotes returns the serialized note of a topic, "" when there is
// none.
func (s *Storage) GetTopicNotes(ctx context.Context, topicID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	content, err := s.notes.Get(ctx, topicID)
	if err == nil {
		s.modifyNotes(func(notes map[string]string) bool {
			if notes[topicID] == content {
				return false
			}
			notes[topicID] = content
			return true
		})
		return content, nil
	}
	s.logger.Warn("storage: remote failed, using local cache",
		slog.String("kind", "note"),
		slog.String("op", "get"),
		slog.String("error", err.Error()))
	return s.cachedNotes()[topicID], nil
}

// SaveTopicNotes stores the serialized note of a topic. The cache is always
// written, whatever the server said.
func (s *Storage) SaveTopicNotes(ctx context.Context, topicID, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.notes.Save(ctx, topicID, content); err != nil {
		s.logger.Warn("storage: remote failed, using local cache",
			slog.String("kind", "note"),
			slog.String("op", "save"),
			slog.String("error", err.Error()))
	}
	s.modifyNotes(func(notes map[string]string) bool {
		notes[topicID] = content
		return true
	})
	return nil
}

// CachedTopics returns the cached topic snapshot without contacting the
// server.
func (s *Storage) CachedTopics() ([]models.Topic, bool) { return s.topics.Cached() }

// CachedProblems returns the cached problem snapshot without contacting the
// server.
func (s *Storage) CachedProblems() ([]models.Problem, bool) { return s.problems.Cached() }

// LocalTopics returns the topics an offline GetTopics would return, without
// contacting the server.
func (s *Storage) LocalTopics() []models.Topic { return s.topics.Local() }

// LocalProblems returns the problems an offline GetProblems would return,
// without contacting the server.
func (s *Storage) LocalProblems() []models.Problem { return s.problems.Local() }

// Clear drops every cached collection. The next read falls back to the
// server, then to the bundled defaults.
func (s *Storage) Clear() error {
	return s.cache.Remove(KeyTopics, KeyProblems, KeyTopicNotes)
}

func (s *Storage) cachedNotes() map[string]string {
	notes := map[string]string{}
	if _, err := localcache.LoadJSON(s.cache, KeyTopicNotes, &notes); err != nil {
		s.logger.Warn("storage: unreadable cache, ignoring",
			slog.String("kind", "note"),
			slog.String("key", KeyTopicNotes),
			slog.String("error", err.Error()))
		return map[string]string{}
	}
	if notes == nil {
		notes = map[string]string{}
	}
	return notes
}

func (s *Storage) modifyNotes(fn func(map[string]string) bool) {
	s.notesMu.Lock()
	defer s.notesMu.Unlock()
	notes := s.cachedNotes()
	if !fn(notes) {
		return
	}
	if err := localcache.SaveJSON(s.cache, KeyTopicNotes, notes); err != nil {
		s.logger.Error("storage: cache write failed",
			slog.String("kind", "note"),
			slog.String("key", KeyTopicNotes),
			slog.String("error", err.Error()))
	}
}
