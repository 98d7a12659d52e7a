// Package store defines the server-side document store contract.
package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/starford/dsaflash/internal/models"
)

// Store persists topics, problems and topic notes.
//
// Unknown IDs yield apperr.ErrNotFound. Topics list by order ascending,
// problems by creation time descending. DeleteTopic always removes the
// topic's problems and note as well.
type Store interface {
	ListTopics(ctx context.Context) ([]models.Topic, error)
	GetTopic(ctx context.Context, id string) (models.Topic, error)
	CreateTopic(ctx context.Context, t models.Topic) (models.Topic, error)
	UpdateTopic(ctx context.Context, id string, patch models.TopicPatch) (models.Topic, error)
	DeleteTopic(ctx context.Context, id string) error

	// ListProblems returns every problem, or only those of topicID when it
	// is non-empty.
	ListProblems(ctx context.Context, topicID string) ([]models.Problem, error)
	GetProblem(ctx context.Context, id string) (models.Problem, error)
	CreateProblem(ctx context.Context, p models.Problem) (models.Problem, error)
	UpdateProblem(ctx context.Context, id string, patch models.ProblemPatch) (models.Problem, error)
	DeleteProblem(ctx context.Context, id string) error

	// GetTopicNote returns apperr.ErrNotFound when the topic has no note.
	GetTopicNote(ctx context.Context, topicID string) (models.TopicNote, error)
	// SaveTopicNote creates or replaces the single note of a topic.
	SaveTopicNote(ctx context.Context, topicID, content string) (models.TopicNote, error)

	Ping(ctx context.Context) error
	Close() error
}

// NewID returns a fresh document ID: 24 hex characters, the same shape the
// Mongo store produces, so clients see one ID format whatever the backend.
func NewID() string {
	return primitive.NewObjectID().Hex()
}
