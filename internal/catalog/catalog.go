// Package catalog is the server-side service over topics, problems and
// topic notes. It validates input, delegates to a store.Store and publishes
// change events.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/dsaflash/internal/apperr"
	"github.com/starford/dsaflash/internal/models"
	"github.com/starford/dsaflash/internal/sse"
	"github.com/starford/dsaflash/internal/store"
)

// Publisher receives change notifications. *sse.Broker implements it.
type Publisher interface {
	PublishChange(entity, kind string, data sse.ChangeData)
}

// Service coordinates validation, persistence and change events.
type Service struct {
	store  store.Store
	events Publisher
	now    func() time.Time
}

// NewService creates a catalog service. events may be nil.
func NewService(st store.Store, events Publisher) *Service {
	return &Service{store: st, events: events, now: time.Now}
}

// Store returns the underlying store.
func (s *Service) Store() store.Store { return s.store }

func (s *Service) publish(entity, kind string, data sse.ChangeData) {
	if s.events != nil {
		s.events.PublishChange(entity, kind, data)
	}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %s", apperr.ErrInvalid, err.Error())
}

var difficultyRule = validation.By(func(value any) error {
	var d models.Difficulty
	switch v := value.(type) {
	case models.Difficulty:
		d = v
	case *models.Difficulty:
		if v == nil {
			return nil
		}
		d = *v
	}
	if !d.Valid() {
		return fmt.Errorf("must be one of Easy, Medium, Hard")
	}
	return nil
})

// notBlank rejects a set pointer whose value is empty after trimming.
var notBlank = validation.By(func(value any) error {
	if p, ok := value.(*string); ok && p != nil && *p == "" {
		return fmt.Errorf("cannot be blank")
	}
	return nil
})

func trimPtr(p *string) {
	if p != nil {
		*p = strings.TrimSpace(*p)
	}
}

func trimTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, strings.TrimSpace(t))
	}
	return out
}

// ListTopics returns every topic ordered by order.
func (s *Service) ListTopics(ctx context.Context) ([]models.Topic, error) {
	return s.store.ListTopics(ctx)
}

// CreateTopic validates and stores a new topic.
func (s *Service) CreateTopic(ctx context.Context, t models.Topic) (models.Topic, error) {
	t.Name = strings.TrimSpace(t.Name)
	t.Description = strings.TrimSpace(t.Description)
	t.Category = strings.TrimSpace(t.Category)
	t.Icon = strings.TrimSpace(t.Icon)
	err := validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required),
		validation.Field(&t.Description, validation.Required),
		validation.Field(&t.Category, validation.Required),
	)
	if err != nil {
		return models.Topic{}, invalid(err)
	}
	created, err := s.store.CreateTopic(ctx, t)
	if err != nil {
		return models.Topic{}, err
	}
	s.publish(sse.EntityTopic, sse.Created, sse.ChangeData{ID: created.ID})
	return created, nil
}

// UpdateTopic applies a partial update.
func (s *Service) UpdateTopic(ctx context.Context, id string, p models.TopicPatch) (models.Topic, error) {
	for _, f := range []*string{p.Name, p.Description, p.Category, p.Icon} {
		trimPtr(f)
	}
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Name, notBlank),
		validation.Field(&p.Description, notBlank),
		validation.Field(&p.Category, notBlank),
	)
	if err != nil {
		return models.Topic{}, invalid(err)
	}
	updated, err := s.store.UpdateTopic(ctx, id, p)
	if err != nil {
		return models.Topic{}, err
	}
	s.publish(sse.EntityTopic, sse.Updated, sse.ChangeData{ID: id})
	return updated, nil
}

// DeleteTopic removes a topic with its problems and note.
func (s *Service) DeleteTopic(ctx context.Context, id string) error {
	if err := s.store.DeleteTopic(ctx, id); err != nil {
		return err
	}
	s.publish(sse.EntityTopic, sse.Deleted, sse.ChangeData{ID: id})
	return nil
}

// ListProblems returns problems newest first. An empty topicID lists all.
func (s *Service) ListProblems(ctx context.Context, topicID string) ([]models.Problem, error) {
	return s.store.ListProblems(ctx, topicID)
}

// CreateProblem validates and stores a new problem. A zero CreatedAt is set
// to the current time.
func (s *Service) CreateProblem(ctx context.Context, p models.Problem) (models.Problem, error) {
	for _, f := range []*string{
		&p.TopicID, &p.Title, &p.LeetcodeURL, &p.GeeksforgeeksURL,
		&p.Solution, &p.Notes, &p.TimeComplexity, &p.SpaceComplexity,
	} {
		*f = strings.TrimSpace(*f)
	}
	p.Tags = trimTags(p.Tags)
	err := validation.ValidateStruct(&p,
		validation.Field(&p.TopicID, validation.Required),
		validation.Field(&p.Title, validation.Required),
		validation.Field(&p.Difficulty, validation.Required, difficultyRule),
		validation.Field(&p.Solution, validation.Required),
	)
	if err != nil {
		return models.Problem{}, invalid(err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
	}
	created, err := s.store.CreateProblem(ctx, p)
	if err != nil {
		return models.Problem{}, err
	}
	s.publish(sse.EntityProblem, sse.Created, sse.ChangeData{ID: created.ID, TopicID: created.TopicID})
	return created, nil
}

// UpdateProblem applies a partial update.
func (s *Service) UpdateProblem(ctx context.Context, id string, p models.ProblemPatch) (models.Problem, error) {
	for _, f := range []*string{
		p.Title, p.LeetcodeURL, p.GeeksforgeeksURL, p.Solution,
		p.Notes, p.TimeComplexity, p.SpaceComplexity,
	} {
		trimPtr(f)
	}
	if p.Tags != nil {
		tags := trimTags(*p.Tags)
		p.Tags = &tags
	}
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Title, notBlank),
		validation.Field(&p.Solution, notBlank),
		validation.Field(&p.Difficulty, difficultyRule),
	)
	if err != nil {
		return models.Problem{}, invalid(err)
	}
	updated, err := s.store.UpdateProblem(ctx, id, p)
	if err != nil {
		return models.Problem{}, err
	}
	s.publish(sse.EntityProblem, sse.Updated, sse.ChangeData{ID: id, TopicID: updated.TopicID})
	return updated, nil
}

// DeleteProblem removes a problem.
func (s *Service) DeleteProblem(ctx context.Context, id string) error {
	if err := s.store.DeleteProblem(ctx, id); err != nil {
		return err
	}
	s.publish(sse.EntityProblem, sse.Deleted, sse.ChangeData{ID: id})
	return nil
}

// TopicNotes returns the note content of a topic, or "" when none exists.
func (s *Service) TopicNotes(ctx context.Context, topicID string) (string, error) {
	n, err := s.store.GetTopicNote(ctx, topicID)
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return n.Content, nil
}

// SaveTopicNotes upserts the note content of a topic.
func (s *Service) SaveTopicNotes(ctx context.Context, topicID, content string) (string, error) {
	if strings.TrimSpace(topicID) == "" {
		return "", fmt.Errorf("%w: topicId is required", apperr.ErrInvalid)
	}
	n, err := s.store.SaveTopicNote(ctx, topicID, content)
	if err != nil {
		return "", err
	}
	s.publish(sse.EntityNote, sse.Saved, sse.ChangeData{ID: topicID, TopicID: topicID})
	return n.Content, nil
}
