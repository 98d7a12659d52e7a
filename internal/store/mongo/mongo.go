// Package mongo is the MongoDB implementation of store.Store.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/starford/dsaflash/internal/apperr"
	"github.com/starford/dsaflash/internal/models"
	"github.com/starford/dsaflash/internal/store"
)

// Collection names.
const (
	TopicsCollection     = "topics"
	ProblemsCollection   = "problems"
	TopicNotesCollection = "topicnotes"
)

// Store is a store.Store over one Mongo database.
type Store struct {
	client   *mongo.Client
	topics   *mongo.Collection
	problems *mongo.Collection
	notes    *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// Connect dials uri, selects database and makes sure the indexes exist.
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*Store, error) {
	if uri == "" {
		return nil, errors.New("mongo: empty uri")
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri).SetTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:   client,
		topics:   db.Collection(TopicsCollection),
		problems: db.Collection(ProblemsCollection),
		notes:    db.Collection(TopicNotesCollection),
	}
	if err := s.ensureIndexes(cctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	if _, err := s.notes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "topicId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("mongo: index topicnotes.topicId: %w", err)
	}
	if _, err := s.problems.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "topicId", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("mongo: index problems: %w", err)
	}
	if _, err := s.topics.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "order", Value: 1}},
	}); err != nil {
		return fmt.Errorf("mongo: index topics.order: %w", err)
	}
	return nil
}

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Drop removes every collection. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	for _, c := range []*mongo.Collection{s.topics, s.problems, s.notes} {
		if err := c.Drop(ctx); err != nil {
			return err
		}
	}
	return s.ensureIndexes(ctx)
}

type topicDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description"`
	Category    string             `bson:"category"`
	Order       int64              `bson:"order"`
	Icon        string             `bson:"icon,omitempty"`
}

func (d topicDoc) model() models.Topic {
	return models.Topic{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Order:       d.Order,
		Icon:        d.Icon,
	}
}

type problemDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	TopicID          string             `bson:"topicId"`
	Title            string             `bson:"title"`
	Difficulty       string             `bson:"difficulty"`
	LeetcodeURL      string             `bson:"leetcodeUrl,omitempty"`
	GeeksforgeeksURL string             `bson:"geeksforgeeksUrl,omitempty"`
	Solution         string             `bson:"solution"`
	Notes            string             `bson:"notes,omitempty"`
	Tags             []string           `bson:"tags"`
	TimeComplexity   string             `bson:"timeComplexity,omitempty"`
	SpaceComplexity  string             `bson:"spaceComplexity,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt"`
}

func (d problemDoc) model() models.Problem {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.Problem{
		ID:               d.ID.Hex(),
		TopicID:          d.TopicID,
		Title:            d.Title,
		Difficulty:       models.Difficulty(d.Difficulty),
		LeetcodeURL:      d.LeetcodeURL,
		GeeksforgeeksURL: d.GeeksforgeeksURL,
		Solution:         d.Solution,
		Notes:            d.Notes,
		Tags:             tags,
		TimeComplexity:   d.TimeComplexity,
		SpaceComplexity:  d.SpaceComplexity,
		CreatedAt:        d.CreatedAt.UTC(),
	}
}

type noteDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	TopicID   string             `bson:"topicId"`
	Content   string             `bson:"content"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// objectID parses a hex ID. Anything that is not an ObjectID cannot name a
// stored document, so it is reported as not found.
func objectID(kind, id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return oid, fmt.Errorf("%s %s: %w", kind, id, apperr.ErrNotFound)
	}
	return oid, nil
}

func notFound(kind, id string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s %s: %w", kind, id, apperr.ErrNotFound)
	}
	return fmt.Errorf("mongo: %s %s: %w", kind, id, err)
}

func setDoc(fields map[string]any) bson.M {
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	return set
}

// ListTopics returns all topics ordered by their order field.
func (s *Store) ListTopics(ctx context.Context) ([]models.Topic, error) {
	cur, err := s.topics.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: list topics: %w", err)
	}
	var docs []topicDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: list topics: %w", err)
	}
	out := make([]models.Topic, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

// GetTopic returns one topic.
func (s *Store) GetTopic(ctx context.Context, id string) (models.Topic, error) {
	oid, err := objectID("topic", id)
	if err != nil {
		return models.Topic{}, err
	}
	var d topicDoc
	if err := s.topics.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return models.Topic{}, notFound("topic", id, err)
	}
	return d.model(), nil
}

// CreateTopic inserts a topic.
func (s *Store) CreateTopic(ctx context.Context, t models.Topic) (models.Topic, error) {
	d := topicDoc{
		ID:          primitive.NewObjectID(),
		Name:        t.Name,
		Description: t.Description,
		Category:    t.Category,
		Order:       t.Order,
		Icon:        t.Icon,
	}
	if _, err := s.topics.InsertOne(ctx, d); err != nil {
		return models.Topic{}, fmt.Errorf("mongo: insert topic: %w", err)
	}
	return d.model(), nil
}

// UpdateTopic applies a partial update and returns the result.
func (s *Store) UpdateTopic(ctx context.Context, id string, patch models.TopicPatch) (models.Topic, error) {
	oid, err := objectID("topic", id)
	if err != nil {
		return models.Topic{}, err
	}
	if patch.IsEmpty() {
		return s.GetTopic(ctx, id)
	}
	var d topicDoc
	err = s.topics.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": setDoc(patch.Fields())},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		return models.Topic{}, notFound("topic", id, err)
	}
	return d.model(), nil
}

// DeleteTopic removes a topic, then its problems and note. The three
// deletes are not atomic; a failure after the first leaves orphans that the
// next delete of the same topic cannot reach.
func (s *Store) DeleteTopic(ctx context.Context, id string) error {
	oid, err := objectID("topic", id)
	if err != nil {
		return err
	}
	res, err := s.topics.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongo: delete topic: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("topic %s: %w", id, apperr.ErrNotFound)
	}
	if _, err := s.problems.DeleteMany(ctx, bson.M{"topicId": id}); err != nil {
		return fmt.Errorf("mongo: delete topic problems: %w", err)
	}
	if _, err := s.notes.DeleteOne(ctx, bson.M{"topicId": id}); err != nil {
		return fmt.Errorf("mongo: delete topic note: %w", err)
	}
	return nil
}

// ListProblems returns problems newest first, optionally for one topic.
func (s *Store) ListProblems(ctx context.Context, topicID string) ([]models.Problem, error) {
	filter := bson.M{}
	if topicID != "" {
		filter["topicId"] = topicID
	}
	cur, err := s.problems.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("mongo: list problems: %w", err)
	}
	var docs []problemDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: list problems: %w", err)
	}
	out := make([]models.Problem, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

// GetProblem returns one problem.
func (s *Store) GetProblem(ctx context.Context, id string) (models.Problem, error) {
	oid, err := objectID("problem", id)
	if err != nil {
		return models.Problem{}, err
	}
	var d problemDoc
	if err := s.problems.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return models.Problem{}, notFound("problem", id, err)
	}
	return d.model(), nil
}

// CreateProblem inserts a problem. A zero CreatedAt is set to now.
func (s *Store) CreateProblem(ctx context.Context, p models.Problem) (models.Problem, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	d := problemDoc{
		ID:               primitive.NewObjectID(),
		TopicID:          p.TopicID,
		Title:            p.Title,
		Difficulty:       string(p.Difficulty),
		LeetcodeURL:      p.LeetcodeURL,
		GeeksforgeeksURL: p.GeeksforgeeksURL,
		Solution:         p.Solution,
		Notes:            p.Notes,
		Tags:             tags,
		TimeComplexity:   p.TimeComplexity,
		SpaceComplexity:  p.SpaceComplexity,
		// BSON dates carry milliseconds.
		CreatedAt: p.CreatedAt.UTC().Truncate(time.Millisecond),
	}
	if _, err := s.problems.InsertOne(ctx, d); err != nil {
		return models.Problem{}, fmt.Errorf("mongo: insert problem: %w", err)
	}
	return d.model(), nil
}

// UpdateProblem applies a partial update and returns the result.
func (s *Store) UpdateProblem(ctx context.Context, id string, patch models.ProblemPatch) (models.Problem, error) {
	oid, err := objectID("problem", id)
	if err != nil {
		return models.Problem{}, err
	}
	if patch.IsEmpty() {
		return s.GetProblem(ctx, id)
	}
	var d problemDoc
	err = s.problems.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": setDoc(patch.Fields())},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		return models.Problem{}, notFound("problem", id, err)
	}
	return d.model(), nil
}

// DeleteProblem removes a problem.
func (s *Store) DeleteProblem(ctx context.Context, id string) error {
	oid, err := objectID("problem", id)
	if err != nil {
		return err
	}
	res, err := s.problems.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongo: delete problem: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("problem %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// GetTopicNote returns the note of a topic.
func (s *Store) GetTopicNote(ctx context.Context, topicID string) (models.TopicNote, error) {
	var d noteDoc
	if err := s.notes.FindOne(ctx, bson.M{"topicId": topicID}).Decode(&d); err != nil {
		return models.TopicNote{TopicID: topicID}, notFound("note of topic", topicID, err)
	}
	return models.TopicNote{TopicID: d.TopicID, Content: d.Content, UpdatedAt: d.UpdatedAt.UTC()}, nil
}

// SaveTopicNote upserts the note of a topic.
func (s *Store) SaveTopicNote(ctx context.Context, topicID, content string) (models.TopicNote, error) {
	var d noteDoc
	err := s.notes.FindOneAndUpdate(ctx,
		bson.M{"topicId": topicID},
		bson.M{"$set": bson.M{"content": content, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.TopicNote{}, fmt.Errorf("note of topic %s: %w", topicID, apperr.ErrAlreadyExists)
		}
		return models.TopicNote{}, fmt.Errorf("mongo: upsert note: %w", err)
	}
	return models.TopicNote{TopicID: d.TopicID, Content: d.Content, UpdatedAt: d.UpdatedAt.UTC()}, nil
}
