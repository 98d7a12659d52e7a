package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/starford/dsaflash/internal/apperr"
	"github.com/starford/dsaflash/internal/models"
	"github.com/starford/dsaflash/internal/store"
)

// Document field name → column.
var (
	topicColumns = map[string]string{
		"name":        "name",
		"description": "description",
		"category":    "category",
		"order":       "ord",
		"icon":        "icon",
	}
	problemColumns = map[string]string{
		"title":            "title",
		"difficulty":       "difficulty",
		"leetcodeUrl":      "leetcode_url",
		"geeksforgeeksUrl": "geeksforgeeks_url",
		"solution":         "solution",
		"notes":            "notes",
		"tags":             "tags",
		"timeComplexity":   "time_complexity",
		"spaceComplexity":  "space_complexity",
	}
)

const topicSelect = `SELECT id, name, description, category, ord, icon FROM topics`

const problemSelect = `
	SELECT id, topic_id, title, difficulty, leetcode_url, geeksforgeeks_url,
	       solution, notes, tags, time_complexity, space_complexity, created_at
	FROM problems`

type scanner interface {
	Scan(dest ...any) error
}

func scanTopic(s scanner) (models.Topic, error) {
	var t models.Topic
	err := s.Scan(&t.ID, &t.Name, &t.Description, &t.Category, &t.Order, &t.Icon)
	return t, err
}

func scanProblem(s scanner) (models.Problem, error) {
	var (
		p          models.Problem
		difficulty string
		tagsJSON   string
	)
	err := s.Scan(&p.ID, &p.TopicID, &p.Title, &difficulty, &p.LeetcodeURL, &p.GeeksforgeeksURL,
		&p.Solution, &p.Notes, &tagsJSON, &p.TimeComplexity, &p.SpaceComplexity, &p.CreatedAt)
	if err != nil {
		return p, err
	}
	p.Difficulty = models.Difficulty(difficulty)
	p.CreatedAt = p.CreatedAt.UTC()
	_ = json.Unmarshal([]byte(tagsJSON), &p.Tags)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p, nil
}

func encodeTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	b, _ := json.Marshal(tags)
	return string(b)
}

// buildSet turns patch fields into an UPDATE SET clause with its arguments.
// Columns come from a fixed map, never from input.
func buildSet(fields map[string]any, columns map[string]string) (string, []any) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if _, ok := columns[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, columns[k]+" = ?")
		v := fields[k]
		if tags, ok := v.([]string); ok {
			v = encodeTags(tags)
		}
		args = append(args, v)
	}
	return strings.Join(parts, ", "), args
}

// ListTopics returns all topics ordered by their order field.
func (db *DB) ListTopics(ctx context.Context) ([]models.Topic, error) {
	rows, err := db.conn.QueryContext(ctx, topicSelect+` ORDER BY ord ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list topics: %w", err)
	}
	defer rows.Close()

	out := []models.Topic{}
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan topic: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetTopic returns one topic.
func (db *DB) GetTopic(ctx context.Context, id string) (models.Topic, error) {
	t, err := scanTopic(db.conn.QueryRowContext(ctx, topicSelect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return t, fmt.Errorf("topic %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return t, fmt.Errorf("sqlite: get topic: %w", err)
	}
	return t, nil
}

// CreateTopic inserts a topic under a fresh ID.
func (db *DB) CreateTopic(ctx context.Context, t models.Topic) (models.Topic, error) {
	t.ID = store.NewID()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO topics (id, name, description, category, ord, icon)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.Name, t.Description, t.Category, t.Order, t.Icon)
	if err != nil {
		return models.Topic{}, fmt.Errorf("sqlite: insert topic: %w", err)
	}
	return t, nil
}

// UpdateTopic applies a partial update and returns the result.
func (db *DB) UpdateTopic(ctx context.Context, id string, patch models.TopicPatch) (models.Topic, error) {
	set, args := buildSet(patch.Fields(), topicColumns)
	if set != "" {
		res, err := db.conn.ExecContext(ctx, `UPDATE topics SET `+set+` WHERE id = ?`, append(args, id)...)
		if err != nil {
			return models.Topic{}, fmt.Errorf("sqlite: update topic: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return models.Topic{}, fmt.Errorf("topic %s: %w", id, apperr.ErrNotFound)
		}
	}
	return db.GetTopic(ctx, id)
}

// DeleteTopic removes a topic, its problems and its note in one transaction.
func (db *DB) DeleteTopic(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `DELETE FROM topics WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete topic: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("topic %s: %w", id, apperr.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM problems WHERE topic_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: delete topic problems: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM topic_notes WHERE topic_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: delete topic note: %w", err)
	}
	return tx.Commit()
}

// ListProblems returns problems newest first, optionally for one topic.
func (db *DB) ListProblems(ctx context.Context, topicID string) ([]models.Problem, error) {
	query := problemSelect
	var args []any
	if topicID != "" {
		query += ` WHERE topic_id = ?`
		args = append(args, topicID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list problems: %w", err)
	}
	defer rows.Close()

	out := []models.Problem{}
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan problem: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetProblem returns one problem.
func (db *DB) GetProblem(ctx context.Context, id string) (models.Problem, error) {
	p, err := scanProblem(db.conn.QueryRowContext(ctx, problemSelect+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("problem %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return p, fmt.Errorf("sqlite: get problem: %w", err)
	}
	return p, nil
}

// CreateProblem inserts a problem under a fresh ID. A zero CreatedAt is set
// to now.
func (db *DB) CreateProblem(ctx context.Context, p models.Problem) (models.Problem, error) {
	p.ID = store.NewID()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.CreatedAt = p.CreatedAt.UTC()
	if p.Tags == nil {
		p.Tags = []string{}
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO problems (id, topic_id, title, difficulty, leetcode_url, geeksforgeeks_url,
		                      solution, notes, tags, time_complexity, space_complexity, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.TopicID, p.Title, string(p.Difficulty), p.LeetcodeURL, p.GeeksforgeeksURL,
		p.Solution, p.Notes, encodeTags(p.Tags), p.TimeComplexity, p.SpaceComplexity, p.CreatedAt)
	if err != nil {
		return models.Problem{}, fmt.Errorf("sqlite: insert problem: %w", err)
	}
	return p, nil
}

// UpdateProblem applies a partial update and returns the result.
func (db *DB) UpdateProblem(ctx context.Context, id string, patch models.ProblemPatch) (models.Problem, error) {
	set, args := buildSet(patch.Fields(), problemColumns)
	if set != "" {
		res, err := db.conn.ExecContext(ctx, `UPDATE problems SET `+set+` WHERE id = ?`, append(args, id)...)
		if err != nil {
			return models.Problem{}, fmt.Errorf("sqlite: update problem: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return models.Problem{}, fmt.Errorf("problem %s: %w", id, apperr.ErrNotFound)
		}
	}
	return db.GetProblem(ctx, id)
}

// DeleteProblem removes a problem.
func (db *DB) DeleteProblem(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM problems WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete problem: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("problem %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// GetTopicNote returns the note of a topic.
func (db *DB) GetTopicNote(ctx context.Context, topicID string) (models.TopicNote, error) {
	n := models.TopicNote{TopicID: topicID}
	err := db.conn.QueryRowContext(ctx,
		`SELECT content, updated_at FROM topic_notes WHERE topic_id = ?`, topicID,
	).Scan(&n.Content, &n.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return n, fmt.Errorf("note of topic %s: %w", topicID, apperr.ErrNotFound)
	}
	if err != nil {
		return n, fmt.Errorf("sqlite: get note: %w", err)
	}
	n.UpdatedAt = n.UpdatedAt.UTC()
	return n, nil
}

// SaveTopicNote upserts the note of a topic.
func (db *DB) SaveTopicNote(ctx context.Context, topicID, content string) (models.TopicNote, error) {
	n := models.TopicNote{TopicID: topicID, Content: content, UpdatedAt: time.Now().UTC()}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO topic_notes (topic_id, content, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(topic_id) DO UPDATE SET
			content    = excluded.content,
			updated_at = excluded.updated_at
	`, n.TopicID, n.Content, n.UpdatedAt)
	if err != nil {
		return models.TopicNote{}, fmt.Errorf("sqlite: upsert note: %w", err)
	}
	return n, nil
}
