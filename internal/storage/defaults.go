package storage

import (
	"embed"
	"fmt"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/dsaflash/internal/models"
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

type seedTopic struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	Order       int64  `yaml:"order"`
	Icon        string `yaml:"icon"`
}

type seedProblem struct {
	ID               string    `yaml:"id"`
	TopicID          string    `yaml:"topicId"`
	Title            string    `yaml:"title"`
	Difficulty       string    `yaml:"difficulty"`
	LeetcodeURL      string    `yaml:"leetcodeUrl"`
	GeeksforgeeksURL string    `yaml:"geeksforgeeksUrl"`
	Solution         string    `yaml:"solution"`
	Notes            string    `yaml:"notes"`
	Tags             []string  `yaml:"tags"`
	TimeComplexity   string    `yaml:"timeComplexity"`
	SpaceComplexity  string    `yaml:"spaceComplexity"`
	CreatedAt        time.Time `yaml:"createdAt"`
}

var (
	defaultsOnce     sync.Once
	defaultTopics    []models.Topic
	defaultProblems  []models.Problem
	defaultsParseErr error
)

func loadDefaults() {
	var topics []seedTopic
	if err := decodeSeed("defaults/topics.yaml", &topics); err != nil {
		defaultsParseErr = err
		return
	}
	var problems []seedProblem
	if err := decodeSeed("defaults/problems.yaml", &problems); err != nil {
		defaultsParseErr = err
		return
	}

	defaultTopics = make([]models.Topic, 0, len(topics))
	for _, t := range topics {
		defaultTopics = append(defaultTopics, models.Topic(t))
	}
	defaultProblems = make([]models.Problem, 0, len(problems))
	for _, p := range problems {
		defaultProblems = append(defaultProblems, normalizeProblem(models.Problem{
			ID:               p.ID,
			TopicID:          p.TopicID,
			Title:            p.Title,
			Difficulty:       models.Difficulty(p.Difficulty),
			LeetcodeURL:      p.LeetcodeURL,
			GeeksforgeeksURL: p.GeeksforgeeksURL,
			Solution:         p.Solution,
			Notes:            p.Notes,
			Tags:             p.Tags,
			TimeComplexity:   p.TimeComplexity,
			SpaceComplexity:  p.SpaceComplexity,
			CreatedAt:        p.CreatedAt,
		}))
	}
}

func decodeSeed(name string, v any) error {
	data, err := defaultsFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("storage: read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("storage: parse %s: %w", name, err)
	}
	return nil
}

// DefaultTopics returns a fresh copy of the bundled topic dataset.
func DefaultTopics() []models.Topic {
	defaultsOnce.Do(loadDefaults)
	return append([]models.Topic{}, defaultTopics...)
}

// DefaultProblems returns a fresh copy of the bundled problem dataset.
func DefaultProblems() []models.Problem {
	defaultsOnce.Do(loadDefaults)
	out := make([]models.Problem, len(defaultProblems))
	for i, p := range defaultProblems {
		p.Tags = append([]string{}, p.Tags...)
		out[i] = p
	}
	return out
}

// DefaultsErr reports whether the bundled datasets failed to parse.
func DefaultsErr() error {
	defaultsOnce.Do(loadDefaults)
	return defaultsParseErr
}
