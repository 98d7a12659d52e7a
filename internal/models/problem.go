package models

import (
	"strings"
	"time"
)

// Difficulty grades a problem.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Difficulties lists every valid difficulty in ascending order.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Problem is a single practice exercise attached to a topic.
type Problem struct {
	ID               string     `json:"id,omitempty"`
	TopicID          string     `json:"topicId"`
	Title            string     `json:"title"`
	Difficulty       Difficulty `json:"difficulty"`
	LeetcodeURL      string     `json:"leetcodeUrl,omitempty"`
	GeeksforgeeksURL string     `json:"geeksforgeeksUrl,omitempty"`
	Solution         string     `json:"solution"`
	Notes            string     `json:"notes,omitempty"`
	Tags             []string   `json:"tags"`
	TimeComplexity   string     `json:"timeComplexity,omitempty"`
	SpaceComplexity  string     `json:"spaceComplexity,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// Matches reports whether q is a case-insensitive substring of the title,
// solution, notes or any tag. An empty query matches everything.
func (p Problem) Matches(q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	if strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Solution), q) ||
		strings.Contains(strings.ToLower(p.Notes), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// ProblemPatch is a partial problem update. Nil fields are left untouched;
// the ID, topic and creation time are not patchable.
type ProblemPatch struct {
	Title            *string     `json:"title,omitempty"`
	Difficulty       *Difficulty `json:"difficulty,omitempty"`
	LeetcodeURL      *string     `json:"leetcodeUrl,omitempty"`
	GeeksforgeeksURL *string     `json:"geeksforgeeksUrl,omitempty"`
	Solution         *string     `json:"solution,omitempty"`
	Notes            *string     `json:"notes,omitempty"`
	Tags             *[]string   `json:"tags,omitempty"`
	TimeComplexity   *string     `json:"timeComplexity,omitempty"`
	SpaceComplexity  *string     `json:"spaceComplexity,omitempty"`
}

// Apply returns p with every set field of the patch merged in.
func (pp ProblemPatch) Apply(p Problem) Problem {
	if pp.Title != nil {
		p.Title = *pp.Title
	}
	if pp.Difficulty != nil {
		p.Difficulty = *pp.Difficulty
	}
	if pp.LeetcodeURL != nil {
		p.LeetcodeURL = *pp.LeetcodeURL
	}
	if pp.GeeksforgeeksURL != nil {
		p.GeeksforgeeksURL = *pp.GeeksforgeeksURL
	}
	if pp.Solution != nil {
		p.Solution = *pp.Solution
	}
	if pp.Notes != nil {
		p.Notes = *pp.Notes
	}
	if pp.Tags != nil {
		p.Tags = append([]string{}, (*pp.Tags)...)
	}
	if pp.TimeComplexity != nil {
		p.TimeComplexity = *pp.TimeComplexity
	}
	if pp.SpaceComplexity != nil {
		p.SpaceComplexity = *pp.SpaceComplexity
	}
	return p
}

// Fields returns the set fields keyed by document field name.
func (pp ProblemPatch) Fields() map[string]any {
	out := make(map[string]any)
	if pp.Title != nil {
		out["title"] = *pp.Title
	}
	if pp.Difficulty != nil {
		out["difficulty"] = string(*pp.Difficulty)
	}
	if pp.LeetcodeURL != nil {
		out["leetcodeUrl"] = *pp.LeetcodeURL
	}
	if pp.GeeksforgeeksURL != nil {
		out["geeksforgeeksUrl"] = *pp.GeeksforgeeksURL
	}
	if pp.Solution != nil {
		out["solution"] = *pp.Solution
	}
	if pp.Notes != nil {
		out["notes"] = *pp.Notes
	}
	if pp.Tags != nil {
		out["tags"] = append([]string{}, (*pp.Tags)...)
	}
	if pp.TimeComplexity != nil {
		out["timeComplexity"] = *pp.TimeComplexity
	}
	if pp.SpaceComplexity != nil {
		out["spaceComplexity"] = *pp.SpaceComplexity
	}
	return out
}

// IsEmpty reports whether the patch sets no field.
func (pp ProblemPatch) IsEmpty() bool {
	return len(pp.Fields()) == 0
}

// DifficultyCount is a per-difficulty tally of problems.
type DifficultyCount struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

// CountDifficulties tallies problems by difficulty.
func CountDifficulties(problems []Problem) DifficultyCount {
	var c DifficultyCount
	for _, p := range problems {
		switch p.Difficulty {
		case DifficultyEasy:
			c.Easy++
		case DifficultyMedium:
			c.Medium++
		case DifficultyHard:
			c.Hard++
		}
	}
	return c
}
