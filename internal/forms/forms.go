// Package forms validates user input at the presentation boundary and turns
// it into domain values. The persistence layers never validate on their own;
// everything they receive has passed through here.
package forms

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/dsaflash/internal/icons"
	"github.com/starford/dsaflash/internal/models"
)

// ParseTags splits a comma-separated tag list, trims every entry and drops
// empty ones. Duplicates are kept.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, part := range strings.Split(raw, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

var difficultyRule = validation.By(func(value any) error {
	s, _ := value.(string)
	if !models.Difficulty(s).Valid() {
		return fmt.Errorf("must be one of Easy, Medium, Hard")
	}
	return nil
})

// TopicForm is the add-topic form.
type TopicForm struct {
	Name        string
	Description string
	Category    string
	Icon        string
}

// Validate trims the form and checks required fields.
func (f *TopicForm) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	f.Category = strings.TrimSpace(f.Category)
	f.Icon = strings.TrimSpace(f.Icon)
	if f.Category == "" {
		f.Category = models.CategoryDataStructures
	}
	if f.Icon == "" {
		f.Icon = icons.DefaultName
	}
	return validation.ValidateStruct(f,
		validation.Field(&f.Name, validation.Required),
		validation.Field(&f.Description, validation.Required),
	)
}

// Topic builds the topic to submit. Order is the creation timestamp so new
// topics sort after existing ones.
func (f *TopicForm) Topic(now time.Time) models.Topic {
	return models.Topic{
		Name:        f.Name,
		Description: f.Description,
		Category:    f.Category,
		Icon:        f.Icon,
		Order:       now.UnixMilli(),
	}
}

// ProblemForm is the add-problem form. Tags holds the raw comma-separated
// input.
type ProblemForm struct {
	TopicID          string
	Title            string
	Difficulty       string
	LeetcodeURL      string
	GeeksforgeeksURL string
	Solution         string
	Notes            string
	Tags             string
	TimeComplexity   string
	SpaceComplexity  string
}

// Validate trims the form and checks required fields.
func (f *ProblemForm) Validate() error {
	for _, s := range []*string{
		&f.TopicID, &f.Title, &f.Difficulty, &f.LeetcodeURL, &f.GeeksforgeeksURL,
		&f.Solution, &f.Notes, &f.TimeComplexity, &f.SpaceComplexity,
	} {
		*s = strings.TrimSpace(*s)
	}
	if f.Difficulty == "" {
		f.Difficulty = string(models.DifficultyEasy)
	}
	return validation.ValidateStruct(f,
		validation.Field(&f.TopicID, validation.Required.Error("select a topic first")),
		validation.Field(&f.Title, validation.Required),
		validation.Field(&f.Difficulty, difficultyRule),
		validation.Field(&f.Solution, validation.Required),
		validation.Field(&f.LeetcodeURL, is.URL),
		validation.Field(&f.GeeksforgeeksURL, is.URL),
	)
}

// Problem builds the problem to submit. ID and CreatedAt are assigned by the
// state container.
func (f *ProblemForm) Problem() models.Problem {
	return models.Problem{
		TopicID:          f.TopicID,
		Title:            f.Title,
		Difficulty:       models.Difficulty(f.Difficulty),
		LeetcodeURL:      f.LeetcodeURL,
		GeeksforgeeksURL: f.GeeksforgeeksURL,
		Solution:         f.Solution,
		Notes:            f.Notes,
		Tags:             ParseTags(f.Tags),
		TimeComplexity:   f.TimeComplexity,
		SpaceComplexity:  f.SpaceComplexity,
	}
}

// ProblemEdit is the edit-problem form. Nil fields were not touched by the
// user and stay unchanged.
type ProblemEdit struct {
	Title            *string
	Difficulty       *string
	LeetcodeURL      *string
	GeeksforgeeksURL *string
	Solution         *string
	Notes            *string
	Tags             *string
	TimeComplexity   *string
	SpaceComplexity  *string
}

// Patch validates the edit and converts it into a problem patch.
func (e ProblemEdit) Patch() (models.ProblemPatch, error) {
	var p models.ProblemPatch
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}

	p.Title = trim(e.Title)
	if p.Title != nil && *p.Title == "" {
		return p, fmt.Errorf("title: cannot be blank")
	}
	p.Solution = trim(e.Solution)
	if p.Solution != nil && *p.Solution == "" {
		return p, fmt.Errorf("solution: cannot be blank")
	}
	if d := trim(e.Difficulty); d != nil {
		if err := validation.Validate(*d, difficultyRule); err != nil {
			return p, fmt.Errorf("difficulty: %w", err)
		}
		diff := models.Difficulty(*d)
		p.Difficulty = &diff
	}
	p.LeetcodeURL = trim(e.LeetcodeURL)
	p.GeeksforgeeksURL = trim(e.GeeksforgeeksURL)
	for name, u := range map[string]*string{"leetcodeUrl": p.LeetcodeURL, "geeksforgeeksUrl": p.GeeksforgeeksURL} {
		if u != nil {
			if err := validation.Validate(*u, is.URL); err != nil {
				return p, fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	p.Notes = trim(e.Notes)
	if e.Tags != nil {
		tags := ParseTags(*e.Tags)
		p.Tags = &tags
	}
	p.TimeComplexity = trim(e.TimeComplexity)
	p.SpaceComplexity = trim(e.SpaceComplexity)
	return p, nil
}
