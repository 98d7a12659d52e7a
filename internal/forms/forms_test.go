package forms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/dsaflash/internal/icons"
	"github.com/starford/dsaflash/internal/models"
)

func TestParseTags_KeepsDuplicatesDropsEmpty(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "b"}, ParseTags("a, , b, b"))
	assert.Equal(t, []string{}, ParseTags(""))
	assert.Equal(t, []string{"two-pointers"}, ParseTags("  two-pointers ,"))
}

func TestTopicForm_Validate(t *testing.T) {
	f := TopicForm{Name: "  Arrays ", Description: " desc "}
	require.NoError(t, f.Validate())
	assert.Equal(t, "Arrays", f.Name)
	assert.Equal(t, models.CategoryDataStructures, f.Category)
	assert.Equal(t, icons.DefaultName, f.Icon)

	now := time.UnixMilli(1700000000000)
	topic := f.Topic(now)
	assert.Equal(t, int64(1700000000000), topic.Order)
	assert.Empty(t, topic.ID)
}

func TestTopicForm_RequiresNameAndDescription(t *testing.T) {
	f := TopicForm{Name: "   ", Description: "x"}
	assert.Error(t, f.Validate())

	f = TopicForm{Name: "x", Description: ""}
	assert.Error(t, f.Validate())
}

func TestProblemForm_Validate(t *testing.T) {
	f := ProblemForm{TopicID: "t1", Title: "Two Sum", Solution: "hashmap", Tags: "a, , b, b"}
	require.NoError(t, f.Validate())
	p := f.Problem()
	assert.Equal(t, models.DifficultyEasy, p.Difficulty)
	assert.Equal(t, []string{"a", "b", "b"}, p.Tags)
}

func TestProblemForm_Failures(t *testing.T) {
	cases := map[string]ProblemForm{
		"no topic":       {Title: "x", Solution: "y"},
		"no title":       {TopicID: "t", Solution: "y"},
		"no solution":    {TopicID: "t", Title: "x"},
		"bad difficulty": {TopicID: "t", Title: "x", Solution: "y", Difficulty: "Brutal"},
		"bad url":        {TopicID: "t", Title: "x", Solution: "y", LeetcodeURL: "not a url"},
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, f.Validate())
		})
	}
}

func TestProblemEdit_Patch(t *testing.T) {
	title := " Renamed "
	diff := "Hard"
	tags := "x,,y"
	p, err := ProblemEdit{Title: &title, Difficulty: &diff, Tags: &tags}.Patch()
	require.NoError(t, err)
	assert.Equal(t, "Renamed", *p.Title)
	assert.Equal(t, models.DifficultyHard, *p.Difficulty)
	assert.Equal(t, []string{"x", "y"}, *p.Tags)
	assert.Nil(t, p.Solution)

	blank := "  "
	_, err = ProblemEdit{Solution: &blank}.Patch()
	assert.Error(t, err)

	bad := "Meh"
	_, err = ProblemEdit{Difficulty: &bad}.Patch()
	assert.Error(t, err)
}
