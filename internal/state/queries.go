package state

import "github.com/starford/dsaflash/internal/models"

// Snapshot returns a copy of the whole state.
func (c *Container) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.clone()
}

// Topics returns every topic in load order.
func (c *Container) Topics() []models.Topic {
	return c.Snapshot().Topics
}

// Problems returns every problem in load order.
func (c *Container) Problems() []models.Problem {
	return c.Snapshot().Problems
}

// Topic looks a topic up by ID.
func (c *Container) Topic(id string) (models.Topic, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.snap.Topics {
		if t.ID == id {
			return t, true
		}
	}
	return models.Topic{}, false
}

// Problem looks a problem up by ID.
func (c *Container) Problem(id string) (models.Problem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.snap.Problems {
		if p.ID == id {
			p.Tags = append([]string{}, p.Tags...)
			return p, true
		}
	}
	return models.Problem{}, false
}

// FilteredTopics returns the topics matching the current search query, in
// order. An empty query returns them all.
func (c *Container) FilteredTopics() []models.Topic {
	snap := c.Snapshot()
	if snap.SearchQuery == "" {
		return snap.Topics
	}
	out := []models.Topic{}
	for _, t := range snap.Topics {
		if t.Matches(snap.SearchQuery) {
			out = append(out, t)
		}
	}
	return out
}

// FilteredProblems returns the problems matching the current search query.
func (c *Container) FilteredProblems() []models.Problem {
	snap := c.Snapshot()
	if snap.SearchQuery == "" {
		return snap.Problems
	}
	out := []models.Problem{}
	for _, p := range snap.Problems {
		if p.Matches(snap.SearchQuery) {
			out = append(out, p)
		}
	}
	return out
}

// ProblemsByTopic returns the problems of one topic.
func (c *Container) ProblemsByTopic(topicID string) []models.Problem {
	out := []models.Problem{}
	for _, p := range c.Problems() {
		if p.TopicID == topicID {
			out = append(out, p)
		}
	}
	return out
}

// ProblemCount returns how many problems a topic has.
func (c *Container) ProblemCount(topicID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, p := range c.snap.Problems {
		if p.TopicID == topicID {
			n++
		}
	}
	return n
}

// DifficultyBreakdown tallies a topic's problems by difficulty.
func (c *Container) DifficultyBreakdown(topicID string) models.DifficultyCount {
	return models.CountDifficulties(c.ProblemsByTopic(topicID))
}

// SelectedTopic returns the selected topic, if any.
func (c *Container) SelectedTopic() (models.Topic, bool) {
	c.mu.RLock()
	id := c.snap.SelectedTopicID
	c.mu.RUnlock()
	if id == "" {
		return models.Topic{}, false
	}
	return c.Topic(id)
}

// SelectedProblem returns the selected problem, if any.
func (c *Container) SelectedProblem() (models.Problem, bool) {
	c.mu.RLock()
	id := c.snap.SelectedProblemID
	c.mu.RUnlock()
	if id == "" {
		return models.Problem{}, false
	}
	return c.Problem(id)
}

// SelectTopic selects a topic; "" clears the selection.
func (c *Container) SelectTopic(id string) {
	c.update(func(s *Snapshot) { s.SelectedTopicID = id })
}

// SelectProblem selects a problem; "" clears the selection.
func (c *Container) SelectProblem(id string) {
	c.update(func(s *Snapshot) { s.SelectedProblemID = id })
}

// SetSearchQuery sets the query used by the filtered views.
func (c *Container) SetSearchQuery(q string) {
	c.update(func(s *Snapshot) { s.SearchQuery = q })
}

// SetShowAddTopic opens or closes the add-topic form.
func (c *Container) SetShowAddTopic(show bool) {
	c.update(func(s *Snapshot) { s.ShowAddTopic = show })
}

// SetShowAddProblem opens or closes the add-problem form.
func (c *Container) SetShowAddProblem(show bool) {
	c.update(func(s *Snapshot) { s.ShowAddProblem = show })
}
