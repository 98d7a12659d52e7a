package models

import "time"

// TopicNote is the single rich note document attached to a topic.
// Content is the serialized block sequence (or a legacy plain string).
type TopicNote struct {
	TopicID   string    `json:"topicId"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// NotesBody is the wire shape of topic note requests and responses.
type NotesBody struct {
	Notes string `json:"notes"`
}
