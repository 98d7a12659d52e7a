// Package models defines the domain types for dsaflash.
package models

import "strings"

// Topic is a named subject area grouping related problems.
type Topic struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Order       int64  `json:"order"`
	Icon        string `json:"icon,omitempty"`
}

// Suggested topic categories. The set is open; any label is accepted.
const (
	CategoryDataStructures = "Data Structures"
	CategoryAlgorithms     = "Algorithms"
	CategoryTechniques     = "Techniques"
)

// Matches reports whether q is a case-insensitive substring of the topic's
// name or description. An empty query matches everything.
func (t Topic) Matches(q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	return strings.Contains(strings.ToLower(t.Name), q) ||
		strings.Contains(strings.ToLower(t.Description), q)
}

// TopicPatch is a partial topic update. Nil fields are left untouched.
type TopicPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Order       *int64  `json:"order,omitempty"`
	Icon        *string `json:"icon,omitempty"`
}

// Apply returns t with every set field of p merged in.
func (p TopicPatch) Apply(t Topic) Topic {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Order != nil {
		t.Order = *p.Order
	}
	if p.Icon != nil {
		t.Icon = *p.Icon
	}
	return t
}

// Fields returns the set fields keyed by document field name.
func (p TopicPatch) Fields() map[string]any {
	out := make(map[string]any)
	if p.Name != nil {
		out["name"] = *p.Name
	}
	if p.Description != nil {
		out["description"] = *p.Description
	}
	if p.Category != nil {
		out["category"] = *p.Category
	}
	if p.Order != nil {
		out["order"] = *p.Order
	}
	if p.Icon != nil {
		out["icon"] = *p.Icon
	}
	return out
}

// IsEmpty reports whether the patch sets no field.
func (p TopicPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}
