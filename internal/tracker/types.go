// Package tracker holds the issue-tracking domain model the command pipeline
// reads from: items, the people and tags attached to them, the collections
// that group them, and the workflow stages they move through.
package tracker

import (
	"strconv"
	"time"
)

// Engagement is the considering/doing state of an open item. It is not a
// workflow stage.
type Engagement string

const (
	EngagementConsidering Engagement = "considering"
	EngagementDoing       Engagement = "doing"
)

// Title returns the capitalized label used in command messages.
func (e Engagement) Title() string {
	switch e {
	case EngagementDoing:
		return "Doing"
	case EngagementConsidering:
		return "Considering"
	default:
		return string(e)
	}
}

// Item status values.
const (
	StatusPublished = "published"
	StatusDrafted   = "drafted"
)

// Item is a trackable unit of work.
type Item struct {
	ID           int        `yaml:"id" json:"id"`
	Title        string     `yaml:"title" json:"title"`
	Description  string     `yaml:"description,omitempty" json:"description,omitempty"`
	Status       string     `yaml:"status,omitempty" json:"status,omitempty"`
	CollectionID string     `yaml:"collection_id" json:"collection_id"`
	StageID      string     `yaml:"stage_id,omitempty" json:"stage_id,omitempty"`
	Engagement   Engagement `yaml:"engagement,omitempty" json:"engagement,omitempty"`
	CreatorID    string     `yaml:"creator_id,omitempty" json:"creator_id,omitempty"`
	AssigneeIDs  []string   `yaml:"assignee_ids,omitempty" json:"assignee_ids,omitempty"`
	TagIDs       []string   `yaml:"tag_ids,omitempty" json:"tag_ids,omitempty"`
	Closed       bool       `yaml:"closed,omitempty" json:"closed,omitempty"`
	ClosedAt     time.Time  `yaml:"closed_at,omitempty" json:"closed_at,omitempty"`
	CloserID     string     `yaml:"closer_id,omitempty" json:"closer_id,omitempty"`
	CloseReason  string     `yaml:"close_reason,omitempty" json:"close_reason,omitempty"`
	CreatedAt    time.Time  `yaml:"created_at" json:"created_at"`
	LastActiveAt time.Time  `yaml:"last_active_at" json:"last_active_at"`
}

// Published reports whether the item is visible in list views.
func (i Item) Published() bool {
	return i.Status == "" || i.Status == StatusPublished
}

// AssignedTo reports whether personID is among the item's assignees.
func (i Item) AssignedTo(personID string) bool {
	return containsString(i.AssigneeIDs, personID)
}

// TaggedWith reports whether tagID is attached to the item.
func (i Item) TaggedWith(tagID string) bool {
	return containsString(i.TagIDs, tagID)
}

// Person is anyone who can act on, be assigned to, or be mentioned in items.
type Person struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Tag is a free-form label attached to items.
type Tag struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
}

// Workflow is an ordered set of stages shared by one or more collections.
type Workflow struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Stage is a workflow step an item can occupy.
type Stage struct {
	ID         string `yaml:"id" json:"id"`
	WorkflowID string `yaml:"workflow_id" json:"workflow_id"`
	Name       string `yaml:"name" json:"name"`
	Position   int    `yaml:"position,omitempty" json:"position,omitempty"`
}

// Collection is a named grouping of items. AccessIDs lists the people who
// can see it; an empty list means everyone.
type Collection struct {
	ID         string    `yaml:"id" json:"id"`
	Name       string    `yaml:"name" json:"name"`
	WorkflowID string    `yaml:"workflow_id,omitempty" json:"workflow_id,omitempty"`
	AccessIDs  []string  `yaml:"access_ids,omitempty" json:"access_ids,omitempty"`
	CreatedAt  time.Time `yaml:"created_at,omitempty" json:"created_at,omitempty"`
}

// AccessibleBy reports whether personID can see the collection.
func (c Collection) AccessibleBy(personID string) bool {
	return len(c.AccessIDs) == 0 || containsString(c.AccessIDs, personID)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Pluralize renders "1 item" / "3 items".
func Pluralize(n int, singular string) string {
	if n == 1 {
		return "1 " + singular
	}
	return strconv.Itoa(n) + " " + singular + "s"
}

// Assignment links a person to an item.
type Assignment struct {
	ItemID   int    `json:"item_id"`
	PersonID string `json:"person_id"`
}
