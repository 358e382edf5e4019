package command

import (
	"context"
	"fmt"
	"sort"

	"cmdbar/internal/logging"
	"cmdbar/internal/tracker"
)

// Assign adds assignees to the captured items.
type Assign struct {
	Base
	bulk
	AssigneeIDs []string

	added []tracker.Assignment
}

func (c *Assign) Kind() Kind { return KindAssign }

func (c *Assign) Title() string {
	names := make([]string, len(c.AssigneeIDs))
	for i, id := range c.AssigneeIDs {
		names[i] = c.personName(id)
	}
	if len(names) == 0 {
		return "Assign " + c.items()
	}
	return fmt.Sprintf("Assign %s to %s", c.items(), joinNames(names))
}

func (c *Assign) Confirmation() string { return c.Title() }

func (c *Assign) Execute(ctx context.Context, app Applier) (Result, error) {
	if err := c.check(); err != nil {
		return Result{}, err
	}
	if len(c.AssigneeIDs) == 0 {
		return Result{}, fmt.Errorf("%w: no assignee in %q", ErrUnresolvedTarget, c.Line)
	}
	added, err := app.Assign(ctx, c.ItemIDs, c.AssigneeIDs)
	if err != nil {
		return Result{}, err
	}
	c.added = added
	return Result{Message: c.Title()}, nil
}

func (c *Assign) Undo(ctx context.Context, app Applier) (Result, error) {
	if len(c.added) == 0 {
		return Result{}, nil
	}
	if err := app.Unassign(ctx, c.added); err != nil {
		return Result{}, err
	}
	c.added = nil
	return Result{Message: "Undo: " + c.Title()}, nil
}

// Tag attaches a tag, by title, to the captured items. The tag is created
// if it does not exist.
type Tag struct {
	Base
	bulk
	TagTitle string

	tagID  string
	tagged []int
}

func (c *Tag) Kind() Kind { return KindTag }

func (c *Tag) Title() string {
	return fmt.Sprintf("Tag %s with #%s", c.items(), c.TagTitle)
}

func (c *Tag) Confirmation() string { return c.Title() }

func (c *Tag) Execute(ctx context.Context, app Applier) (Result, error) {
	if err := c.check(); err != nil {
		return Result{}, err
	}
	if c.TagTitle == "" {
		return Result{}, fmt.Errorf("%w: no tag in %q", ErrUnresolvedTarget, c.Line)
	}
	tag, tagged, err := app.TagItems(ctx, c.ItemIDs, c.TagTitle)
	if err != nil {
		return Result{}, err
	}
	c.tagID, c.tagged = tag.ID, tagged
	return Result{Message: c.Title()}, nil
}

func (c *Tag) Undo(ctx context.Context, app Applier) (Result, error) {
	if len(c.tagged) == 0 {
		return Result{}, nil
	}
	if err := app.Untag(ctx, c.tagID, c.tagged); err != nil {
		return Result{}, err
	}
	c.tagged = nil
	return Result{Message: "Undo: " + c.Title()}, nil
}

// Close closes the captured items with an optional reason.
type Close struct {
	Base
	bulk
	Reason string

	closed []int
}

func (c *Close) Kind() Kind { return KindClose }

func (c *Close) Title() string { return "Close " + c.items() }

func (c *Close) Confirmation() string { return c.Title() }

func (c *Close) Execute(ctx context.Context, app Applier) (Result, error) {
	if err := c.check(); err != nil {
		return Result{}, err
	}
	closed, err := app.Close(ctx, c.Actor.ID, c.ItemIDs, c.Reason)
	if err != nil {
		return Result{}, err
	}
	c.closed = closed
	return Result{Message: c.Title()}, nil
}

func (c *Close) Undo(ctx context.Context, app Applier) (Result, error) {
	if len(c.closed) == 0 {
		return Result{}, nil
	}
	if _, err := app.Reopen(ctx, c.closed); err != nil {
		return Result{}, err
	}
	c.closed = nil
	return Result{Message: "Undo: " + c.Title()}, nil
}

// Reopen reopens the captured items.
type Reopen struct {
	Base
	bulk
}

func (c *Reopen) Kind() Kind { return KindReopen }

func (c *Reopen) Title() string { return "Reopen " + c.items() }

func (c *Reopen) Confirmation() string { return c.Title() }

func (c *Reopen) Execute(ctx context.Context, app Applier) (Result, error) {
	if err := c.check(); err != nil {
		return Result{}, err
	}
	if _, err := app.Reopen(ctx, c.ItemIDs); err != nil {
		return Result{}, err
	}
	return Result{Message: c.Title()}, nil
}

// Undo is a no-op: the reason and closer of a reopened item are gone.
func (c *Reopen) Undo(context.Context, Applier) (Result, error) {
	return Result{}, nil
}

// Stage moves the captured items to a workflow stage.
type Stage struct {
	Base
	bulk
	StageID string
	// StageName is the name typed, kept for messages when StageID is empty.
	StageName string

	prior map[int]string
}

func (c *Stage) Kind() Kind { return KindStage }

func (c *Stage) Title() string {
	name, ok := c.stageName(c.StageID)
	if !ok {
		name = c.StageName
	}
	return fmt.Sprintf("Move %s to %s", c.items(), name)
}

func (c *Stage) Confirmation() string { return c.Title() }

func (c *Stage) Execute(ctx context.Context, app Applier) (Result, error) {
	if err := c.check(); err != nil {
		return Result{}, err
	}
	if c.StageID == "" {
		return Result{}, fmt.Errorf("%w: no stage matches %q", ErrUnresolvedTarget, c.StageName)
	}
	prior, err := app.MoveToStage(ctx, c.ItemIDs, c.StageID)
	if err != nil {
		return Result{}, err
	}
	c.prior = prior
	return Result{Message: c.Title()}, nil
}

// Undo puts every item back in the stage it had before, even when the
// items started in different stages.
func (c *Stage) Undo(ctx context.Context, app Applier) (Result, error) {
	if len(c.prior) == 0 {
		return Result{}, nil
	}
	if err := app.RestoreStages(ctx, c.prior); err != nil {
		return Result{}, err
	}
	logging.CommandDebug("Restored stages of items %v", sortedKeys(c.prior))
	c.prior = nil
	return Result{Message: "Undo: " + c.Title()}, nil
}

// Engage moves the captured items to considering or doing. Engagement is
// not a workflow stage.
type Engage struct {
	Base
	bulk
	Engagement tracker.Engagement

	prior map[int]tracker.Engagement
}

func (c *Engage) Kind() Kind {
	if c.Engagement == tracker.EngagementDoing {
		return KindDo
	}
	return KindConsider
}

func (c *Engage) Title() string {
	return fmt.Sprintf("Move %s to %s", c.items(), c.Engagement.Title())
}

func (c *Engage) Confirmation() string { return c.Title() }

func (c *Engage) Execute(ctx context.Context, app Applier) (Result, error) {
	if err := c.check(); err != nil {
		return Result{}, err
	}
	prior, err := app.Engage(ctx, c.ItemIDs, c.Engagement)
	if err != nil {
		return Result{}, err
	}
	c.prior = prior
	return Result{Message: c.Title()}, nil
}

func (c *Engage) Undo(ctx context.Context, app Applier) (Result, error) {
	if len(c.prior) == 0 {
		return Result{}, nil
	}
	if err := app.RestoreEngagement(ctx, c.prior); err != nil {
		return Result{}, err
	}
	c.prior = nil
	return Result{Message: "Undo: " + c.Title()}, nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
