package command

import (
	"context"

	"cmdbar/internal/store"
	"cmdbar/internal/tracker"
)

// Applier performs the domain effects of commands. Every mutating call
// reports what it actually changed so the command can undo exactly that.
type Applier interface {
	// Atomically runs fn as one transaction; an error rolls back every
	// change fn made. Calls must not nest.
	Atomically(ctx context.Context, fn func(ctx context.Context) error) error

	Assign(ctx context.Context, itemIDs []int, personIDs []string) ([]tracker.Assignment, error)
	Unassign(ctx context.Context, assignments []tracker.Assignment) error

	TagItems(ctx context.Context, itemIDs []int, title string) (tracker.Tag, []int, error)
	Untag(ctx context.Context, tagID string, itemIDs []int) error

	Close(ctx context.Context, actorID string, itemIDs []int, reason string) ([]int, error)
	Reopen(ctx context.Context, itemIDs []int) ([]int, error)

	MoveToStage(ctx context.Context, itemIDs []int, stageID string) (map[int]string, error)
	RestoreStages(ctx context.Context, prior map[int]string) error

	Engage(ctx context.Context, itemIDs []int, engagement tracker.Engagement) (map[int]tracker.Engagement, error)
	RestoreEngagement(ctx context.Context, prior map[int]tracker.Engagement) error

	CreateItem(ctx context.Context, actorID, collectionID, title string) (tracker.Item, error)
}

var _ Applier = (*store.Memory)(nil)
