package command

import (
	"context"
	"fmt"
	"strconv"

	"cmdbar/internal/routing"
	"cmdbar/internal/tracker"
)

// VisitURL redirects to a URL or application path. The AI parser also uses
// it to switch to a filtered item list before running generated commands.
type VisitURL struct {
	Base
	immediate
	URL string
}

func (c *VisitURL) Kind() Kind { return KindVisitURL }

func (c *VisitURL) Title() string { return "Visit " + c.URL }

func (c *VisitURL) Execute(context.Context, Applier) (Result, error) {
	if c.URL == "" {
		return Result{}, fmt.Errorf("%w: no URL in %q", ErrUnresolvedTarget, c.Line)
	}
	return Result{Redirect: c.path(c.URL)}, nil
}

// GoToUser opens a person's profile.
type GoToUser struct {
	Base
	immediate
	UserID string
}

func (c *GoToUser) Kind() Kind { return KindGoToUser }

func (c *GoToUser) Title() string {
	if c.UserID == "" {
		return "Go to user"
	}
	return "Go to " + c.personName(c.UserID)
}

func (c *GoToUser) Execute(context.Context, Applier) (Result, error) {
	if c.UserID == "" {
		return Result{}, fmt.Errorf("%w: no person matches %q", ErrUnresolvedTarget, c.Line)
	}
	return Result{Redirect: c.path(routing.UserPath(c.UserID))}, nil
}

// GoToItem opens one item.
type GoToItem struct {
	Base
	immediate
	ItemID int
}

func (c *GoToItem) Kind() Kind { return KindGoToItem }

func (c *GoToItem) Title() string { return "Go to item " + strconv.Itoa(c.ItemID) }

func (c *GoToItem) Execute(context.Context, Applier) (Result, error) {
	return Result{Redirect: c.path(routing.ItemPath(c.ItemID))}, nil
}

// Search shows full-text search results.
type Search struct {
	Base
	immediate
	Terms string
}

func (c *Search) Kind() Kind { return KindSearch }

func (c *Search) Title() string { return "Search" + quoteIfSet(c.Terms) }

func (c *Search) Execute(context.Context, Applier) (Result, error) {
	return Result{Redirect: c.path(routing.SearchPath(c.Terms))}, nil
}

// FilterItems narrows the current list to explicit item ids.
type FilterItems struct {
	Base
	immediate
	ItemIDs []int
	// Params is the list filter in effect when the command was parsed.
	Params tracker.Filter
}

func (c *FilterItems) Kind() Kind { return KindFilterItems }

func (c *FilterItems) Title() string {
	return "Show " + tracker.Pluralize(len(c.ItemIDs), "item")
}

func (c *FilterItems) Execute(context.Context, Applier) (Result, error) {
	f := c.Params.Merge(tracker.Filter{ItemIDs: c.ItemIDs})
	return Result{Redirect: c.path(routing.ItemsPath(f))}, nil
}

// FilterByTag narrows the current list to items with a tag.
type FilterByTag struct {
	Base
	immediate
	TagTitle string
	Params   tracker.Filter
}

func (c *FilterByTag) Kind() Kind { return KindFilterByTag }

func (c *FilterByTag) Title() string { return "Show items tagged #" + c.TagTitle }

func (c *FilterByTag) Execute(context.Context, Applier) (Result, error) {
	if c.Context == nil {
		return Result{}, fmt.Errorf("%w: no view to resolve #%s in", ErrUnresolvedTarget, c.TagTitle)
	}
	tag, ok := c.Context.FindTag(c.TagTitle)
	if !ok {
		return Result{}, fmt.Errorf("%w: no tag titled %q", ErrUnresolvedTarget, c.TagTitle)
	}
	f := c.Params.Merge(tracker.Filter{TagIDs: []string{tag.ID}})
	return Result{Redirect: c.path(routing.ItemsPath(f))}, nil
}

// ClearFilters drops every list filter. Undo goes back to the filter that
// was in effect.
type ClearFilters struct {
	Base
	Params tracker.Filter
}

func (c *ClearFilters) Kind() Kind { return KindClearFilters }

func (c *ClearFilters) Title() string { return "Clear filters" }

func (c *ClearFilters) NeedsConfirmation() bool { return false }

func (c *ClearFilters) Confirmation() string { return "" }

func (c *ClearFilters) Execute(context.Context, Applier) (Result, error) {
	return Result{Redirect: c.path(routing.ItemsPath(tracker.Filter{}))}, nil
}

func (c *ClearFilters) Undo(context.Context, Applier) (Result, error) {
	return Result{Message: "Restore filters", Redirect: c.path(routing.ItemsPath(c.Params))}, nil
}

// AddItem creates a draft item in a collection.
type AddItem struct {
	Base
	immediate
	ItemTitle    string
	CollectionID string
}

func (c *AddItem) Kind() Kind { return KindAddItem }

func (c *AddItem) Title() string { return "Add item" + quoteIfSet(c.ItemTitle) }

func (c *AddItem) Execute(ctx context.Context, app Applier) (Result, error) {
	if c.CollectionID == "" {
		return Result{}, fmt.Errorf("%w: no collection to add to", ErrUnresolvedTarget)
	}
	item, err := app.CreateItem(ctx, c.Actor.ID, c.CollectionID, c.ItemTitle)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Message:  fmt.Sprintf("Added item %d", item.ID),
		Redirect: c.path(routing.ItemPath(item.ID)),
	}, nil
}
