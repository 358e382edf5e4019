// Package view derives what the user was looking at when they typed a
// command: the recognized route of the originating URL, the bounded set of
// items that view shows, and name resolution for the entities a command
// line may mention.
package view

import (
	"net/url"
	"strconv"
	"sync"

	"cmdbar/internal/gid"
	"cmdbar/internal/logging"
	"cmdbar/internal/routing"
	"cmdbar/internal/store"
	"cmdbar/internal/tracker"
)

// MaxItems caps the item set of any view.
const MaxItems = 75

// View descriptions, as shown to the translator and used in its cache key.
const (
	DescriptionInsideItem = "inside an item"
	DescriptionItemList   = "viewing a list of items"
	DescriptionNoItems    = "not viewing items"
)

// Context is the view a command line was typed in.
type Context struct {
	Actor  tracker.Person
	URL    string
	Prefix string
	Route  routing.Route

	dir     store.Directory
	locator *gid.Locator

	itemsOnce sync.Once
	items     []tracker.Item
}

// New resolves rawURL (carrying the tenant path prefix) into a view for
// actor. It never fails: unrecognized URLs yield a view with no items.
func New(dir store.Directory, actor tracker.Person, rawURL, prefix string) *Context {
	route, err := routing.RecognizeURL(rawURL, prefix)
	if err != nil {
		logging.RoutingWarn("Unrecognized view %q: %v", rawURL, err)
		route = routing.Route{Params: url.Values{}}
	}
	logging.ViewDebug("View for %s: %s#%s %v", actor.ID, route.Resource, route.Action, route.Params)

	return &Context{
		Actor:   actor,
		URL:     rawURL,
		Prefix:  prefix,
		Route:   route,
		dir:     dir,
		locator: NewLocator(dir),
	}
}

// WithURL returns a view of rawURL for the same actor, prefix and directory.
func (c *Context) WithURL(rawURL string) *Context {
	return New(c.dir, c.Actor, rawURL, c.Prefix)
}

// Directory exposes the lookups behind this view.
func (c *Context) Directory() store.Directory {
	return c.dir
}

// Locator resolves global references against this view's directory.
func (c *Context) Locator() *gid.Locator {
	return c.locator
}

// ActorRef is the durable global reference of the actor.
func (c *Context) ActorRef() string {
	return gid.New(gid.KindPerson, c.Actor.ID).String()
}

// IsViewingSingleItem reports whether the view is one item's page.
func (c *Context) IsViewingSingleItem() bool {
	return c.Route.Resource == routing.ResourceItems && c.Route.Action == routing.ActionShow
}

// IsViewingItemList reports whether the view lists items, including
// search results.
func (c *Context) IsViewingItemList() bool {
	return c.isViewingItemIndex() || c.isViewingSearchResults()
}

func (c *Context) isViewingItemIndex() bool {
	return c.Route.Resource == routing.ResourceItems && c.Route.Action == routing.ActionIndex
}

func (c *Context) isViewingSearchResults() bool {
	return c.Route.Resource == routing.ResourceSearchResults && c.Route.Action == routing.ActionShow
}

// Description names the kind of view for the translator.
func (c *Context) Description() string {
	switch {
	case c.IsViewingSingleItem():
		return DescriptionInsideItem
	case c.IsViewingItemList():
		return DescriptionItemList
	default:
		return DescriptionNoItems
	}
}

// Filter is the actor's active list filter: the view's parameters over the
// list defaults. A collection-scoped list narrows to that collection.
func (c *Context) Filter() tracker.Filter {
	f := tracker.FilterFromParams(c.Route.Params)
	if id := c.Route.Params.Get("collection_id"); id != "" && len(f.CollectionIDs) == 0 {
		f.CollectionIDs = []string{id}
	}
	return f.WithDefaults()
}

// Items is the bounded item set the view shows. It is computed once.
func (c *Context) Items() []tracker.Item {
	c.itemsOnce.Do(func() {
		c.items = c.loadItems()
		if len(c.items) > MaxItems {
			c.items = c.items[:MaxItems]
		}
		logging.ViewDebug("View %s#%s scoped %d items", c.Route.Resource, c.Route.Action, len(c.items))
	})
	return c.items
}

// ItemIDs lists the ids of Items.
func (c *Context) ItemIDs() []int {
	items := c.Items()
	ids := make([]int, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func (c *Context) loadItems() []tracker.Item {
	switch {
	case c.IsViewingSingleItem():
		id, err := strconv.Atoi(c.Route.Params.Get("id"))
		if err != nil {
			return nil
		}
		if item, ok := c.dir.AccessibleItem(c.Actor.ID, id); ok {
			return []tracker.Item{item}
		}
		return nil
	case c.isViewingItemIndex():
		return c.dir.FilterItems(c.Actor.ID, c.Filter(), MaxItems)
	case c.isViewingSearchResults():
		return c.dir.SearchItems(c.Actor.ID, c.Route.Params.Get("q"), MaxItems)
	default:
		return nil
	}
}

// Collections lists the collections the actor can see.
func (c *Context) Collections() []tracker.Collection {
	var out []tracker.Collection
	for _, col := range c.dir.Collections() {
		if col.AccessibleBy(c.Actor.ID) {
			out = append(out, col)
		}
	}
	return out
}

// CandidateStages lists the stages of workflows used by the actor's
// collections.
func (c *Context) CandidateStages() []tracker.Stage {
	workflows := make(map[string]bool)
	for _, col := range c.Collections() {
		if col.WorkflowID != "" {
			workflows[col.WorkflowID] = true
		}
	}

	var out []tracker.Stage
	for _, s := range c.dir.Stages() {
		if workflows[s.WorkflowID] {
			out = append(out, s)
		}
	}
	return out
}
