// Package command turns a command-bar line into executable commands and runs
// them. A line is first matched against a fixed slash-command grammar; lines
// the grammar cannot place are handed to a natural-language translator whose
// output is parsed back through the grammar alone.
package command

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"cmdbar/internal/routing"
	"cmdbar/internal/tracker"
	"cmdbar/internal/view"
)

// Kind names a command type.
type Kind string

const (
	KindAssign       Kind = "assign"
	KindTag          Kind = "tag"
	KindClose        Kind = "close"
	KindReopen       Kind = "reopen"
	KindStage        Kind = "stage"
	KindConsider     Kind = "consider"
	KindDo           Kind = "do"
	KindAddItem      Kind = "add_item"
	KindSearch       Kind = "search"
	KindVisitURL     Kind = "visit_url"
	KindGoToUser     Kind = "go_to_user"
	KindGoToItem     Kind = "go_to_item"
	KindFilterItems  Kind = "filter_items"
	KindFilterByTag  Kind = "filter_by_tag"
	KindClearFilters Kind = "clear_filters"
	KindComposite    Kind = "composite"
)

var (
	// ErrUnresolvedTarget is returned at execution when the person, tag,
	// stage, collection or URL a command acts on resolved to nothing.
	ErrUnresolvedTarget = errors.New("command target could not be resolved")

	// ErrNoItems is returned when a bulk command has no items to act on.
	ErrNoItems = errors.New("no items to act on")
)

// Result is what executing or undoing a command reports back.
type Result struct {
	Message  string
	Redirect string
}

// Command is a parsed command-bar action.
type Command interface {
	Kind() Kind
	// Title describes the command in the present tense.
	Title() string
	// Meta exposes who issued the command, from where, with what line.
	Meta() *Base

	NeedsConfirmation() bool
	// Confirmation is the question to ask before executing; empty when
	// NeedsConfirmation is false.
	Confirmation() string

	Execute(ctx context.Context, app Applier) (Result, error)
	// Undo reverts Execute where the effect is exactly reversible and is a
	// no-op otherwise.
	Undo(ctx context.Context, app Applier) (Result, error)
}

// Base carries what every command knows about its origin.
type Base struct {
	Actor   tracker.Person
	Line    string
	Context *view.Context
	Prefix  string
}

// Meta returns b.
func (b *Base) Meta() *Base { return b }

// path prefixes an application path with the tenant prefix.
func (b *Base) path(p string) string {
	return routing.WithPrefix(b.Prefix, p)
}

func (b *Base) personName(id string) string {
	if b.Context != nil {
		if p, ok := b.Context.Directory().Person(id); ok {
			return p.FirstName()
		}
	}
	return id
}

func (b *Base) stageName(id string) (string, bool) {
	if b.Context != nil && id != "" {
		if s, ok := b.Context.Directory().Stage(id); ok {
			return s.Name, true
		}
	}
	return "", false
}

// stamp fills the origin fields of cmd that are still unset.
func stamp(cmd Command, vctx *view.Context, line string) {
	b := cmd.Meta()
	if b.Actor.ID == "" {
		b.Actor = vctx.Actor
	}
	if b.Line == "" {
		b.Line = line
	}
	if b.Context == nil {
		b.Context = vctx
	}
	if b.Prefix == "" {
		b.Prefix = vctx.Prefix
	}
}

// immediate commands run without confirmation and have no undo.
type immediate struct{}

func (immediate) NeedsConfirmation() bool { return false }
func (immediate) Confirmation() string    { return "" }

func (immediate) Undo(context.Context, Applier) (Result, error) {
	return Result{}, nil
}

// bulk commands act on the item set captured when they were parsed.
type bulk struct {
	ItemIDs []int
}

func (b bulk) NeedsConfirmation() bool { return len(b.ItemIDs) > 1 }

func (b bulk) items() string {
	return tracker.Pluralize(len(b.ItemIDs), "item")
}

func (b bulk) check() error {
	if len(b.ItemIDs) == 0 {
		return ErrNoItems
	}
	return nil
}

// Node is a printable view of a command tree.
type Node struct {
	Kind     Kind   `json:"kind"`
	Title    string `json:"title"`
	Line     string `json:"line,omitempty"`
	Items    []int  `json:"items,omitempty"`
	Confirm  bool   `json:"needs_confirmation,omitempty"`
	Children []Node `json:"children,omitempty"`
}

// Describe returns the tree of cmd.
func Describe(cmd Command) Node {
	n := Node{
		Kind:    cmd.Kind(),
		Title:   cmd.Title(),
		Line:    cmd.Meta().Line,
		Confirm: cmd.NeedsConfirmation(),
	}
	if ids, ok := itemsOf(cmd); ok {
		n.Items = ids
	}
	if c, ok := cmd.(*Composite); ok {
		for _, child := range c.Commands {
			n.Children = append(n.Children, Describe(child))
		}
	}
	return n
}

func itemsOf(cmd Command) ([]int, bool) {
	switch c := cmd.(type) {
	case *Assign:
		return c.ItemIDs, true
	case *Tag:
		return c.ItemIDs, true
	case *Close:
		return c.ItemIDs, true
	case *Reopen:
		return c.ItemIDs, true
	case *Stage:
		return c.ItemIDs, true
	case *Engage:
		return c.ItemIDs, true
	case *FilterItems:
		return c.ItemIDs, true
	}
	return nil, false
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}

func quoteIfSet(s string) string {
	if s == "" {
		return ""
	}
	return " " + strconv.Quote(s)
}
