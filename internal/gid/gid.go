// Package gid implements global references: opaque, typed, serializable
// pointers to domain entities of the form
//
//	gid://cmdbar/<Kind>/<id>[?tenant=<n>]
//
// A Locator resolves a reference to its entity through a registry keyed by
// Kind, so callers dispatch on the discriminator rather than on Go types.
package gid

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// App is the application segment of every reference this module emits.
const App = "cmdbar"

// Scheme prefix shared by every global reference.
const Scheme = "gid://"

// Kind discriminates the entity a reference points to.
type Kind string

const (
	KindPerson     Kind = "Person"
	KindTag        Kind = "Tag"
	KindItem       Kind = "Item"
	KindCollection Kind = "Collection"
	KindStage      Kind = "Stage"
	KindWorkflow   Kind = "Workflow"
)

// Kinds lists every entity kind a reference can carry.
var Kinds = []Kind{KindPerson, KindTag, KindItem, KindCollection, KindStage, KindWorkflow}

// ErrInvalid is returned for strings that are not well-formed references.
var ErrInvalid = errors.New("invalid global reference")

// Ref is a parsed global reference.
type Ref struct {
	App    string
	Kind   Kind
	ID     string
	Tenant string
}

// New builds a reference for this application.
func New(kind Kind, id string) Ref {
	return Ref{App: App, Kind: kind, ID: id}
}

// IsRef reports whether s looks like a global reference.
func IsRef(s string) bool {
	return strings.HasPrefix(s, Scheme)
}

// Parse decodes a reference string.
func Parse(s string) (Ref, error) {
	if !IsRef(s) {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	u, err := url.Parse(s)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if u.Host == "" || len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Ref{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	id, err := url.PathUnescape(parts[1])
	if err != nil {
		return Ref{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return Ref{
		App:    u.Host,
		Kind:   Kind(parts[0]),
		ID:     id,
		Tenant: u.Query().Get("tenant"),
	}, nil
}

// String renders the reference.
func (r Ref) String() string {
	app := r.App
	if app == "" {
		app = App
	}
	s := Scheme + app + "/" + string(r.Kind) + "/" + url.PathEscape(r.ID)
	if r.Tenant != "" {
		s += "?tenant=" + url.QueryEscape(r.Tenant)
	}
	return s
}

// WithTenant returns a copy scoped to tenant.
func (r Ref) WithTenant(tenant string) Ref {
	r.Tenant = tenant
	return r
}

// Located is the result of resolving a reference: the kind discriminator
// plus the entity it names.
type Located struct {
	Ref    Ref
	Entity any
}

// As extracts the located entity as T.
func As[T any](l Located) (T, bool) {
	v, ok := l.Entity.(T)
	return v, ok
}

type lookup func(id string) (any, bool)

// Locator resolves references through a registry of per-kind lookups.
type Locator struct {
	mu      sync.RWMutex
	lookups map[Kind]lookup
}

// NewLocator returns an empty locator.
func NewLocator() *Locator {
	return &Locator{lookups: make(map[Kind]lookup)}
}

// Register installs the lookup for kind, replacing any previous one.
func Register[T any](l *Locator, kind Kind, fn func(id string) (T, bool)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lookups[kind] = func(id string) (any, bool) {
		v, ok := fn(id)
		if !ok {
			return nil, false
		}
		return v, true
	}
}

// Supports reports whether a lookup is registered for kind.
func (l *Locator) Supports(kind Kind) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.lookups[kind]
	return ok
}

// Locate resolves s. It never fails loudly: malformed references, foreign
// applications, unregistered kinds and missing entities all report false.
func (l *Locator) Locate(s string) (Located, bool) {
	ref, err := Parse(s)
	if err != nil || ref.App != App {
		return Located{}, false
	}

	l.mu.RLock()
	fn, ok := l.lookups[ref.Kind]
	l.mu.RUnlock()
	if !ok {
		return Located{Ref: ref}, false
	}

	entity, ok := fn(ref.ID)
	if !ok {
		return Located{Ref: ref}, false
	}
	return Located{Ref: ref, Entity: entity}, true
}
