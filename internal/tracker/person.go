package tracker

import (
	"strings"

	"github.com/gosimple/slug"
)

// FirstName returns the first word of the person's name.
func (p Person) FirstName() string {
	fields := strings.Fields(p.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Initials returns the lowercase initials of a multi-word name ("jz" for
// "Jason Zimdars"). Single-word names have no initials.
func (p Person) Initials() string {
	fields := strings.Fields(p.Name)
	if len(fields) < 2 {
		return ""
	}
	var sb strings.Builder
	for _, f := range fields {
		r := []rune(f)
		sb.WriteString(strings.ToLower(string(r[0])))
	}
	return sb.String()
}

// MentionableHandles lists the lowercase handles that identify the person in
// an @mention: first name, initials, and the slugged full name.
func (p Person) MentionableHandles() []string {
	var handles []string
	add := func(h string) {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			return
		}
		for _, existing := range handles {
			if existing == h {
				return
			}
		}
		handles = append(handles, h)
	}

	add(p.FirstName())
	add(p.Initials())
	add(slug.Make(p.Name))
	return handles
}
