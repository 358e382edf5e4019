package view

import (
	"testing"

	"cmdbar/internal/gid"

	"github.com/stretchr/testify/assert"
)

func TestFindPerson(t *testing.T) {
	ctx := New(demo(t), kevin, "/items", "")

	tests := []struct {
		ref    string
		wantID string
		found  bool
	}{
		{"@kevin", "kevin", true},
		{"Kevin McConnell", "kevin", true},
		{"KM", "kevin", true},
		{"@jason-zimdars", "jz", true},
		{"jz", "jz", true},
		{gid.New(gid.KindPerson, "david").String(), "david", true},
		{gid.New(gid.KindTag, "design").String(), "", false},
		{gid.New(gid.KindPerson, "ghost").String(), "", false},
		{"@some_missing_user", "", false},
		{"@", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			p, ok := ctx.FindPerson(tt.ref)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.wantID, p.ID)
		})
	}
}

func TestFindTag(t *testing.T) {
	ctx := New(demo(t), kevin, "/items", "")

	tag, ok := ctx.FindTag("#DESIGN")
	assert.True(t, ok)
	assert.Equal(t, "design", tag.ID)

	tag, ok = ctx.FindTag(gid.New(gid.KindTag, "v2").String())
	assert.True(t, ok)
	assert.Equal(t, "v2", tag.Title)

	_, ok = ctx.FindTag("#des")
	assert.False(t, ok, "tags match whole titles only")
}

func TestFindStage(t *testing.T) {
	ctx := New(demo(t), kevin, "/items", "")

	stage, ok := ctx.FindStage("qa")
	assert.True(t, ok)
	assert.Equal(t, "triage-qa", stage.ID)

	stage, ok = ctx.FindStage("PROGRESS")
	assert.True(t, ok)
	assert.Equal(t, "triage-progress", stage.ID)

	_, ok = ctx.FindStage("  ")
	assert.False(t, ok)
	_, ok = ctx.FindStage("shipping")
	assert.False(t, ok)
}

func TestFindCollection(t *testing.T) {
	m := demo(t)

	col, ok := New(m, kevin, "/", "").FindCollection("WRITE")
	assert.True(t, ok)
	assert.Equal(t, "writebook", col.ID)

	_, ok = New(m, kevin, "/", "").FindCollection("private")
	assert.False(t, ok, "collections outside the actor's access are not resolved")

	_, ok = New(m, david, "/", "").FindCollection("private")
	assert.True(t, ok)
}
