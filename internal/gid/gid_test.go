package gid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndString(t *testing.T) {
	ref, err := Parse("gid://cmdbar/Person/7f3c?tenant=42")
	require.NoError(t, err)
	assert.Equal(t, Ref{App: "cmdbar", Kind: KindPerson, ID: "7f3c", Tenant: "42"}, ref)
	assert.Equal(t, "gid://cmdbar/Person/7f3c?tenant=42", ref.String())

	assert.Equal(t, "gid://cmdbar/Tag/abc", New(KindTag, "abc").String())
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, s := range []string{
		"",
		"Person/1",
		"gid://",
		"gid://cmdbar/Person",
		"gid://cmdbar/Person/",
		"gid://cmdbar/Person/1/extra",
	} {
		t.Run(s, func(t *testing.T) {
			_, err := Parse(s)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

type tag struct{ title string }

func TestLocatorDispatchesOnKind(t *testing.T) {
	l := NewLocator()
	Register(l, KindTag, func(id string) (tag, bool) {
		if id == "t1" {
			return tag{title: "design"}, true
		}
		return tag{}, false
	})

	located, ok := l.Locate("gid://cmdbar/Tag/t1")
	require.True(t, ok)
	assert.Equal(t, KindTag, located.Ref.Kind)

	got, ok := As[tag](located)
	require.True(t, ok)
	assert.Equal(t, "design", got.title)

	_, ok = As[string](located)
	assert.False(t, ok)
}

func TestLocatorNeverFailsLoudly(t *testing.T) {
	l := NewLocator()
	Register(l, KindTag, func(id string) (tag, bool) { return tag{}, false })

	tests := []string{
		"gid://cmdbar/Tag/missing",
		"gid://cmdbar/Item/12",
		"gid://otherapp/Tag/t1",
		"not a reference",
	}
	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			_, ok := l.Locate(s)
			assert.False(t, ok)
		})
	}

	assert.True(t, l.Supports(KindTag))
	assert.False(t, l.Supports(KindWorkflow))
}
