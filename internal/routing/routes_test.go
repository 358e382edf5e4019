package routing

import (
	"testing"

	"cmdbar/internal/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecognize(t *testing.T) {
	tests := []struct {
		path     string
		resource string
		action   string
		params   map[string]string
	}{
		{"/", ResourceHome, ActionShow, nil},
		{"/items", ResourceItems, ActionIndex, nil},
		{"/items/12", ResourceItems, ActionShow, map[string]string{"id": "12"}},
		{"/collections/c1/items", ResourceItems, ActionIndex, map[string]string{"collection_id": "c1"}},
		{"/collections/c1/items/9/", ResourceItems, ActionShow, map[string]string{"collection_id": "c1", "id": "9"}},
		{"/collections/c1", ResourceCollections, ActionShow, map[string]string{"id": "c1"}},
		{"/search", ResourceSearchResults, ActionShow, nil},
		{"/users/u1/edit", ResourceUsers, ActionEdit, map[string]string{"id": "u1"}},
		{"/account/settings", ResourceAccountSettings, ActionShow, nil},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			route, ok := Recognize(tt.path)
			require.True(t, ok)
			assert.Equal(t, tt.resource, route.Resource)
			assert.Equal(t, tt.action, route.Action)
			for k, v := range tt.params {
				assert.Equal(t, v, route.Params.Get(k))
			}
		})
	}

	_, ok := Recognize("/nowhere/at/all")
	assert.False(t, ok)
}

func TestRecognizeURLStripsPrefixAndMergesQuery(t *testing.T) {
	route, err := RecognizeURL("https://example.com/123/items/7?q=zoom&id=999", "/123")
	require.NoError(t, err)

	assert.Equal(t, ResourceItems, route.Resource)
	assert.Equal(t, ActionShow, route.Action)
	assert.Equal(t, "7", route.Params.Get("id"), "path params win over query params")
	assert.Equal(t, "zoom", route.Params.Get("q"))
}

func TestRecognizeURLUnknownPath(t *testing.T) {
	_, err := RecognizeURL("/123/nope", "/123")
	assert.Error(t, err)
}

func TestRecognizeURLStripsPrefixOnSegmentBoundary(t *testing.T) {
	tests := []struct {
		url      string
		resource string
	}{
		{"/12", ResourceHome},
		{"/12/", ResourceHome},
		{"/12/items", ResourceItems},
	}
	for _, tt := range tests {
		route, err := RecognizeURL(tt.url, "/12")
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.resource, route.Resource, tt.url)
	}

	_, err := RecognizeURL("/123/items", "/12")
	assert.Error(t, err, "/123 is a different tenant")
}

func TestItemsPathRoundTrips(t *testing.T) {
	f := tracker.Filter{AssigneeIDs: []string{"p1"}, ItemIDs: []int{4}}

	route, err := RecognizeURL(ItemsPath(f), "")
	require.NoError(t, err)
	assert.Equal(t, ResourceItems, route.Resource)
	assert.Equal(t, ActionIndex, route.Action)
	assert.Equal(t, f, tracker.FilterFromParams(route.Params))

	assert.Equal(t, "/items", ItemsPath(tracker.Filter{}))
}

func TestWithPrefix(t *testing.T) {
	assert.Equal(t, "/123/items", WithPrefix("/123", "/items"))
	assert.Equal(t, "/123/items", WithPrefix("/123/", "/123/items"))
	assert.Equal(t, "/items", WithPrefix("", "/items"))
	assert.Equal(t, "https://x.test/a", WithPrefix("/123", "https://x.test/a"))
}
