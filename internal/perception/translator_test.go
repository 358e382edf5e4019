package perception

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"cmdbar/internal/cache"
	"cmdbar/internal/store"
	"cmdbar/internal/tracker"
	"cmdbar/internal/view"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNow = time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)
	kevin   = tracker.Person{ID: "kevin", Name: "Kevin McConnell"}
)

// scriptedClient replays canned responses and records every call.
type scriptedClient struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
	system    string
	user      string
}

func (c *scriptedClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

func (c *scriptedClient) CompleteWithSystem(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.system, c.user = systemPrompt, userPrompt
	if c.err != nil {
		return "", c.err
	}
	if len(c.responses) == 0 {
		return "", errors.New("no scripted response left")
	}
	resp := c.responses[0]
	if len(c.responses) > 1 {
		c.responses = c.responses[1:]
	}
	return resp, nil
}

func (c *scriptedClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func demoWorld(t *testing.T) *store.Memory {
	t.Helper()
	m := store.NewMemory(store.DemoWorld(testNow))
	m.Now = func() time.Time { return testNow }
	return m
}

func newTestTranslator(client LLMClient) (*Translator, *cache.Memory) {
	mem := cache.NewMemory(time.Hour)
	tr := NewTranslator(client, mem)
	tr.Now = func() time.Time { return testNow }
	return tr, mem
}

func TestTranslateCloseItemOnListView(t *testing.T) {
	client := &scriptedClient{responses: []string{`{"context":{"item_ids":[123]},"commands":["/close"]}`}}
	tr, _ := newTestTranslator(client)
	vctx := view.New(demoWorld(t), kevin, "/items", "")

	got, err := tr.Translate(context.Background(), "close 123", vctx)
	require.NoError(t, err)

	want := Translation{Context: &tracker.Filter{ItemIDs: []int{123}}, Commands: []string{"/close"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Translate() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "close 123", client.user, "the raw query is the user message")
}

func TestTranslateIsCachedPerActorQueryAndView(t *testing.T) {
	client := &scriptedClient{responses: []string{`{"commands":["/search 123"]}`}}
	tr, mem := newTestTranslator(client)
	m := demoWorld(t)
	list := view.New(m, kevin, "/items", "")

	first, err := tr.Translate(context.Background(), "123", list)
	require.NoError(t, err)
	second, err := tr.Translate(context.Background(), "123", view.New(m, kevin, "/search?q=x", ""))
	require.NoError(t, err)

	assert.Equal(t, 1, client.Calls(), "both views are lists of items")
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("cached translation differs (-first +second):\n%s", diff)
	}
	assert.Nil(t, first.Context)
	assert.Equal(t, []string{"/search 123"}, first.Commands)
	assert.Equal(t, 1, mem.Len())

	_, err = tr.Translate(context.Background(), "123", view.New(m, kevin, "/items/2", ""))
	require.NoError(t, err)
	assert.Equal(t, 2, client.Calls(), "a different view description misses")
}

func TestMalformedTranslationIsNeverCached(t *testing.T) {
	client := &scriptedClient{responses: []string{"sorry, no idea", `{"commands":["/search 123"]}`}}
	tr, mem := newTestTranslator(client)
	vctx := view.New(demoWorld(t), kevin, "/items", "")

	_, err := tr.Translate(context.Background(), "123", vctx)
	require.ErrorIs(t, err, ErrMalformedTranslation)
	assert.Equal(t, 0, mem.Len())

	got, err := tr.Translate(context.Background(), "123", vctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"/search 123"}, got.Commands)
	assert.Equal(t, 2, client.Calls(), "the retry reaches the model again")
}

func TestClientErrorsPropagate(t *testing.T) {
	client := &scriptedClient{err: errors.New("rate limited")}
	tr, mem := newTestTranslator(client)

	_, err := tr.Translate(context.Background(), "my items", view.New(demoWorld(t), kevin, "/items", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Equal(t, 0, mem.Len())
}

func TestActorPlaceholderIsSubstitutedOnEveryRead(t *testing.T) {
	client := &scriptedClient{responses: []string{`{"context":{"assignee_ids":["<cmdbar:ME>"]},"commands":["/assign <cmdbar:ME>"]}`}}
	tr, mem := newTestTranslator(client)
	vctx := view.New(demoWorld(t), kevin, "/items", "")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		got, err := tr.Translate(ctx, "assign my items to me", vctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"gid://cmdbar/Person/kevin"}, got.Context.AssigneeIDs)
		assert.Equal(t, []string{"/assign gid://cmdbar/Person/kevin"}, got.Commands)
	}
	assert.Equal(t, 1, client.Calls())

	raw, ok, err := mem.Get(ctx, CacheKey("kevin", "assign my items to me", view.DescriptionItemList))
	require.NoError(t, err)
	require.True(t, ok)
	var cached Translation
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.Equal(t, []string{MePlaceholder}, cached.Context.AssigneeIDs, "the cache keeps the portable placeholder")
}

func TestPromptDescribesViewAndInjectedData(t *testing.T) {
	client := &scriptedClient{responses: []string{`{"commands":["/search x"]}`}}
	tr, _ := newTestTranslator(client)
	vctx := view.New(demoWorld(t), kevin, "/123/items/2", "/123")

	_, err := tr.Translate(context.Background(), "x", vctx)
	require.NoError(t, err)

	prompt := client.system
	for _, want := range []string{
		"inside an item",
		"BEGIN OF CURRENT ITEM",
		"Item 2: Layout is broken on mobile",
		"BEGIN OF USER-INJECTED DATA",
		"* kevin mcconnell",
		"* Writebook",
		"* QA review",
		"/visit /account/settings",
		"/visit /users/kevin/edit",
		MePlaceholder,
		"Wed, 18 Jun 2025",
	} {
		assert.Contains(t, prompt, want)
	}
	assert.NotContains(t, prompt, "/123/", "the tenant prefix stays out of the prompt")
	assert.NotContains(t, prompt, "Private notes", "collections the actor cannot see stay out of the prompt")
	assert.NotContains(t, prompt, "{{", "every template slot is filled")
}

func TestInjectedListsAreCapped(t *testing.T) {
	w := store.DemoWorld(testNow)
	for i := 0; i < 150; i++ {
		w.People = append(w.People, tracker.Person{ID: store.NewID(), Name: "Extra Person"})
	}
	vctx := view.New(store.NewMemory(w), kevin, "/items", "")

	snap, err := takeSnapshot(context.Background(), vctx)
	require.NoError(t, err)
	assert.Len(t, snap.people, MaxInjectedElements)
	assert.Len(t, snap.stages, 3)
	assert.Equal(t, []string{"Writebook"}, snap.collections)
	assert.True(t, strings.HasPrefix(snap.people[0], "kevin"), "names are lowercased: %q", snap.people[0])
}
