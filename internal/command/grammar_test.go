package command

import (
	"testing"
	"time"

	"cmdbar/internal/gid"
	"cmdbar/internal/store"
	"cmdbar/internal/tracker"
	"cmdbar/internal/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testNow = time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)
	kevin   = tracker.Person{ID: "kevin", Name: "Kevin McConnell"}
)

func demo(t *testing.T) *store.Memory {
	t.Helper()
	m := store.NewMemory(store.DemoWorld(testNow))
	m.Now = func() time.Time { return testNow }
	return m
}

func viewAt(m *store.Memory, url string) *view.Context {
	return view.New(m, kevin, url, "")
}

func TestParseGrammarKeywords(t *testing.T) {
	m := demo(t)

	tests := []struct {
		name  string
		url   string
		line  string
		kind  Kind
		check func(t *testing.T, cmd Command)
	}{
		{"assign on item", "/items/2", "/assign kevin", KindAssign, func(t *testing.T, cmd Command) {
			c := cmd.(*Assign)
			assert.Equal(t, []string{"kevin"}, c.AssigneeIDs)
			assert.Equal(t, []int{2}, c.ItemIDs)
			assert.False(t, c.NeedsConfirmation())
		}},
		{"assign several on list", "/items", "/assignto @kevin @jz kevin", KindAssign, func(t *testing.T, cmd Command) {
			c := cmd.(*Assign)
			assert.Equal(t, []string{"kevin", "jz"}, c.AssigneeIDs)
			assert.ElementsMatch(t, []int{1, 2, 3, 4}, c.ItemIDs)
			assert.True(t, c.NeedsConfirmation())
			assert.Equal(t, "Assign 4 items to Kevin and Jason", c.Confirmation())
		}},
		{"keywords are case-insensitive", "/items/2", "/ASSIGN kevin", KindAssign, nil},
		{"close with reason", "/items/2", "/close duplicate of 3", KindClose, func(t *testing.T, cmd Command) {
			c := cmd.(*Close)
			assert.Equal(t, "duplicate of 3", c.Reason)
			assert.Equal(t, "Close 1 item", c.Title())
		}},
		{"reopen", "/items/2", "/reopen", KindReopen, nil},
		{"consider", "/items/2", "/consider", KindConsider, nil},
		{"reconsider", "/items/2", "/reconsider", KindConsider, nil},
		{"do", "/items?assignee_ids[]=jz", "/do", KindDo, func(t *testing.T, cmd Command) {
			assert.Equal(t, "Move 2 items to Doing", cmd.Confirmation())
		}},
		{"stage by partial name", "/items", "/stage qa", KindStage, func(t *testing.T, cmd Command) {
			c := cmd.(*Stage)
			assert.Equal(t, "triage-qa", c.StageID)
			assert.Equal(t, "Move 4 items to QA review", c.Confirmation())
		}},
		{"stage unknown", "/items/2", "/stage shipped", KindStage, func(t *testing.T, cmd Command) {
			c := cmd.(*Stage)
			assert.Empty(t, c.StageID)
			assert.Equal(t, "shipped", c.StageName)
		}},
		{"tag existing", "/items/2", "/tag #v2", KindTag, func(t *testing.T, cmd Command) {
			assert.Equal(t, "v2", cmd.(*Tag).TagTitle)
		}},
		{"tag new", "/items/2", "/tag release", KindTag, func(t *testing.T, cmd Command) {
			assert.Equal(t, "release", cmd.(*Tag).TagTitle)
		}},
		{"search", "/items", "/search broken layout", KindSearch, func(t *testing.T, cmd Command) {
			assert.Equal(t, "broken layout", cmd.(*Search).Terms)
		}},
		{"user", "/items", "/user jason zimdars", KindGoToUser, func(t *testing.T, cmd Command) {
			assert.Equal(t, "jz", cmd.(*GoToUser).UserID)
		}},
		{"mention", "/items", "@jz", KindGoToUser, func(t *testing.T, cmd Command) {
			assert.Equal(t, "jz", cmd.(*GoToUser).UserID)
		}},
		{"hashtag", "/items", "#design", KindFilterByTag, func(t *testing.T, cmd Command) {
			c := cmd.(*FilterByTag)
			assert.Equal(t, "design", c.TagTitle)
			assert.Equal(t, tracker.DefaultIndexedBy, c.Params.IndexedBy)
		}},
		{"visit", "/items", "/visit /account/settings", KindVisitURL, func(t *testing.T, cmd Command) {
			assert.Equal(t, "/account/settings", cmd.(*VisitURL).URL)
		}},
		{"add guesses the item's collection", "/items/2", "/add Fix the header", KindAddItem, func(t *testing.T, cmd Command) {
			c := cmd.(*AddItem)
			assert.Equal(t, "Fix the header", c.ItemTitle)
			assert.Equal(t, "writebook", c.CollectionID)
		}},
		{"add outside items", "/account/settings", "/add Plan", KindAddItem, func(t *testing.T, cmd Command) {
			assert.Equal(t, "writebook", cmd.(*AddItem).CollectionID)
		}},
		{"clear", "/items?tag_ids[]=design", "/clear", KindClearFilters, func(t *testing.T, cmd Command) {
			assert.Equal(t, []string{"design"}, cmd.(*ClearFilters).Params.TagIDs)
		}},
		{"item list skips inaccessible ids", "/items", "1, 2, 5", KindFilterItems, func(t *testing.T, cmd Command) {
			assert.Equal(t, []int{1, 2}, cmd.(*FilterItems).ItemIDs)
		}},
		{"item list dedupes and sorts", "/items", "3 1 3", KindFilterItems, func(t *testing.T, cmd Command) {
			assert.Equal(t, []int{1, 3}, cmd.(*FilterItems).ItemIDs)
		}},
		{"single item", "/items", "2", KindGoToItem, func(t *testing.T, cmd Command) {
			assert.Equal(t, 2, cmd.(*GoToItem).ItemID)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, decision := ParseGrammar(tt.line, viewAt(m, tt.url))
			require.Equal(t, DecisionMatched, decision)
			require.NotNil(t, cmd)
			assert.Equal(t, tt.kind, cmd.Kind())
			if tt.check != nil {
				tt.check(t, cmd)
			}
		})
	}
}

func TestParseGrammarDecisions(t *testing.T) {
	m := demo(t)

	tests := []struct {
		name string
		line string
		want Decision
	}{
		{"blank", "   ", DecisionNoCommand},
		{"empty", "", DecisionNoCommand},
		{"free text", "assign everything to kevin", DecisionUnmatched},
		{"unknown keyword", "/archive", DecisionUnmatched},
		{"inaccessible item", "5", DecisionUnmatched},
		{"missing item", "99", DecisionUnmatched},
		{"item list with nothing accessible", "5, 99", DecisionUnmatched},
		{"item reference", gid.New(gid.KindItem, "2").String(), DecisionNoCommand},
		{"stage reference", gid.New(gid.KindStage, "triage-qa").String(), DecisionNoCommand},
		{"unlocatable reference", gid.New(gid.KindPerson, "nobody").String(), DecisionNoCommand},
		{"person reference", gid.New(gid.KindPerson, "kevin").String(), DecisionMatched},
		{"tag reference", gid.New(gid.KindTag, "mobile").String(), DecisionMatched},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, decision := ParseGrammar(tt.line, viewAt(m, "/items"))
			assert.Equal(t, tt.want, decision)
			assert.Equal(t, tt.want == DecisionMatched, cmd != nil)
		})
	}
}

func TestParseGrammarDispatchesReferences(t *testing.T) {
	vctx := viewAt(demo(t), "/items")

	cmd, _ := ParseGrammar(gid.New(gid.KindPerson, "jz").String(), vctx)
	require.IsType(t, &GoToUser{}, cmd)
	assert.Equal(t, "jz", cmd.(*GoToUser).UserID)

	cmd, _ = ParseGrammar(gid.New(gid.KindTag, "mobile").String(), vctx)
	require.IsType(t, &FilterByTag{}, cmd)
	assert.Equal(t, "mobile", cmd.(*FilterByTag).TagTitle)
}

func TestParseGrammarStampsOrigin(t *testing.T) {
	m := demo(t)
	vctx := view.New(m, kevin, "/123/items/2", "/123")

	cmd, decision := ParseGrammar("  /close   for good ", vctx)
	require.Equal(t, DecisionMatched, decision)

	meta := cmd.Meta()
	assert.Equal(t, kevin, meta.Actor)
	assert.Equal(t, "/close for good", meta.Line)
	assert.Same(t, vctx, meta.Context)
	assert.Equal(t, "/123", meta.Prefix)
}

func TestRichTextAttachmentsMatchTheirReferences(t *testing.T) {
	m := demo(t)
	vctx := viewAt(m, "/items/2")
	ref := gid.New(gid.KindPerson, "jz").String()

	rich := `<div>/assign <cmdbar-attachment gid="` + ref + `"><figure>Jason Zimdars</figure></cmdbar-attachment></div>`
	fromRich, decision := ParseGrammar(rich, vctx)
	require.Equal(t, DecisionMatched, decision)

	fromRef, decision := ParseGrammar("/assign "+ref, vctx)
	require.Equal(t, DecisionMatched, decision)

	assert.Equal(t, fromRef.(*Assign).AssigneeIDs, fromRich.(*Assign).AssigneeIDs)
	assert.Equal(t, []string{"jz"}, fromRich.(*Assign).AssigneeIDs)
	assert.Equal(t, "/assign Jason Zimdars", fromRich.Meta().Line)
}

func TestRichTextPlainRendering(t *testing.T) {
	tests := []struct {
		in      string
		refs    string
		visible string
	}{
		{"  /close  ", "/close", "/close"},
		{"<p>/search</p><p>tom &amp; jerry</p>", "/search tom & jerry", "/search tom & jerry"},
		{`<cmdbar-attachment gid="gid://cmdbar/Tag/v2"/>`, "gid://cmdbar/Tag/v2", ""},
		{`<span data-x="1">#design</span>`, "#design", "#design"},
		{`<cmdbar-attachment gid="not-a-ref">kevin</cmdbar-attachment>`, "kevin", "kevin"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.refs, withAttachmentRefs(tt.in), tt.in)
		assert.Equal(t, tt.visible, asPlainText(tt.in), tt.in)
	}
}

func TestKeywordsSorted(t *testing.T) {
	kws := Keywords()
	assert.Len(t, kws, len(keywords))
	assert.IsIncreasing(t, kws)
	assert.Contains(t, kws, "/assign")
}
