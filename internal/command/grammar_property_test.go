package command

import (
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var kindByKeyword = map[string]Kind{
	"/assign":     KindAssign,
	"/assignto":   KindAssign,
	"/clear":      KindClearFilters,
	"/close":      KindClose,
	"/reopen":     KindReopen,
	"/consider":   KindConsider,
	"/reconsider": KindConsider,
	"/do":         KindDo,
	"/add":        KindAddItem,
	"/search":     KindSearch,
	"/user":       KindGoToUser,
	"/stage":      KindStage,
	"/visit":      KindVisitURL,
	"/tag":        KindTag,
}

var propertyURLs = []interface{}{
	"/items",
	"/items/2",
	"/items/5",
	"/items?assignee_ids[]=jz",
	"/search?q=mobile",
	"/account/settings",
}

func TestKeywordKindDoesNotDependOnView(t *testing.T) {
	m := demo(t)

	var kws []interface{}
	for _, kw := range Keywords() {
		kws = append(kws, kw)
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("slash keyword decides the command kind", prop.ForAll(
		func(kw, url, arg string) bool {
			cmd, decision := ParseGrammar(kw+" "+arg, viewAt(m, url))
			return decision == DecisionMatched && cmd.Kind() == kindByKeyword[kw]
		},
		gen.OneConstOf(kws...),
		gen.OneConstOf(propertyURLs...),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestParseGrammarIsTotal(t *testing.T) {
	m := demo(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("every line gets exactly one decision", prop.ForAll(
		func(raw, url string) bool {
			cmd, decision := ParseGrammar(raw, viewAt(m, url))
			switch decision {
			case DecisionMatched:
				return cmd != nil && cmd.Meta().Actor == kevin
			case DecisionNoCommand, DecisionUnmatched:
				return cmd == nil
			}
			return false
		},
		gen.AnyString(),
		gen.OneConstOf(propertyURLs...),
	))

	properties.TestingRun(t)
}

func TestItemListsAreSortedAccessibleAndUnique(t *testing.T) {
	m := demo(t)
	vctx := viewAt(m, "/items")

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("item lists name each accessible item once, in order", prop.ForAll(
		func(ids []int) bool {
			if len(ids) < 2 {
				return true
			}
			parts := make([]string, len(ids))
			for i, id := range ids {
				parts[i] = strconv.Itoa(id)
			}
			cmd, decision := ParseGrammar(strings.Join(parts, ", "), vctx)
			if decision != DecisionMatched {
				for _, id := range ids {
					if id != 5 {
						return false
					}
				}
				return true
			}
			got := cmd.(*FilterItems).ItemIDs
			if !sort.IntsAreSorted(got) {
				return false
			}
			for i, id := range got {
				if id < 1 || id > 4 || (i > 0 && got[i-1] == id) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(1, 5)),
	))

	properties.TestingRun(t)
}
