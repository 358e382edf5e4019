package command

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"cmdbar/internal/gid"
	"cmdbar/internal/logging"
	"cmdbar/internal/tracker"
	"cmdbar/internal/view"
)

// Decision is how the grammar placed a line.
type Decision int

const (
	// DecisionMatched means the grammar produced a command.
	DecisionMatched Decision = iota
	// DecisionNoCommand means the line is understood but maps to nothing,
	// such as a reference to an entity with no command.
	DecisionNoCommand
	// DecisionUnmatched means the grammar cannot place the line. Only the
	// Pipeline may hand such lines to the translator.
	DecisionUnmatched
)

func (d Decision) String() string {
	switch d {
	case DecisionMatched:
		return "matched"
	case DecisionNoCommand:
		return "no_command"
	case DecisionUnmatched:
		return "unmatched"
	default:
		return "unknown"
	}
}

// line is a tokenized command-bar line.
type line struct {
	text    string   // plain text with attachments as references
	keyword string   // first token
	args    []string // remaining tokens
}

func (l line) rest() string { return strings.Join(l.args, " ") }

type builder func(l line, vctx *view.Context) Command

// keywords maps each slash command to its builder.
var keywords = map[string]builder{
	"/assign":     buildAssign,
	"/assignto":   buildAssign,
	"/clear":      buildClear,
	"/close":      buildClose,
	"/reopen":     buildReopen,
	"/consider":   buildConsider,
	"/reconsider": buildConsider,
	"/do":         buildDo,
	"/add":        buildAdd,
	"/search":     buildSearch,
	"/user":       buildUser,
	"/stage":      buildStage,
	"/visit":      buildVisit,
	"/tag":        buildTag,
}

// Keywords lists the slash commands the grammar knows, sorted.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for k := range keywords {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// refDispatch maps the kind of a located global reference to a command.
// Kinds without an entry produce no command.
var refDispatch = map[gid.Kind]func(located gid.Located, vctx *view.Context) Command{
	gid.KindTag: func(located gid.Located, vctx *view.Context) Command {
		tag, _ := gid.As[tracker.Tag](located)
		return &FilterByTag{TagTitle: tag.Title, Params: vctx.Filter()}
	},
	gid.KindPerson: func(located gid.Located, _ *view.Context) Command {
		return &GoToUser{UserID: located.Ref.ID}
	},
}

var itemListPattern = regexp.MustCompile(`^[\d\s,]+$`)
var itemListSeparator = regexp.MustCompile(`[\s,]+`)

// ParseGrammar matches raw against the slash-command grammar in vctx. It
// never consults the translator. Matched commands are stamped with the
// actor, the plain-text line, vctx and its path prefix.
func ParseGrammar(raw string, vctx *view.Context) (Command, Decision) {
	text := withAttachmentRefs(raw)
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, DecisionNoCommand
	}
	l := line{text: text, keyword: fields[0], args: fields[1:]}

	cmd, decision := parseLine(l, vctx)
	if decision == DecisionMatched {
		stamp(cmd, vctx, asPlainText(raw))
		logging.ParserDebug("Grammar: %q -> %s", raw, cmd.Kind())
	} else {
		logging.ParserDebug("Grammar: %q -> %s", raw, decision)
	}
	return cmd, decision
}

func parseLine(l line, vctx *view.Context) (Command, Decision) {
	switch {
	case strings.HasPrefix(l.keyword, "#"):
		return &FilterByTag{TagTitle: tagTitle(l.text, vctx), Params: vctx.Filter()}, DecisionMatched
	case strings.HasPrefix(l.keyword, "@"):
		return &GoToUser{UserID: personID(l.text, vctx)}, DecisionMatched
	case strings.HasPrefix(l.keyword, "/"):
		if build, ok := keywords[strings.ToLower(l.keyword)]; ok {
			return build(l, vctx), DecisionMatched
		}
	case gid.IsRef(l.keyword):
		return parseRef(l.keyword, vctx)
	}
	return parseFreeString(l, vctx)
}

func parseRef(ref string, vctx *view.Context) (Command, Decision) {
	located, ok := vctx.Locator().Locate(ref)
	if !ok {
		logging.ParserWarn("Unlocatable reference %q", ref)
		return nil, DecisionNoCommand
	}
	build, ok := refDispatch[located.Ref.Kind]
	if !ok {
		return nil, DecisionNoCommand
	}
	return build(located, vctx), DecisionMatched
}

// parseFreeString recognizes a run of item ids or a single item id.
func parseFreeString(l line, vctx *view.Context) (Command, Decision) {
	text := strings.TrimSpace(l.text)
	if ids := multipleItems(text, vctx); len(ids) > 0 {
		return &FilterItems{ItemIDs: ids, Params: vctx.Filter()}, DecisionMatched
	}
	if id, err := strconv.Atoi(text); err == nil {
		if _, ok := vctx.Directory().AccessibleItem(vctx.Actor.ID, id); ok {
			return &GoToItem{ItemID: id}, DecisionMatched
		}
	}
	return nil, DecisionUnmatched
}

// multipleItems returns the accessible items named by a list of two or more
// ids, ignoring ids the actor cannot see.
func multipleItems(text string, vctx *view.Context) []int {
	if !itemListPattern.MatchString(text) {
		return nil
	}
	var wanted []int
	for _, tok := range itemListSeparator.Split(text, -1) {
		if n, err := strconv.Atoi(tok); err == nil {
			wanted = append(wanted, n)
		}
	}
	if len(wanted) < 2 {
		return nil
	}

	var ids []int
	prev := -1
	for _, id := range tracker.SortedIDs(wanted) {
		if id == prev {
			continue
		}
		prev = id
		if _, ok := vctx.Directory().AccessibleItem(vctx.Actor.ID, id); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// =============================================================================
// BUILDERS
// =============================================================================

func buildAssign(l line, vctx *view.Context) Command {
	var ids []string
	seen := make(map[string]bool)
	for _, arg := range l.args {
		if p, ok := vctx.FindPerson(arg); ok && !seen[p.ID] {
			seen[p.ID] = true
			ids = append(ids, p.ID)
		}
	}
	return &Assign{AssigneeIDs: ids, bulk: bulk{ItemIDs: vctx.ItemIDs()}}
}

func buildClear(_ line, vctx *view.Context) Command {
	return &ClearFilters{Params: vctx.Filter()}
}

func buildClose(l line, vctx *view.Context) Command {
	return &Close{Reason: l.rest(), bulk: bulk{ItemIDs: vctx.ItemIDs()}}
}

func buildReopen(_ line, vctx *view.Context) Command {
	return &Reopen{bulk: bulk{ItemIDs: vctx.ItemIDs()}}
}

func buildConsider(_ line, vctx *view.Context) Command {
	return &Engage{Engagement: tracker.EngagementConsidering, bulk: bulk{ItemIDs: vctx.ItemIDs()}}
}

func buildDo(_ line, vctx *view.Context) Command {
	return &Engage{Engagement: tracker.EngagementDoing, bulk: bulk{ItemIDs: vctx.ItemIDs()}}
}

func buildAdd(l line, vctx *view.Context) Command {
	return &AddItem{ItemTitle: l.rest(), CollectionID: guessCollection(vctx)}
}

// guessCollection is the first item's collection, else the actor's first
// collection.
func guessCollection(vctx *view.Context) string {
	if items := vctx.Items(); len(items) > 0 {
		return items[0].CollectionID
	}
	if cols := vctx.Collections(); len(cols) > 0 {
		return cols[0].ID
	}
	return ""
}

func buildSearch(l line, _ *view.Context) Command {
	return &Search{Terms: l.rest()}
}

func buildUser(l line, vctx *view.Context) Command {
	return &GoToUser{UserID: personID(l.rest(), vctx)}
}

func buildStage(l line, vctx *view.Context) Command {
	name := l.rest()
	s, _ := vctx.FindStage(name)
	return &Stage{StageID: s.ID, StageName: name, bulk: bulk{ItemIDs: vctx.ItemIDs()}}
}

func buildVisit(l line, _ *view.Context) Command {
	var url string
	if len(l.args) > 0 {
		url = l.args[0]
	}
	return &VisitURL{URL: url}
}

func buildTag(l line, vctx *view.Context) Command {
	return &Tag{TagTitle: tagTitle(l.rest(), vctx), bulk: bulk{ItemIDs: vctx.ItemIDs()}}
}

func personID(ref string, vctx *view.Context) string {
	p, _ := vctx.FindPerson(ref)
	return p.ID
}

// tagTitle is the title of the tag ref names, else ref without its "#".
func tagTitle(ref string, vctx *view.Context) string {
	if t, ok := vctx.FindTag(ref); ok {
		return t.Title
	}
	return strings.TrimPrefix(strings.TrimSpace(ref), "#")
}
