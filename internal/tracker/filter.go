package tracker

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Orderings and index filters accepted by indexed_by.
const (
	IndexNewest          = "newest"
	IndexOldest          = "oldest"
	IndexLatest          = "latest"
	IndexStalled         = "stalled"
	IndexClosed          = "closed"
	IndexClosingSoon     = "closing_soon"
	IndexFallingBackSoon = "falling_back_soon"
)

// IndexValues is the closed vocabulary for indexed_by.
var IndexValues = []string{
	IndexNewest, IndexOldest, IndexLatest, IndexStalled,
	IndexClosed, IndexClosingSoon, IndexFallingBackSoon,
}

// WindowValues is the closed vocabulary for creation and closure.
var WindowValues = []string{
	"today", "yesterday", "thisweek", "thismonth", "thisyear",
	"lastweek", "lastmonth", "lastyear",
}

// AssignmentUnassigned is the only accepted assignment_status.
const AssignmentUnassigned = "unassigned"

// DefaultIndexedBy is merged into list filters that don't name an ordering.
const DefaultIndexedBy = IndexLatest

// Parameter names shared by list URLs and translation filters.
const (
	ParamTerms            = "terms"
	ParamIndexedBy        = "indexed_by"
	ParamAssigneeIDs      = "assignee_ids"
	ParamAssignmentStatus = "assignment_status"
	ParamItemIDs          = "item_ids"
	ParamCreatorIDs       = "creator_ids"
	ParamCloserIDs        = "closer_ids"
	ParamStageIDs         = "stage_ids"
	ParamCollectionIDs    = "collection_ids"
	ParamTagIDs           = "tag_ids"
	ParamCreation         = "creation"
	ParamClosure          = "closure"
)

// Filter narrows a list of items. Zero-valued fields are "not specified".
type Filter struct {
	Terms            []string `json:"terms,omitempty"`
	IndexedBy        string   `json:"indexed_by,omitempty"`
	AssigneeIDs      []string `json:"assignee_ids,omitempty"`
	AssignmentStatus string   `json:"assignment_status,omitempty"`
	ItemIDs          []int    `json:"item_ids,omitempty"`
	CreatorIDs       []string `json:"creator_ids,omitempty"`
	CloserIDs        []string `json:"closer_ids,omitempty"`
	StageIDs         []string `json:"stage_ids,omitempty"`
	CollectionIDs    []string `json:"collection_ids,omitempty"`
	TagIDs           []string `json:"tag_ids,omitempty"`
	Creation         string   `json:"creation,omitempty"`
	Closure          string   `json:"closure,omitempty"`
}

// IsEmpty reports whether no field is specified.
func (f Filter) IsEmpty() bool {
	return len(f.AsParams()) == 0
}

// WithDefaults fills unspecified fields with the list defaults.
func (f Filter) WithDefaults() Filter {
	if f.IndexedBy == "" {
		f.IndexedBy = DefaultIndexedBy
	}
	return f
}

// AsParams encodes the filter as URL query parameters. List-valued fields
// use the bracketed "key[]" form.
func (f Filter) AsParams() url.Values {
	v := url.Values{}
	addList := func(key string, values []string) {
		for _, s := range values {
			if strings.TrimSpace(s) != "" {
				v.Add(key+"[]", s)
			}
		}
	}
	addScalar := func(key, value string) {
		if strings.TrimSpace(value) != "" {
			v.Set(key, value)
		}
	}

	addList(ParamTerms, f.Terms)
	addScalar(ParamIndexedBy, f.IndexedBy)
	addList(ParamAssigneeIDs, f.AssigneeIDs)
	addScalar(ParamAssignmentStatus, f.AssignmentStatus)
	for _, id := range f.ItemIDs {
		v.Add(ParamItemIDs+"[]", strconv.Itoa(id))
	}
	addList(ParamCreatorIDs, f.CreatorIDs)
	addList(ParamCloserIDs, f.CloserIDs)
	addList(ParamStageIDs, f.StageIDs)
	addList(ParamCollectionIDs, f.CollectionIDs)
	addList(ParamTagIDs, f.TagIDs)
	addScalar(ParamCreation, f.Creation)
	addScalar(ParamClosure, f.Closure)
	return v
}

// Merge returns f with every field that other specifies overridden.
func (f Filter) Merge(other Filter) Filter {
	out := f
	if len(other.Terms) > 0 {
		out.Terms = other.Terms
	}
	if other.IndexedBy != "" {
		out.IndexedBy = other.IndexedBy
	}
	if len(other.AssigneeIDs) > 0 {
		out.AssigneeIDs = other.AssigneeIDs
	}
	if other.AssignmentStatus != "" {
		out.AssignmentStatus = other.AssignmentStatus
	}
	if len(other.ItemIDs) > 0 {
		out.ItemIDs = other.ItemIDs
	}
	if len(other.CreatorIDs) > 0 {
		out.CreatorIDs = other.CreatorIDs
	}
	if len(other.CloserIDs) > 0 {
		out.CloserIDs = other.CloserIDs
	}
	if len(other.StageIDs) > 0 {
		out.StageIDs = other.StageIDs
	}
	if len(other.CollectionIDs) > 0 {
		out.CollectionIDs = other.CollectionIDs
	}
	if len(other.TagIDs) > 0 {
		out.TagIDs = other.TagIDs
	}
	if other.Creation != "" {
		out.Creation = other.Creation
	}
	if other.Closure != "" {
		out.Closure = other.Closure
	}
	return out
}

// FilterFromParams decodes list parameters. Both "key[]" and bare "key"
// spellings are accepted; unknown keys and malformed item ids are ignored.
func FilterFromParams(params map[string][]string) Filter {
	list := func(key string) []string {
		var out []string
		for _, k := range []string{key + "[]", key} {
			for _, s := range params[k] {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	}
	scalar := func(key string) string {
		values := list(key)
		if len(values) == 0 {
			return ""
		}
		return values[0]
	}

	f := Filter{
		Terms:            list(ParamTerms),
		IndexedBy:        scalar(ParamIndexedBy),
		AssigneeIDs:      list(ParamAssigneeIDs),
		AssignmentStatus: scalar(ParamAssignmentStatus),
		CreatorIDs:       list(ParamCreatorIDs),
		CloserIDs:        list(ParamCloserIDs),
		StageIDs:         list(ParamStageIDs),
		CollectionIDs:    list(ParamCollectionIDs),
		TagIDs:           list(ParamTagIDs),
		Creation:         scalar(ParamCreation),
		Closure:          scalar(ParamClosure),
	}
	for _, s := range list(ParamItemIDs) {
		if id, err := strconv.Atoi(s); err == nil {
			f.ItemIDs = append(f.ItemIDs, id)
		}
	}
	return f
}

// Window returns the [start, end) interval named by a creation/closure value.
func Window(name string, now time.Time) (start, end time.Time, ok bool) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekday := (int(day.Weekday()) + 6) % 7 // Monday = 0
	week := day.AddDate(0, 0, -weekday)
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	year := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())

	switch name {
	case "today":
		return day, day.AddDate(0, 0, 1), true
	case "yesterday":
		return day.AddDate(0, 0, -1), day, true
	case "thisweek":
		return week, week.AddDate(0, 0, 7), true
	case "lastweek":
		return week.AddDate(0, 0, -7), week, true
	case "thismonth":
		return month, month.AddDate(0, 1, 0), true
	case "lastmonth":
		return month.AddDate(0, -1, 0), month, true
	case "thisyear":
		return year, year.AddDate(1, 0, 0), true
	case "lastyear":
		return year.AddDate(-1, 0, 0), year, true
	}
	return time.Time{}, time.Time{}, false
}

// SortedIDs returns a sorted copy of ids.
func SortedIDs(ids []int) []int {
	out := append([]int(nil), ids...)
	sort.Ints(out)
	return out
}
