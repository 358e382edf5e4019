package perception

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"cmdbar/internal/logging"
	"cmdbar/internal/tracker"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// MePlaceholder stands for the requesting actor in model output. It is
// replaced with the actor's global reference on every read, so cached
// translations stay portable across sessions and tenants.
const MePlaceholder = "<cmdbar:ME>"

// ErrMalformedTranslation is returned when model output is not a JSON
// object matching the translation contract.
var ErrMalformedTranslation = errors.New("malformed translation")

// Translation is the normalized model answer: an optional filter over items
// (by name, not yet resolved to ids) and the command lines to run on them.
type Translation struct {
	Context  *tracker.Filter `json:"context,omitempty"`
	Commands []string        `json:"commands,omitempty"`
}

// IsEmpty reports whether neither a filter nor a command was produced.
func (t Translation) IsEmpty() bool {
	return t.Context == nil && len(t.Commands) == 0
}

// JSON renders t for display, leaving the placeholder readable.
func (t Translation) JSON() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return "{}"
	}
	return strings.TrimSpace(buf.String())
}

// withActor substitutes ref for every MePlaceholder.
func (t Translation) withActor(ref string) Translation {
	out := Translation{Commands: replacePlaceholder(t.Commands, ref)}
	if t.Context != nil {
		f := *t.Context
		f.Terms = replacePlaceholder(f.Terms, ref)
		f.AssigneeIDs = replacePlaceholder(f.AssigneeIDs, ref)
		f.CreatorIDs = replacePlaceholder(f.CreatorIDs, ref)
		f.CloserIDs = replacePlaceholder(f.CloserIDs, ref)
		f.ItemIDs = append([]int(nil), f.ItemIDs...)
		f.StageIDs = append([]string(nil), f.StageIDs...)
		f.CollectionIDs = append([]string(nil), f.CollectionIDs...)
		f.TagIDs = append([]string(nil), f.TagIDs...)
		out.Context = &f
	}
	return out
}

func replacePlaceholder(list []string, ref string) []string {
	if list == nil {
		return nil
	}
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = strings.ReplaceAll(s, MePlaceholder, ref)
	}
	return out
}

// =============================================================================
// CONTRACT SCHEMA
// =============================================================================

const schemaURL = "https://cmdbar.local/schemas/translation.schema.json"

// listKeys are the context keys holding arrays.
var listKeys = map[string]bool{
	tracker.ParamTerms:         true,
	tracker.ParamAssigneeIDs:   true,
	tracker.ParamItemIDs:       true,
	tracker.ParamCreatorIDs:    true,
	tracker.ParamCloserIDs:     true,
	tracker.ParamStageIDs:      true,
	tracker.ParamCollectionIDs: true,
	tracker.ParamTagIDs:        true,
}

var contextKeys = map[string]bool{
	tracker.ParamIndexedBy:        true,
	tracker.ParamAssignmentStatus: true,
	tracker.ParamCreation:         true,
	tracker.ParamClosure:          true,
}

func init() {
	for k := range listKeys {
		contextKeys[k] = true
	}
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// contractSchema builds the JSON Schema of a pruned translation from the
// filter vocabularies.
func contractSchema() map[string]any {
	stringList := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	enum := func(values []string) map[string]any {
		out := make([]any, len(values))
		for i, v := range values {
			out[i] = v
		}
		return map[string]any{"type": "string", "enum": out}
	}

	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"context": map[string]any{
				"type": "object",
				"properties": map[string]any{
					tracker.ParamTerms:            stringList,
					tracker.ParamIndexedBy:        enum(tracker.IndexValues),
					tracker.ParamAssigneeIDs:      stringList,
					tracker.ParamAssignmentStatus: enum([]string{tracker.AssignmentUnassigned}),
					tracker.ParamItemIDs: map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "integer", "minimum": 1},
					},
					tracker.ParamCreatorIDs:    stringList,
					tracker.ParamCloserIDs:     stringList,
					tracker.ParamStageIDs:      stringList,
					tracker.ParamCollectionIDs: stringList,
					tracker.ParamTagIDs:        stringList,
					tracker.ParamCreation:      enum(tracker.WindowValues),
					tracker.ParamClosure:       enum(tracker.WindowValues),
				},
				"additionalProperties": false,
			},
			"commands": stringList,
		},
		"additionalProperties": false,
	}
}

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		raw, err := json.Marshal(contractSchema())
		if err != nil {
			schemaErr = err
			return
		}
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, bytes.NewReader(raw)); err != nil {
			schemaErr = fmt.Errorf("failed to load schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// =============================================================================
// PARSING
// =============================================================================

// ParseTranslation extracts, cleans, validates and normalizes a raw model
// response. Blank values are pruned, unknown keys are dropped, and names an
// explicit command already carries are removed from the filter.
func ParseTranslation(raw string) (Translation, error) {
	obj := extractJSON(raw)
	if obj == "" {
		return Translation{}, fmt.Errorf("%w: no JSON object in response", ErrMalformedTranslation)
	}

	dec := json.NewDecoder(strings.NewReader(obj))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return Translation{}, fmt.Errorf("%w: %v", ErrMalformedTranslation, err)
	}

	cleaned := sanitize(doc)

	s, err := schema()
	if err != nil {
		return Translation{}, fmt.Errorf("translation schema: %w", err)
	}
	if err := s.Validate(cleaned); err != nil {
		return Translation{}, fmt.Errorf("%w: %v", ErrMalformedTranslation, err)
	}

	data, err := json.Marshal(cleaned)
	if err != nil {
		return Translation{}, fmt.Errorf("%w: %v", ErrMalformedTranslation, err)
	}
	var t Translation
	if err := json.Unmarshal(data, &t); err != nil {
		return Translation{}, fmt.Errorf("%w: %v", ErrMalformedTranslation, err)
	}

	normalize(&t)
	return t, nil
}

// sanitize drops unknown keys, applies light coercions and prunes blank
// values. What is left is checked against the schema.
func sanitize(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		switch k {
		case "context":
			if m, ok := v.(map[string]any); ok {
				v = coerceContext(m)
			}
			out[k] = v
		case "commands":
			if s, ok := v.(string); ok {
				v = []any{s}
			}
			out[k] = v
		default:
			logging.TranslatorWarn("Dropping unknown translation key %q", k)
		}
	}

	pruned, ok := prune(out)
	if !ok {
		return map[string]any{}
	}
	return pruned.(map[string]any)
}

func coerceContext(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if !contextKeys[k] {
			logging.TranslatorWarn("Dropping unknown context key %q", k)
			continue
		}

		if listKeys[k] {
			switch v.(type) {
			case string, json.Number:
				v = []any{v}
			}
		}

		switch k {
		case tracker.ParamItemIDs:
			if list, ok := v.([]any); ok {
				v = coerceItemIDs(list)
			}
		case tracker.ParamIndexedBy:
			if s, ok := v.(string); ok {
				v = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
			}
		case tracker.ParamCreation, tracker.ParamClosure:
			if s, ok := v.(string); ok {
				v = strings.ReplaceAll(strings.ToLower(s), " ", "")
			}
		case tracker.ParamAssignmentStatus:
			if s, ok := v.(string); ok {
				v = strings.ToLower(strings.TrimSpace(s))
			}
		}
		out[k] = v
	}
	return out
}

// coerceItemIDs turns numeric strings ("123", "#123") into numbers.
func coerceItemIDs(list []any) []any {
	out := make([]any, len(list))
	for i, v := range list {
		if s, ok := v.(string); ok {
			if n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(s), "#")); err == nil {
				v = json.Number(strconv.Itoa(n))
			}
		}
		out[i] = v
	}
	return out
}

// prune removes nulls, blank strings and empty arrays or objects,
// recursively. The boolean is false when v itself should be removed.
func prune(v any) (any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case []any:
		out := make([]any, 0, len(t))
		for _, e := range t {
			if pe, ok := prune(e); ok {
				out = append(out, pe)
			}
		}
		return out, len(out) > 0
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			if pe, ok := prune(e); ok {
				out[k] = pe
			}
		}
		return out, len(out) > 0
	default:
		return v, true
	}
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// normalize drops an empty filter and an empty command list. Names shared by
// a command and a filter are left alone: narrowing the filter is the model's
// job and removing an entry would widen what a bulk command acts on.
func normalize(t *Translation) {
	if t.Context != nil && t.Context.IsEmpty() {
		t.Context = nil
	}
	if len(t.Commands) == 0 {
		t.Commands = nil
	}
}
