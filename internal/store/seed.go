package store

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cmdbar/internal/logging"
	"cmdbar/internal/tracker"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// LoadSeed reads a world from a YAML seed file.
func LoadSeed(path string) (World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return World{}, fmt.Errorf("failed to read seed: %w", err)
	}

	var w World
	if err := yaml.Unmarshal(data, &w); err != nil {
		return World{}, fmt.Errorf("failed to parse seed %s: %w", path, err)
	}
	logging.Store("Loaded seed %s: %d people, %d collections, %d items",
		path, len(w.People), len(w.Collections), len(w.Items))
	return w, nil
}

// SaveSeed writes w to path, replacing the file atomically.
func SaveSeed(path string, w World) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create seed directory: %w", err)
	}

	data, err := yaml.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal seed: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write seed: %w", err)
	}
	logging.StoreDebug("Saved seed %s", path)
	return nil
}

// DemoWorld is a small account: two people with access to a product
// collection on a triage workflow, and a private collection.
func DemoWorld(now time.Time) World {
	day := 24 * time.Hour
	at := func(ago time.Duration) time.Time { return now.Add(-ago).UTC().Truncate(time.Second) }

	return World{
		People: []tracker.Person{
			{ID: "kevin", Name: "Kevin McConnell"},
			{ID: "jz", Name: "Jason Zimdars"},
			{ID: "david", Name: "David Heinemeier Hansson"},
		},
		Tags: []tracker.Tag{
			{ID: "design", Title: "design"},
			{ID: "mobile", Title: "mobile"},
			{ID: "v2", Title: "v2"},
		},
		Workflows: []tracker.Workflow{{ID: "triage", Name: "Triage"}},
		Stages: []tracker.Stage{
			{ID: "triage-new", WorkflowID: "triage", Name: "New", Position: 1},
			{ID: "triage-progress", WorkflowID: "triage", Name: "In progress", Position: 2},
			{ID: "triage-qa", WorkflowID: "triage", Name: "QA review", Position: 3},
		},
		Collections: []tracker.Collection{
			{ID: "writebook", Name: "Writebook", WorkflowID: "triage", CreatedAt: at(90 * day)},
			{ID: "private", Name: "Private notes", AccessIDs: []string{"david"}, CreatedAt: at(60 * day)},
		},
		Items: []tracker.Item{
			{ID: 1, Title: "Logo refresh", CollectionID: "writebook", StageID: "triage-new",
				CreatorID: "jz", AssigneeIDs: []string{"jz"}, TagIDs: []string{"design"},
				CreatedAt: at(20 * day), LastActiveAt: at(2 * day)},
			{ID: 2, Title: "Layout is broken on mobile", CollectionID: "writebook", StageID: "triage-progress",
				CreatorID: "kevin", TagIDs: []string{"design", "mobile"},
				CreatedAt: at(10 * day), LastActiveAt: at(1 * day)},
			{ID: 3, Title: "Text overflows the card", CollectionID: "writebook", StageID: "triage-new",
				CreatorID: "kevin", AssigneeIDs: []string{"jz"},
				CreatedAt: at(5 * day), LastActiveAt: at(3 * day)},
			{ID: 4, Title: "Upgrade the editor", CollectionID: "writebook", StageID: "triage-qa",
				CreatorID: "david", CreatedAt: at(40 * day), LastActiveAt: at(35 * day)},
			{ID: 5, Title: "Quarterly planning", CollectionID: "private",
				CreatorID: "david", CreatedAt: at(3 * day), LastActiveAt: at(3 * day)},
		},
	}
}
