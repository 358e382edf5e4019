package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"cmdbar/internal/cache"
	"cmdbar/internal/command"
	"cmdbar/internal/config"
	"cmdbar/internal/logging"
	"cmdbar/internal/perception"
	"cmdbar/internal/routing"
	"cmdbar/internal/store"
	"cmdbar/internal/tracker"
	"cmdbar/internal/view"
)

// session is the world and actor one CLI invocation works with.
type session struct {
	cfg   *config.Config
	world *store.Memory
	actor tracker.Person

	cache cache.Store
}

// openSession loads the seed, falling back to the demo world when no seed
// exists yet, and resolves the acting person.
func openSession(cfg *config.Config, asID string) (*session, error) {
	w, err := store.LoadSeed(cfg.Store.SeedPath)
	if errors.Is(err, fs.ErrNotExist) {
		logging.Boot("No seed at %s, using the demo world", cfg.Store.SeedPath)
		w, err = store.DemoWorld(time.Now()), nil
	}
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, world: store.NewMemory(w)}
	people := s.world.People()
	if len(people) == 0 {
		return nil, fmt.Errorf("seed %s has no people", cfg.Store.SeedPath)
	}
	if asID == "" {
		s.actor = people[0]
		return s, nil
	}
	p, ok := s.world.Person(asID)
	if !ok {
		ids := make([]string, len(people))
		for i, p := range people {
			ids[i] = p.ID
		}
		return nil, fmt.Errorf("unknown person %q (known: %s)", asID, strings.Join(ids, ", "))
	}
	s.actor = p
	return s, nil
}

// view is the view the line was typed in. from may omit the prefix.
func (s *session) view(from string) *view.Context {
	prefix := s.cfg.Store.PathPrefix
	return view.New(s.world, s.actor, routing.WithPrefix(prefix, from), prefix)
}

// translator builds the model-backed translator. It returns nil, nil when no
// API key is configured, which leaves the pipeline grammar-only.
func (s *session) translator(ctx context.Context) (*perception.Translator, error) {
	client, err := perception.NewClient(ctx, s.cfg.LLM, s.cfg.GetLLMTimeout())
	if errors.Is(err, perception.ErrNoAPIKey) {
		logging.BootWarn("No %s API key configured; unmatched lines become searches", s.cfg.LLM.Provider)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	translations, err := cache.Open(s.cfg)
	if err != nil {
		return nil, err
	}
	s.cache = translations
	return perception.NewTranslator(client, translations), nil
}

// pipeline wires the translator, if any, behind the grammar.
func (s *session) pipeline(ctx context.Context) (*command.Pipeline, error) {
	tr, err := s.translator(ctx)
	if err != nil {
		return nil, err
	}
	if tr == nil {
		return command.NewPipeline(nil), nil
	}
	return command.NewPipeline(tr), nil
}

// save writes the world back to the seed file.
func (s *session) save() error {
	return store.SaveSeed(s.cfg.Store.SeedPath, s.world.Snapshot())
}

func (s *session) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}
