package perception

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cmdbar/internal/cache"
	"cmdbar/internal/logging"
	"cmdbar/internal/view"
)

// cacheKeyVersion is bumped whenever the prompt or contract changes shape.
const cacheKeyVersion = "v2"

// defaultCacheTTL applies when NewTranslator is given no cache.
const defaultCacheTTL = 24 * time.Hour

// Translator turns a natural-language query typed in a view into a
// Translation, asking the model once per (actor, query, view) and caching
// the normalized answer.
type Translator struct {
	client LLMClient
	cache  cache.Store

	// Now stamps "today" in the prompt.
	Now func() time.Time
}

// NewTranslator creates a translator. A nil store falls back to an in-memory
// cache.
func NewTranslator(client LLMClient, store cache.Store) *Translator {
	if store == nil {
		store = cache.NewMemory(defaultCacheTTL)
	}
	return &Translator{client: client, cache: store, Now: time.Now}
}

// CacheKey identifies a translation. The view is reduced to its description
// so that equivalent views share entries.
func CacheKey(actorID, query, viewDescription string) string {
	return fmt.Sprintf("command_translator:%s:%s:%s:%s", cacheKeyVersion, actorID, query, viewDescription)
}

// Translate returns the normalized translation of query in vctx, with the
// actor placeholder replaced by the actor's global reference. Malformed
// model output fails the request and is never cached.
func (t *Translator) Translate(ctx context.Context, query string, vctx *view.Context) (Translation, error) {
	key := CacheKey(vctx.Actor.ID, query, vctx.Description())
	actorRef := vctx.ActorRef()

	if cached, ok := t.lookup(ctx, key); ok {
		logging.TranslatorDebug("Cache hit for %q", query)
		return cached.withActor(actorRef), nil
	}

	system, err := BuildPrompt(ctx, vctx, t.Now())
	if err != nil {
		return Translation{}, err
	}

	raw, err := t.client.CompleteWithSystem(ctx, system, query)
	if err != nil {
		return Translation{}, fmt.Errorf("translate %q: %w", query, err)
	}
	logging.Translator("AI translate: %s => %s", query, raw)

	translation, err := ParseTranslation(raw)
	if err != nil {
		if errors.Is(err, ErrMalformedTranslation) {
			logging.TranslatorWarn("Malformed translation for %q: %v", query, err)
		}
		return Translation{}, err
	}

	t.store(ctx, key, translation)
	return translation.withActor(actorRef), nil
}

func (t *Translator) lookup(ctx context.Context, key string) (Translation, bool) {
	value, ok, err := t.cache.Get(ctx, key)
	if err != nil {
		logging.CacheWarn("Translation cache read failed: %v", err)
		return Translation{}, false
	}
	if !ok {
		return Translation{}, false
	}

	var cached Translation
	if err := json.Unmarshal([]byte(value), &cached); err != nil {
		logging.CacheWarn("Ignoring undecodable cache entry %q: %v", key, err)
		return Translation{}, false
	}
	return cached, true
}

func (t *Translator) store(ctx context.Context, key string, translation Translation) {
	data, err := json.Marshal(translation)
	if err != nil {
		logging.CacheWarn("Translation not cached: %v", err)
		return
	}
	if err := t.cache.Set(ctx, key, string(data)); err != nil {
		logging.CacheWarn("Translation cache write failed: %v", err)
	}
}
