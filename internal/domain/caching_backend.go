package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/davidbz/folio/internal/observability"
)

// ErrCacheMiss indicates no cached entry was found.
var ErrCacheMiss = errors.New("cache miss")

// CachingBackend serves repeated extractions of identical content from a
// PayloadCache. Hits carry zero usage and therefore zero cost.
type CachingBackend struct {
	next        ExtractionBackend
	cache       PayloadCache
	ttl         time.Duration
	fingerprint string
}

// NewCachingBackend wraps next. fingerprint identifies the extraction schema and
// prompt so that changing either invalidates earlier entries.
func NewCachingBackend(next ExtractionBackend, cache PayloadCache, ttl time.Duration, fingerprint string) *CachingBackend {
	return &CachingBackend{
		next:        next,
		cache:       cache,
		ttl:         ttl,
		fingerprint: fingerprint,
	}
}

// Name returns the wrapped backend's name.
func (c *CachingBackend) Name() string {
	return c.next.Name()
}

// ExtractStructured returns a cached payload when one exists, otherwise calls the
// wrapped backend and stores its payload. Cache errors never fail the extraction.
func (c *CachingBackend) ExtractStructured(
	ctx context.Context,
	content *DocumentContent,
	model ModelDescriptor,
) (*ExtractionResult, error) {
	if content == nil {
		return nil, errors.New("content cannot be nil")
	}

	logger := observability.FromContext(ctx)
	key := c.cacheKey(content, model)

	data, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var payload map[string]any
		if unmarshalErr := json.Unmarshal(data, &payload); unmarshalErr == nil {
			logger.Info("payload cache hit", observability.String("cache_key", key))
			return &ExtractionResult{Payload: payload, Usage: Usage{}, Cached: true}, nil
		}
		logger.Warn("discarding undecodable cache entry", observability.String("cache_key", key))
	case errors.Is(err, ErrCacheMiss):
		logger.Debug("payload cache miss", observability.String("cache_key", key))
	default:
		logger.Warn("cache get failed, continuing without cache", observability.Error(err))
	}

	result, err := c.next.ExtractStructured(ctx, content, model)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(result.Payload)
	if err != nil {
		logger.Warn("failed to encode payload for cache", observability.Error(err))
		return result, nil
	}
	if setErr := c.cache.Set(ctx, key, encoded, c.ttl); setErr != nil {
		logger.Warn("failed to store in cache", observability.Error(setErr))
	}

	return result, nil
}

// Interpret forwards to the wrapped backend. Reports are never cached.
func (c *CachingBackend) Interpret(ctx context.Context, prompt string, model ModelDescriptor) (string, Usage, error) {
	interpreter, ok := c.next.(TableInterpreter)
	if !ok {
		return "", Usage{}, NewBackendError(BackendErrorOther,
			fmt.Errorf("backend %s cannot interpret tables", c.next.Name()))
	}
	return interpreter.Interpret(ctx, prompt, model)
}

func (c *CachingBackend) cacheKey(content *DocumentContent, model ModelDescriptor) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", content.SHA256, model.ID, c.fingerprint)))
	return "folio:payload:" + hex.EncodeToString(hash[:])
}
