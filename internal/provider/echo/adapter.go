// Package echo provides an offline extraction backend that describes each
// document instead of calling a model. Responses are deterministic, which makes
// it useful for dry runs and tests.
package echo

import (
	"context"
	"errors"
	"fmt"

	"github.com/davidbz/folio/internal/domain"
	"github.com/davidbz/folio/internal/observability"
)

const (
	// BackendName identifies the echo backend in the backend registry.
	BackendName = "echo"
	modelName   = "echo-1"

	// Rough bytes-per-token ratio used to report plausible usage.
	bytesPerToken = 4
)

// Backend implements domain.ExtractionBackend without external calls.
type Backend struct {
	name            string
	supportedModels map[string]bool
}

// NewBackend creates a new echo backend.
// No configuration is required as this backend operates entirely in-memory.
func NewBackend() *Backend {
	return &Backend{
		name: BackendName,
		supportedModels: map[string]bool{
			modelName: true,
		},
	}
}

// ExtractStructured returns a payload describing the document itself.
func (b *Backend) ExtractStructured(
	ctx context.Context,
	content *domain.DocumentContent,
	model domain.ModelDescriptor,
) (*domain.ExtractionResult, error) {
	if content == nil {
		return nil, domain.NewBackendError(domain.BackendErrorOther, errors.New("content cannot be nil"))
	}

	if !b.supportedModels[model.ID] {
		return nil, domain.NewBackendError(domain.BackendErrorOther,
			fmt.Errorf("model %s is not supported by echo backend", model.ID))
	}

	if err := ctx.Err(); err != nil {
		return nil, domain.NewBackendError(domain.BackendErrorNetwork, err)
	}

	inputTokens := countTokens(content.SizeBytes)

	observability.FromContext(ctx).Debug("echo completed",
		observability.Int("prompt_tokens", inputTokens))

	return &domain.ExtractionResult{
		Payload: map[string]any{
			"filename":   content.Filename,
			"mime_type":  content.MIMEType,
			"size_bytes": content.SizeBytes,
			"sha256":     content.SHA256,
		},
		Usage: domain.Usage{
			InputTokens:  inputTokens,
			OutputTokens: 0,
		},
	}, nil
}

// Interpret returns the prompt itself, so reports written offline show exactly
// what a model would have been asked.
func (b *Backend) Interpret(
	ctx context.Context,
	prompt string,
	model domain.ModelDescriptor,
) (string, domain.Usage, error) {
	if !b.supportedModels[model.ID] {
		return "", domain.Usage{}, domain.NewBackendError(domain.BackendErrorOther,
			fmt.Errorf("model %s is not supported by echo backend", model.ID))
	}

	if err := ctx.Err(); err != nil {
		return "", domain.Usage{}, domain.NewBackendError(domain.BackendErrorNetwork, err)
	}

	tokens := countTokens(int64(len(prompt)))
	return prompt, domain.Usage{InputTokens: tokens, OutputTokens: tokens}, nil
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return b.name
}

// countTokens approximates the token count from the document size.
func countTokens(sizeBytes int64) int {
	if sizeBytes <= 0 {
		return 0
	}
	return int((sizeBytes + bytesPerToken - 1) / bytesPerToken)
}
