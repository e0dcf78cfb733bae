// Package openai provides an extraction backend for the OpenAI API using the
// official SDK. It sends each PDF as an inline file part together with the
// extraction prompt and constrains the reply with a strict JSON schema.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/davidbz/folio/internal/domain"
	"github.com/davidbz/folio/internal/observability"
	"github.com/davidbz/folio/internal/schema"
)

// Backend implements domain.ExtractionBackend for OpenAI.
type Backend struct {
	client openai.Client
	schema *schema.Schema
	name   string
}

// NewBackend creates a new OpenAI backend.
func NewBackend(config Config, extraction *schema.Schema, extra ...option.RequestOption) (*Backend, error) {
	if !config.Enabled() {
		return nil, errors.New("OpenAI API key is required")
	}
	if extraction == nil {
		return nil, errors.New("extraction schema is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	if config.OrgID != "" {
		opts = append(opts, option.WithOrganization(config.OrgID))
	}

	if config.ProjectID != "" {
		opts = append(opts, option.WithProject(config.ProjectID))
	}

	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(time.Duration(config.Timeout)*time.Second))
	}

	if config.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(config.MaxRetries))
	}

	opts = append(opts, extra...)

	return &Backend{
		client: openai.NewClient(opts...),
		schema: extraction,
		name:   BackendName,
	}, nil
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return b.name
}

// ExtractStructured sends one document and returns the validated payload.
func (b *Backend) ExtractStructured(
	ctx context.Context,
	content *domain.DocumentContent,
	model domain.ModelDescriptor,
) (*domain.ExtractionResult, error) {
	if content == nil {
		return nil, domain.NewBackendError(domain.BackendErrorOther, errors.New("content cannot be nil"))
	}

	logger := observability.FromContext(ctx)
	logger.Debug("calling OpenAI API", observability.Int64("size_bytes", content.SizeBytes))

	resp, err := b.client.Chat.Completions.New(ctx, b.toSDKParams(content, model))
	if err != nil {
		logger.Error("OpenAI API call failed", observability.Error(err))
		return nil, classify(err)
	}

	usage := domain.Usage{
		InputTokens:       int(resp.Usage.PromptTokens),
		CachedInputTokens: int(resp.Usage.PromptTokensDetails.CachedTokens),
		OutputTokens:      int(resp.Usage.CompletionTokens),
	}

	logger.Debug("OpenAI API call succeeded",
		observability.Int("prompt_tokens", usage.InputTokens),
		observability.Int("cached_tokens", usage.CachedInputTokens),
		observability.Int("completion_tokens", usage.OutputTokens),
	)

	if len(resp.Choices) == 0 {
		return nil, domain.NewBackendError(domain.BackendErrorMalformed, errors.New("response has no choices"))
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, domain.NewBackendError(domain.BackendErrorMalformed,
			fmt.Errorf("model refused: %s", choice.Message.Refusal))
	}
	if choice.FinishReason == "length" {
		return nil, domain.NewBackendError(domain.BackendErrorMalformed,
			errors.New("response truncated at token limit"))
	}

	payload, err := b.schema.Decode([]byte(choice.Message.Content))
	if err != nil {
		return nil, domain.NewBackendError(domain.BackendErrorMalformed, err)
	}

	return &domain.ExtractionResult{
		Payload: payload,
		Usage:   usage,
		Cached:  false,
	}, nil
}

// Interpret sends a plain-text prompt and returns the model's reply as is.
func (b *Backend) Interpret(
	ctx context.Context,
	prompt string,
	model domain.ModelDescriptor,
) (string, domain.Usage, error) {
	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model.ID),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	})
	if err != nil {
		observability.FromContext(ctx).Error("OpenAI interpretation failed", observability.Error(err))
		return "", domain.Usage{}, classify(err)
	}

	usage := domain.Usage{
		InputTokens:       int(resp.Usage.PromptTokens),
		CachedInputTokens: int(resp.Usage.PromptTokensDetails.CachedTokens),
		OutputTokens:      int(resp.Usage.CompletionTokens),
	}

	if len(resp.Choices) == 0 {
		return "", usage, domain.NewBackendError(domain.BackendErrorMalformed, errors.New("response has no choices"))
	}
	if refusal := resp.Choices[0].Message.Refusal; refusal != "" {
		return "", usage, domain.NewBackendError(domain.BackendErrorMalformed,
			fmt.Errorf("model refused: %s", refusal))
	}

	return resp.Choices[0].Message.Content, usage, nil
}

// toSDKParams builds a single user message holding the file and the prompt.
func (b *Backend) toSDKParams(content *domain.DocumentContent, model domain.ModelDescriptor) openai.ChatCompletionNewParams {
	dataURL := fmt.Sprintf("data:%s;base64,%s", content.MIMEType, base64.StdEncoding.EncodeToString(content.Data))

	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.FileContentPart(openai.ChatCompletionContentPartFileFileParam{
			FileData: openai.String(dataURL),
			Filename: openai.String(content.Filename),
		}),
		openai.TextContentPart(b.schema.Prompt()),
	}

	return openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model.ID),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(parts)},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   b.schema.Name(),
					Strict: openai.Bool(true),
					Schema: b.schema.Document(),
				},
			},
		},
	}
}

// classify maps SDK and transport errors onto backend error kinds.
func classify(err error) *domain.BackendError {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return domain.NewBackendError(domain.BackendErrorAuth, err)
		case apiErr.StatusCode == http.StatusTooManyRequests || apiErr.Code == "insufficient_quota":
			return domain.NewBackendError(domain.BackendErrorQuota, err)
		case apiErr.StatusCode >= http.StatusInternalServerError:
			return domain.NewBackendError(domain.BackendErrorNetwork, err)
		default:
			return domain.NewBackendError(domain.BackendErrorOther, err)
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.As(err, &netErr) {
		return domain.NewBackendError(domain.BackendErrorNetwork, err)
	}

	return domain.NewBackendError(domain.BackendErrorOther, err)
}
