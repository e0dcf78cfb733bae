package openai

import "github.com/davidbz/folio/internal/domain"

// BackendName identifies the OpenAI backend in the backend registry.
const BackendName = domain.DefaultBackend

// DefaultModels returns the OpenAI models folio can select.
func DefaultModels() []domain.ModelDescriptor {
	return []domain.ModelDescriptor{
		{
			ID:                 "gpt-4.1",
			Description:        "Smartest model for complex tasks",
			InputPerMTok:       gpt41InputPerMTok,
			CachedInputPerMTok: gpt41CachedInputPerMTok,
			OutputPerMTok:      gpt41OutputPerMTok,
			Backend:            BackendName,
		},
		{
			ID:                 "gpt-4.1-mini",
			Description:        "Affordable model balancing speed and intelligence",
			InputPerMTok:       gpt41MiniInputPerMTok,
			CachedInputPerMTok: gpt41MiniCachedInputPerMTok,
			OutputPerMTok:      gpt41MiniOutputPerMTok,
			Backend:            BackendName,
		},
		{
			ID:                 "gpt-4.1-nano",
			Description:        "Fastest, most cost-effective model for low-latency tasks",
			InputPerMTok:       gpt41NanoInputPerMTok,
			CachedInputPerMTok: gpt41NanoCachedInputPerMTok,
			OutputPerMTok:      gpt41NanoOutputPerMTok,
			Backend:            BackendName,
		},
		{
			ID:                 "o3",
			Description:        "Most powerful reasoning model for coding, math, science and vision",
			InputPerMTok:       o3InputPerMTok,
			CachedInputPerMTok: o3CachedInputPerMTok,
			OutputPerMTok:      o3OutputPerMTok,
			Backend:            BackendName,
		},
		{
			ID:                 "o4-mini",
			Description:        "Faster, cost-efficient reasoning model",
			InputPerMTok:       o4MiniInputPerMTok,
			CachedInputPerMTok: o4MiniCachedInputPerMTok,
			OutputPerMTok:      o4MiniOutputPerMTok,
			Backend:            BackendName,
		},
	}
}
