package echo

import "github.com/davidbz/folio/internal/domain"

const (
	echo1InputPerMTok  = 0.0
	echo1OutputPerMTok = 0.0
)

// DefaultModels returns the echo models. They are free as no model is called.
func DefaultModels() []domain.ModelDescriptor {
	return []domain.ModelDescriptor{
		{
			ID:            modelName,
			Description:   "Offline echo of document metadata, for dry runs",
			InputPerMTok:  echo1InputPerMTok,
			OutputPerMTok: echo1OutputPerMTok,
			Backend:       BackendName,
		},
	}
}
