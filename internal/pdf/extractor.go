package pdf

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/davidbz/folio/internal/domain"
	"github.com/davidbz/folio/internal/observability"
)

const (
	// MIMEType is the only content type the extractor accepts.
	MIMEType = "application/pdf"

	bytesPerMB = 1 << 20
)

// Config holds content extraction settings.
type Config struct {
	MaxFileMB int `env:"EXTRACT_MAX_FILE_MB" envDefault:"32"`
}

// Extractor reads PDFs from the local filesystem.
type Extractor struct {
	maxBytes int64
}

// NewExtractor creates a new extractor. A non-positive limit disables the size check.
func NewExtractor(cfg *Config) *Extractor {
	var maxBytes int64
	if cfg != nil && cfg.MaxFileMB > 0 {
		maxBytes = int64(cfg.MaxFileMB) * bytesPerMB
	}
	return &Extractor{maxBytes: maxBytes}
}

// Extract reads and sniffs the file at path. A cancelled context is returned
// as is: it says nothing about the file.
func (e *Extractor) Extract(ctx context.Context, path string) (*domain.DocumentContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &domain.UnreadablePdfError{Path: path, Cause: err}
	}
	if info.IsDir() {
		return nil, &domain.UnreadablePdfError{Path: path, Cause: errors.New("is a directory")}
	}
	if info.Size() == 0 {
		return nil, &domain.UnreadablePdfError{Path: path, Cause: errors.New("file is empty")}
	}
	if e.maxBytes > 0 && info.Size() > e.maxBytes {
		return nil, &domain.UnreadablePdfError{
			Path:  path,
			Cause: fmt.Errorf("file size %d exceeds limit of %d bytes", info.Size(), e.maxBytes),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.UnreadablePdfError{Path: path, Cause: err}
	}

	mime := mimetype.Detect(data)
	if !mime.Is(MIMEType) {
		return nil, &domain.UnreadablePdfError{
			Path:  path,
			Cause: fmt.Errorf("detected content type %s", mime.String()),
		}
	}

	sum := sha256.Sum256(data)

	observability.FromContext(ctx).Debug("pdf loaded",
		observability.Int64("size_bytes", info.Size()))

	return &domain.DocumentContent{
		Filename:  filepath.Base(path),
		MIMEType:  MIMEType,
		Data:      data,
		SizeBytes: info.Size(),
		SHA256:    hex.EncodeToString(sum[:]),
	}, nil
}
