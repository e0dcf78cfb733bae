package pdf_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/folio/internal/domain"
	"github.com/davidbz/folio/internal/pdf"
)

const minimalPDF = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n"

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestExtractor_Extract(t *testing.T) {
	dir := t.TempDir()
	big := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("x"), 2<<20)...)

	tests := []struct {
		name      string
		path      string
		expectErr bool
	}{
		{name: "valid pdf", path: writeFile(t, dir, "ok.pdf", []byte(minimalPDF))},
		{name: "text file with pdf extension", path: writeFile(t, dir, "fake.pdf", []byte("hello world")), expectErr: true},
		{name: "empty file", path: writeFile(t, dir, "empty.pdf", nil), expectErr: true},
		{name: "missing file", path: filepath.Join(dir, "missing.pdf"), expectErr: true},
		{name: "directory", path: dir, expectErr: true},
		{name: "over size limit", path: writeFile(t, dir, "big.pdf", big), expectErr: true},
	}

	extractor := pdf.NewExtractor(&pdf.Config{MaxFileMB: 1})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, err := extractor.Extract(context.Background(), tt.path)
			if tt.expectErr {
				var unreadable *domain.UnreadablePdfError
				require.ErrorAs(t, err, &unreadable)
				require.Equal(t, tt.path, unreadable.Path)
				require.Nil(t, content)
				return
			}

			require.NoError(t, err)
			require.Equal(t, "ok.pdf", content.Filename)
			require.Equal(t, pdf.MIMEType, content.MIMEType)
			require.Equal(t, []byte(minimalPDF), content.Data)
			require.Equal(t, int64(len(minimalPDF)), content.SizeBytes)
			require.Len(t, content.SHA256, 64)
		})
	}
}

func TestExtractor_SameBytesSameDigest(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.pdf", []byte(minimalPDF))
	b := writeFile(t, dir, "b.pdf", []byte(minimalPDF))

	extractor := pdf.NewExtractor(nil)

	ca, err := extractor.Extract(context.Background(), a)
	require.NoError(t, err)
	cb, err := extractor.Extract(context.Background(), b)
	require.NoError(t, err)

	require.Equal(t, ca.SHA256, cb.SHA256)
}

func TestExtractor_CancelledContext(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ok.pdf", []byte(minimalPDF))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pdf.NewExtractor(nil).Extract(ctx, path)
	require.ErrorIs(t, err, context.Canceled)

	var unreadable *domain.UnreadablePdfError
	require.False(t, errors.As(err, &unreadable), "a cancelled run must not blame the file")
}
