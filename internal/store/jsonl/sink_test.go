package jsonl_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/folio/internal/domain"
	"github.com/davidbz/folio/internal/store/jsonl"
)

func strPtr(s string) *string { return &s }

func TestSink_AppendWritesOneLinePerRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.jsonl")
	sink, err := jsonl.NewSink(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })

	ctx := context.Background()
	require.NoError(t, sink.Append(ctx, domain.ResultRecord{
		Data:  map[string]any{"data": []any{}},
		File:  "a.pdf",
		Model: "m",
		Cost:  0.01,
	}))
	require.NoError(t, sink.Append(ctx, domain.ResultRecord{
		File:  "b.pdf",
		Model: "m",
		Error: strPtr("unreadable pdf b.pdf: not a pdf"),
	}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.Equal(t, "a.pdf", first["file"])
	require.Nil(t, first["error"])
	require.Contains(t, first, "error")

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	require.Nil(t, second["data"])
	require.Contains(t, second, "data")
	require.InDelta(t, 0.0, second["cost"], 0)
	require.Equal(t, "unreadable pdf b.pdf: not a pdf", second["error"])
}

func TestSink_AppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")
	ctx := context.Background()

	for _, name := range []string{"a.pdf", "b.pdf"} {
		sink, err := jsonl.NewSink(path)
		require.NoError(t, err)
		require.NoError(t, sink.Append(ctx, domain.ResultRecord{File: name, Model: "m"}))
		require.NoError(t, sink.Close())
	}

	records, err := jsonl.ReadRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "a.pdf", records[0].File)
	require.Equal(t, "b.pdf", records[1].File)
}

func TestSink_ConcurrentAppendsNeverInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")
	sink, err := jsonl.NewSink(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })

	big := strings.Repeat("x", 8192)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_ = sink.Append(context.Background(), domain.ResultRecord{
				Data:  map[string]any{"blob": big},
				File:  fmt.Sprintf("%02d.pdf", idx),
				Model: "m",
			})
		}(i)
	}
	wg.Wait()

	records, err := jsonl.ReadRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 50)
}

func TestSink_AppendAfterClose(t *testing.T) {
	sink, err := jsonl.NewSink(filepath.Join(t.TempDir(), "results.jsonl"))
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())

	err = sink.Append(context.Background(), domain.ResultRecord{File: "a.pdf"})

	var sinkErr *domain.SinkWriteError
	require.ErrorAs(t, err, &sinkErr)
	require.Equal(t, sink.Path(), sinkErr.Path)
}

func TestSink_IgnoresCancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.jsonl")
	sink, err := jsonl.NewSink(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, sink.Append(ctx, domain.ResultRecord{File: "a.pdf"}))

	records, err := jsonl.ReadRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestNewSink_UnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := jsonl.NewSink(filepath.Join(blocker, "results.jsonl"))
	require.Error(t, err)
}

func TestReadRecords(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		expected  []string
		expectErr bool
	}{
		{
			name:     "complete lines",
			content:  `{"file":"a.pdf"}` + "\n" + `{"file":"b.pdf"}` + "\n",
			expected: []string{"a.pdf", "b.pdf"},
		},
		{
			name:     "torn final line is skipped",
			content:  `{"file":"a.pdf"}` + "\n" + `{"file":"b.p`,
			expected: []string{"a.pdf"},
		},
		{
			name:     "blank lines are ignored",
			content:  "\n" + `{"file":"a.pdf"}` + "\n\n",
			expected: []string{"a.pdf"},
		},
		{
			name:     "empty file",
			content:  "",
			expected: []string{},
		},
		{
			name:      "corrupt middle line",
			content:   `{"file":"a.pdf"}` + "\n" + "garbage\n" + `{"file":"c.pdf"}` + "\n",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "results.jsonl")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			records, err := jsonl.ReadRecords(path)
			if tt.expectErr {
				require.ErrorContains(t, err, "line 2")
				return
			}
			require.NoError(t, err)

			files := make([]string, 0, len(records))
			for _, r := range records {
				files = append(files, r.File)
			}
			require.Equal(t, tt.expected, files)
		})
	}
}

func TestReadRecords_MissingFile(t *testing.T) {
	_, err := jsonl.ReadRecords(filepath.Join(t.TempDir(), "missing.jsonl"))
	require.Error(t, err)
}
