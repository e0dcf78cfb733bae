package export

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCellWriter_KeepsFirstError(t *testing.T) {
	tests := []struct {
		name    string
		write   func(w *cellWriter)
		message string
	}{
		{
			name:    "row beyond the sheet limit",
			write:   func(w *cellWriter) { w.set("Sheet1", 1, excelize.TotalRows+1, "x") },
			message: "column 1 row 1048577",
		},
		{
			name:    "missing sheet",
			write:   func(w *cellWriter) { w.set("Missing", 1, 1, "x") },
			message: "xlsx write Missing!A1",
		},
		{
			name:    "column width too large",
			write:   func(w *cellWriter) { w.width("Sheet1", "A", "A", excelize.MaxColumnWidth+1) },
			message: "xlsx column width A:A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := excelize.NewFile()
			defer f.Close()

			w := &cellWriter{f: f}
			tt.write(w)
			require.Error(t, w.err)
			require.Contains(t, w.err.Error(), tt.message)

			first := w.err
			w.set("Sheet1", 1, 1, "after")
			w.set("Missing", 0, 0, "after")
			require.Equal(t, first, w.err)

			value, err := f.GetCellValue("Sheet1", "A1")
			require.NoError(t, err)
			require.Empty(t, value)
		})
	}
}
