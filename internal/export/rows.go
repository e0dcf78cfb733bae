package export

import (
	"encoding/json"
	"sort"
	"strconv"
)

// table flattens a payload into columns and string rows. A payload holding a
// "data" array of objects yields one row per element; any other payload is a
// single row of its top-level keys.
func table(payload map[string]any, preferred []string) ([]string, [][]string) {
	if len(payload) == 0 {
		return nil, nil
	}

	var objects []map[string]any
	if items, ok := payload["data"].([]any); ok {
		for _, item := range items {
			if obj, isObj := item.(map[string]any); isObj {
				objects = append(objects, obj)
			}
		}
	} else {
		objects = []map[string]any{payload}
	}

	if len(objects) == 0 {
		return nil, nil
	}

	columns := orderColumns(objects, preferred)
	rows := make([][]string, 0, len(objects))
	for _, obj := range objects {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = formatValue(obj[col])
		}
		rows = append(rows, row)
	}

	return columns, rows
}

// orderColumns puts preferred columns first, in their given order, then any
// other keys alphabetically.
func orderColumns(objects []map[string]any, preferred []string) []string {
	present := make(map[string]bool)
	for _, obj := range objects {
		for k := range obj {
			present[k] = true
		}
	}

	columns := make([]string, 0, len(present))
	for _, col := range preferred {
		if present[col] {
			columns = append(columns, col)
			delete(present, col)
		}
	}

	rest := make([]string, 0, len(present))
	for k := range present {
		rest = append(rest, k)
	}
	sort.Strings(rest)

	return append(columns, rest...)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}
