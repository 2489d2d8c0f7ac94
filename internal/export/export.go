package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/pbiosca-fulcrum/truthsocialscraping/pkg/truthsocial"
)

// Format names accepted by NewWriter
const (
	FormatJSONL = "jsonl"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

// Writer receives scraped items one at a time and produces an artifact
// file. Close must be called to finalize the artifact.
type Writer interface {
	Write(item truthsocial.Item) error
	Close() error
}

// NewWriter opens an artifact writer for the given format at path
func NewWriter(format, path string) (Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create export file: %w", err)
	}

	switch format {
	case FormatJSONL:
		return &jsonlWriter{file: file, enc: json.NewEncoder(file)}, nil
	case FormatJSON:
		return &jsonWriter{file: file}, nil
	case FormatCSV:
		return &csvWriter{file: file, w: csv.NewWriter(file)}, nil
	default:
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("unknown export format: %s", format)
	}
}

// DefaultPath builds an artifact path like
// <dir>/<handle>_<stream>_20260830T120000Z.jsonl.
func DefaultPath(dir, handle, stream, format string) string {
	stamp := time.Now().UTC().Format("20060102T150405Z")
	name := fmt.Sprintf("%s_%s_%s.%s", handle, stream, stamp, format)
	return filepath.Join(dir, name)
}

// jsonlWriter emits one JSON object per line
type jsonlWriter struct {
	file *os.File
	enc  *json.Encoder
}

func (w *jsonlWriter) Write(item truthsocial.Item) error {
	return w.enc.Encode(item)
}

func (w *jsonlWriter) Close() error {
	return w.file.Close()
}

// jsonWriter buffers items and writes a single indented JSON array on Close
type jsonWriter struct {
	file  *os.File
	items []truthsocial.Item
}

func (w *jsonWriter) Write(item truthsocial.Item) error {
	w.items = append(w.items, item)
	return nil
}

func (w *jsonWriter) Close() error {
	enc := json.NewEncoder(w.file)
	enc.SetIndent("", "  ")
	if w.items == nil {
		w.items = []truthsocial.Item{}
	}
	if err := enc.Encode(w.items); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to encode items: %w", err)
	}
	return w.file.Close()
}

// csvWriter emits a header from the first item's keys, then one row per
// item. Columns missing from later items are left empty; extra keys on later
// items are dropped. Nested values are JSON-encoded into their cell.
type csvWriter struct {
	file    *os.File
	w       *csv.Writer
	columns []string
}

func (w *csvWriter) Write(item truthsocial.Item) error {
	if w.columns == nil {
		w.columns = make([]string, 0, len(item))
		for k := range item {
			w.columns = append(w.columns, k)
		}
		sort.Strings(w.columns)
		if err := w.w.Write(w.columns); err != nil {
			return fmt.Errorf("failed to write csv header: %w", err)
		}
	}

	row := make([]string, len(w.columns))
	for i, col := range w.columns {
		row[i] = cellValue(item[col])
	}
	if err := w.w.Write(row); err != nil {
		return fmt.Errorf("failed to write csv row: %w", err)
	}
	return nil
}

func (w *csvWriter) Close() error {
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return w.file.Close()
}

// cellValue renders an item field as a CSV cell
func cellValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		// JSON numbers decode as float64; most fields here are counts.
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(data)
	}
}
