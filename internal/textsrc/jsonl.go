package textsrc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Record is one input document of a batch.
type Record struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	HTML     bool           `json:"html,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ReadJSONL reads one record per line. Blank lines are ignored and
// malformed lines are logged and skipped.
func ReadJSONL(r io.Reader, name string, logger *zap.Logger) ([]Record, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var records []Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			logger.Warn("skipping malformed JSON",
				zap.String("source", name),
				zap.Int("line", line),
				zap.Error(err),
			)
			continue
		}
		if rec.HTML {
			rec.Text = HTMLText(rec.Text)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return records, nil
}

// LoadJSONL reads records from a file, or from stdin when path is "-".
func LoadJSONL(path string, logger *zap.Logger) ([]Record, error) {
	if path == "-" {
		return ReadJSONL(os.Stdin, "stdin", logger)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSONL(f, path, logger)
}
