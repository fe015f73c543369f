// internal/groundtruth/loader.go
package groundtruth

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/vulnbench/api/schemas"
	"github.com/xkilldash9x/vulnbench/internal/normalize"
)

// Load reads a ground-truth CSV (header row with at least contract, line and
// bug_type columns) into a deduplicated, order-preserving entry list. Rows
// missing a field or with a non-positive/unparseable line are skipped with a
// logged warning; only I/O and header problems are errors. Exact duplicate
// (contract, bug_type, line) tuples collapse to their first occurrence, which
// gives the set semantics the match engine expects.
func Load(path string, logger *zap.Logger) ([]schemas.GroundTruthEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("groundtruth: open %s: %w", path, err)
	}
	defer f.Close()
	return parse(f, path, logger)
}

func parse(r io.Reader, path string, logger *zap.Logger) ([]schemas.GroundTruthEntry, error) {
	logger = logger.Named("groundtruth")

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Tolerate ragged rows; they are skipped below.
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("groundtruth: read header of %s: %w", path, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"contract", "line", "bug_type"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("groundtruth: %s is missing required column %q", path, required)
		}
	}

	var entries []schemas.GroundTruthEntry
	seen := make(map[schemas.GroundTruthEntry]struct{})
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			logger.Warn("Skipping unreadable ground-truth row.",
				zap.String("path", path), zap.Int("row", row), zap.Error(err))
			continue
		}

		entry := schemas.GroundTruthEntry{
			Artifact: strings.TrimSpace(field(record, cols["contract"])),
			Category: strings.TrimSpace(field(record, cols["bug_type"])),
		}
		line, ok := normalize.CoerceLine(field(record, cols["line"]))
		if !ok || entry.Artifact == "" || entry.Category == "" {
			logger.Warn("Skipping malformed ground-truth row.",
				zap.String("path", path), zap.Int("row", row),
				zap.String("contract", entry.Artifact), zap.String("bug_type", entry.Category))
			continue
		}
		entry.Position = line

		if _, dup := seen[entry]; dup {
			continue
		}
		seen[entry] = struct{}{}
		entries = append(entries, entry)
	}

	logger.Debug("Loaded ground truth.", zap.String("path", path), zap.Int("entries", len(entries)))
	return entries, nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
