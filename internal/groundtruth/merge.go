// internal/groundtruth/merge.go
package groundtruth

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/vulnbench/internal/normalize"
)

// defaultApproach is recorded for bug-log rows that do not state how the
// defect was introduced.
const defaultApproach = "code snippet injection"

// CategoryStats summarizes the merged entries of one defect category.
type CategoryStats struct {
	Bugs      int
	Artifacts int
}

// MergeStats reports what a merge produced, keyed by category.
type MergeStats struct {
	Total      int
	ByCategory map[string]CategoryStats
}

// Merge walks the per-category bug-log directories under buggyDir
// (<buggyDir>/<category>/BugLog_*.csv), merges every log into a single
// ground-truth CSV at outputPath (columns bug_id, contract, line, bug_type,
// approach) and returns per-category statistics.
//
// The directory name is authoritative for the category: bug-log rows whose
// own label disagrees (often due to "+AC0-" UTF-7 damage in old logs) are
// corrected to it. Artifact names are synthesized from the log file number,
// BugLog_7.csv -> buggy_7.sol. Rows with an unusable line number are skipped
// with a warning.
func Merge(buggyDir, outputPath string, logger *zap.Logger) (*MergeStats, error) {
	logger = logger.Named("merge")

	dirEntries, err := os.ReadDir(buggyDir)
	if err != nil {
		return nil, fmt.Errorf("groundtruth: read %s: %w", buggyDir, err)
	}
	var categories []string
	for _, de := range dirEntries {
		if de.IsDir() {
			categories = append(categories, de.Name())
		}
	}
	sort.Strings(categories)

	type mergedRow struct {
		contract string
		line     int
		category string
		approach string
	}
	var rows []mergedRow
	stats := &MergeStats{ByCategory: make(map[string]CategoryStats)}
	artifacts := make(map[string]map[string]struct{})

	for _, category := range categories {
		logs, err := filepath.Glob(filepath.Join(buggyDir, category, "BugLog_*.csv"))
		if err != nil {
			return nil, fmt.Errorf("groundtruth: glob bug logs for %s: %w", category, err)
		}
		sort.Strings(logs)
		logger.Debug("Merging bug logs.", zap.String("category", category), zap.Int("files", len(logs)))

		for _, logPath := range logs {
			base := filepath.Base(logPath)
			num := strings.TrimSuffix(strings.TrimPrefix(base, "BugLog_"), ".csv")
			contract := fmt.Sprintf("buggy_%s.sol", num)

			logRows, err := readBugLog(logPath)
			if err != nil {
				logger.Warn("Skipping unreadable bug log.", zap.String("path", logPath), zap.Error(err))
				continue
			}
			for _, lr := range logRows {
				line, ok := normalize.CoerceLine(lr.loc)
				if !ok {
					logger.Warn("Skipping bug-log row with invalid line number.",
						zap.String("path", logPath), zap.String("loc", lr.loc))
					continue
				}
				approach := lr.approach
				if approach == "" {
					approach = defaultApproach
				}
				rows = append(rows, mergedRow{contract: contract, line: line, category: category, approach: approach})

				cs := stats.ByCategory[category]
				cs.Bugs++
				if artifacts[category] == nil {
					artifacts[category] = make(map[string]struct{})
				}
				artifacts[category][contract] = struct{}{}
				cs.Artifacts = len(artifacts[category])
				stats.ByCategory[category] = cs
			}
		}
	}
	stats.Total = len(rows)

	out, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("groundtruth: create %s: %w", outputPath, err)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write([]string{"bug_id", "contract", "line", "bug_type", "approach"}); err != nil {
		return nil, fmt.Errorf("groundtruth: write header: %w", err)
	}
	for i, r := range rows {
		record := []string{strconv.Itoa(i + 1), r.contract, strconv.Itoa(r.line), r.category, r.approach}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("groundtruth: write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("groundtruth: flush %s: %w", outputPath, err)
	}

	logger.Info("Merged bug logs into ground truth.",
		zap.String("output", outputPath), zap.Int("entries", stats.Total),
		zap.Int("categories", len(stats.ByCategory)))
	return stats, nil
}

type bugLogRow struct {
	loc      string
	approach string
}

// readBugLog parses one BugLog_*.csv. Only the loc and approach columns are
// used; the log's own "bug type" column is untrusted (see Merge).
func readBugLog(path string) ([]bugLogRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		// Repair UTF-7 style encoding damage seen in old logs (Re+AC0-entrancy).
		name = strings.ReplaceAll(name, "+AC0-", "-")
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	locIdx, ok := cols["loc"]
	if !ok {
		return nil, fmt.Errorf("missing loc column")
	}
	approachIdx, hasApproach := cols["approach"]

	var rows []bugLogRow
	for _, record := range records[1:] {
		row := bugLogRow{loc: strings.TrimSpace(field(record, locIdx))}
		if hasApproach {
			row.approach = strings.TrimSpace(field(record, approachIdx))
		}
		if row.loc == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
