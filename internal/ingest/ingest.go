// internal/ingest/ingest.go
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/vulnbench/api/schemas"
	"github.com/xkilldash9x/vulnbench/internal/normalize"
	"github.com/xkilldash9x/vulnbench/internal/recovery"
)

// resultSuffix identifies per-artifact analyzer reports inside a results
// tree (analyzed contract "buggy_7.sol" -> "buggy_7.sol.json").
const resultSuffix = ".sol.json"

// Loader reads analyzer result files and turns them into normalized
// findings.
type Loader struct {
	logger      *zap.Logger
	concurrency int
}

// NewLoader creates a findings loader. concurrency bounds the file worker
// pool; values < 1 default to the CPU count.
func NewLoader(logger *zap.Logger, concurrency int) *Loader {
	if concurrency < 1 {
		concurrency = runtime.NumCPU()
	}
	return &Loader{
		logger:      logger.Named("ingest"),
		concurrency: concurrency,
	}
}

// LoadDir walks root for analyzer result files and returns their findings
// concatenated in sorted path order, so the output is deterministic
// regardless of worker scheduling. Unreadable or unrecoverable files log a
// warning and contribute zero findings; only the directory walk itself and
// context cancellation are errors.
func (l *Loader) LoadDir(ctx context.Context, root string) ([]schemas.Finding, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), resultSuffix) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: walk %s: %w", root, err)
	}
	sort.Strings(paths)

	// One result slot per file keeps the final concatenation in path order.
	perFile := make([][]schemas.Finding, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			perFile[i] = l.loadFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	var findings []schemas.Finding
	for _, batch := range perFile {
		findings = append(findings, batch...)
	}
	l.logger.Debug("Loaded analyzer results.",
		zap.String("root", root), zap.Int("files", len(paths)), zap.Int("findings", len(findings)))
	return findings, nil
}

// loadFile recovers and normalizes a single result file. All failure modes
// degrade to zero findings.
func (l *Loader) loadFile(path string) []schemas.Finding {
	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.Warn("Could not read result file.", zap.String("path", path), zap.Error(err))
		return nil
	}

	obj := recovery.Recover(string(data))
	raw := recovery.Findings(obj)
	if len(raw) == 0 {
		if len(obj) == 0 {
			l.logger.Warn("Could not recover a findings object from result file.", zap.String("path", path))
		}
		return nil
	}

	artifact, category := l.attribute(obj, path)
	return normalize.Normalize(raw, artifact, category)
}

// attribute resolves the artifact and category a file's findings belong to.
// The report's own contract/bug_type fields win; path segments fill the gaps
// (results trees are laid out <category>/results/<artifact>.json).
func (l *Loader) attribute(obj map[string]any, path string) (artifact, category string) {
	if s, ok := obj["contract"].(string); ok {
		artifact = strings.TrimSpace(s)
	}
	if s, ok := obj["bug_type"].(string); ok {
		category = strings.TrimSpace(s)
	}
	if artifact == "" {
		artifact = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	if category == "" {
		category = filepath.Base(filepath.Dir(filepath.Dir(path)))
	}
	return artifact, category
}
