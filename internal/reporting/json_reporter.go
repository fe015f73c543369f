// internal/reporting/json_reporter.go
package reporting

import (
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/vulnbench/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonReporter writes the full summary envelope as pretty-printed JSON, the
// format downstream analysis scripts consume.
type jsonReporter struct {
	writer io.WriteCloser
}

// NewJSONReporter creates a JSON reporter. It takes ownership of the writer.
func NewJSONReporter(writer io.WriteCloser) Reporter {
	return &jsonReporter{writer: writer}
}

func (r *jsonReporter) Write(summary *schemas.Summary) error {
	// Round scores on a copy; the caller's summary stays full-precision.
	out := *summary
	out.Metrics = roundMetrics(out.Metrics)
	if len(out.ByCategory) > 0 {
		rows := make([]schemas.CategoryMetrics, len(out.ByCategory))
		copy(rows, out.ByCategory)
		for i := range rows {
			rows[i].Metrics = roundMetrics(rows[i].Metrics)
		}
		out.ByCategory = rows
	}

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize summary to JSON: %w", err)
	}
	if _, err := r.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write JSON summary: %w", err)
	}
	return nil
}

func (r *jsonReporter) Close() error {
	return r.writer.Close()
}

func roundMetrics(m schemas.Metrics) schemas.Metrics {
	m.Precision = round4(m.Precision)
	m.Recall = round4(m.Recall)
	m.F1 = round4(m.F1)
	return m
}
