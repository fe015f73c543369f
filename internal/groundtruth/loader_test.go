// internal/groundtruth/loader_test.go
package groundtruth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vulnbench/api/schemas"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ground_truth.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeTempCSV(t, `bug_id,contract,line,bug_type,approach
1,buggy_1.sol,10,Re-entrancy,code snippet injection
2,buggy_1.sol,25,TOD,code snippet injection
3,buggy_2.sol,7,tx.origin,code snippet injection
`)

	entries, err := Load(path, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, schemas.GroundTruthEntry{Artifact: "buggy_1.sol", Category: "Re-entrancy", Position: 10}, entries[0])
	assert.Equal(t, schemas.GroundTruthEntry{Artifact: "buggy_2.sol", Category: "tx.origin", Position: 7}, entries[2])
}

func TestLoad_ColumnOrderAndCaseAreFlexible(t *testing.T) {
	// Only the named columns matter, whatever their order or casing.
	path := writeTempCSV(t, `Line,Bug_Type,Contract
42,Re-entrancy,buggy_3.sol
`)

	entries, err := Load(path, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "buggy_3.sol", entries[0].Artifact)
	assert.Equal(t, 42, entries[0].Position)
}

func TestLoad_SkipsMalformedRows(t *testing.T) {
	path := writeTempCSV(t, `contract,line,bug_type
buggy_1.sol,10,Re-entrancy
buggy_1.sol,not-a-line,Re-entrancy
buggy_1.sol,0,Re-entrancy
,12,Re-entrancy
buggy_1.sol,12,
buggy_1.sol,13.0,TOD
short,row
`)

	entries, err := Load(path, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 10, entries[0].Position)
	// Float-formatted line numbers are coerced.
	assert.Equal(t, 13, entries[1].Position)
	assert.Equal(t, "TOD", entries[1].Category)
}

func TestLoad_DeduplicatesPreservingOrder(t *testing.T) {
	path := writeTempCSV(t, `contract,line,bug_type
buggy_1.sol,10,TOD
buggy_1.sol,20,TOD
buggy_1.sol,10,TOD
`)

	entries, err := Load(path, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 10, entries[0].Position)
	assert.Equal(t, 20, entries[1].Position)
}

func TestLoad_MissingColumnIsError(t *testing.T) {
	path := writeTempCSV(t, `contract,line
buggy_1.sol,10
`)

	_, err := Load(path, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bug_type")
}

func TestLoad_MissingFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), zap.NewNop())
	require.Error(t, err)
}

func TestLoad_EmptyFileIsError(t *testing.T) {
	path := writeTempCSV(t, "")
	_, err := Load(path, zap.NewNop())
	require.Error(t, err)
}
