package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goosewin/qagen/internal/qa"
	"github.com/goosewin/qagen/internal/store"
)

func writeDataset(t *testing.T, dir, name string, records ...qa.Record) string {
	t.Helper()
	path, err := (&store.CSVStore{Dir: dir}).Append(records, name)
	require.NoError(t, err)
	return path
}

func TestMergeDropsDuplicates(t *testing.T) {
	dir := t.TempDir()
	a := writeDataset(t, dir, "a",
		qa.Record{Input: "hỏi 1", Output: "đáp 1"},
		qa.Record{Input: "hỏi 2", Output: "đáp 2"},
	)
	b := writeDataset(t, dir, "b",
		qa.Record{Input: "hỏi 2", Output: "đáp 2"},
		qa.Record{Input: "hỏi 2", Output: "đáp khác"},
	)
	broken := filepath.Join(dir, "broken.csv")
	require.NoError(t, os.WriteFile(broken, []byte("foo,bar\n1,2\n"), 0o644))

	result := Merge([]string{a, b, broken})

	assert.Equal(t, 4, result.Original)
	assert.Equal(t, 1, result.Duplicates())
	assert.Equal(t, []qa.Record{
		{Input: "hỏi 1", Output: "đáp 1"},
		{Input: "hỏi 2", Output: "đáp 2"},
		{Input: "hỏi 2", Output: "đáp khác"},
	}, result.Records)
	require.Len(t, result.Files, 3)
	assert.Equal(t, 2, result.Files[1].Rows)
	assert.Error(t, result.Files[2].Err)
}

func TestFindCSVSkipsHiddenDirs(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, "top", qa.Record{Input: "a", Output: "b"})
	writeDataset(t, dir, filepath.Join("marathon_finals", "final"), qa.Record{Input: "a", Output: "b"})
	writeDataset(t, dir, filepath.Join(".qagen", "hidden"), qa.Record{Input: "a", Output: "b"})

	files, err := FindCSV(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "marathon_finals", "final.csv"), files[0].Path)
	assert.Equal(t, filepath.Join(dir, "top.csv"), files[1].Path)
	assert.Positive(t, files[1].Size)
}

func TestMatchPattern(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, "topic_1_x", qa.Record{Input: "a", Output: "b"})
	writeDataset(t, dir, "demo_1", qa.Record{Input: "a", Output: "b"})

	paths, err := Match(dir, "topic_*")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "topic_1_x.csv")}, paths)
}

func TestAnalyze(t *testing.T) {
	dir := t.TempDir()
	path := writeDataset(t, dir, "data",
		qa.Record{Input: "ăn", Output: "dạ vâng"},
		qa.Record{Input: "đi chợ", Output: "ạ"},
		qa.Record{Input: "ngủ", Output: "chúc ngủ ngon"},
		qa.Record{Input: "x", Output: "y"},
	)

	report, err := Analyze(path)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Rows)
	assert.Equal(t, []string{"input", "output"}, report.Columns)
	assert.Equal(t, LengthStats{Min: 1, Max: 6, Mean: 3}, report.Input)
	assert.Equal(t, 1, report.Output.Min)
	assert.Equal(t, 13, report.Output.Max)
	assert.Len(t, report.Samples, 3)
	assert.Positive(t, report.Size)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "xin", Truncate("xin", 5))
	assert.Equal(t, "chà...", Truncate("chào bác", 3))
}

func TestFindCleanableAndRemove(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, filepath.Join("marathon_rounds_abc", "r1"), qa.Record{Input: "a", Output: "b"})
	writeDataset(t, dir, filepath.Join("marathon_rounds_abc", "r2"), qa.Record{Input: "a", Output: "b"})
	writeDataset(t, dir, filepath.Join("marathon_finals", "f"), qa.Record{Input: "a", Output: "b"})
	writeDataset(t, dir, "demo_1", qa.Record{Input: "a", Output: "b"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o644))

	items, err := FindCleanable(dir)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.True(t, items[0].IsDir)
	assert.Equal(t, filepath.Join(dir, "marathon_finals"), items[0].Path)
	assert.Equal(t, 2, items[1].Files)
	assert.False(t, items[2].IsDir)

	removed, errs := Remove(items)
	assert.Empty(t, errs)
	assert.Equal(t, 3, removed)
	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err)
}
