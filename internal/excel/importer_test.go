package excel

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type introduced struct {
	learnerID int64
	itemID    string
	itemType  string
	metadata  map[string]string
}

type fakeIntroducer struct {
	existing map[string]bool
	calls    []introduced
	failOn   string
}

func (f *fakeIntroducer) Introduce(_ context.Context, learnerID int64, itemID, itemType string, metadata map[string]string) (bool, error) {
	if itemID == f.failOn {
		return false, errors.New("storage unavailable")
	}
	f.calls = append(f.calls, introduced{learnerID, itemID, itemType, metadata})
	if f.existing[itemID] {
		return false, nil
	}
	if f.existing == nil {
		f.existing = make(map[string]bool)
	}
	f.existing[itemID] = true
	return true, nil
}

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	const sheet = "Sheet1"
	f := excelize.NewFile()
	defer f.Close()
	for r, row := range rows {
		for c, v := range row {
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, name, v))
		}
	}
	path := filepath.Join(t.TempDir(), "items.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestImportExcel(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"id", "type", "front", "back"},
		{"alpha", "letter", "α", "alpha"},
		{"house", "vocabulary", "das Haus", ""},
		{"", "grammar", "orphan", ""},
		{"dative", "", "dem", ""},
	})

	items := &fakeIntroducer{}
	config := DefaultImportConfig()
	config.FilePath = path
	result, err := NewImporter(items).Import(context.Background(), 42, config)
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalProcessed)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Skipped)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Row 4")
	assert.Contains(t, result.Errors[1], "Row 5")

	require.Len(t, items.calls, 2)
	assert.Equal(t, introduced{42, "alpha", "letter", map[string]string{"front": "α", "back": "alpha"}}, items.calls[0])
	assert.Equal(t, map[string]string{"front": "das Haus"}, items.calls[1].metadata)
}

func TestImportSkipsExistingItems(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"id", "type"},
		{"a", "letter"},
		{"b", "letter"},
	})
	items := &fakeIntroducer{existing: map[string]bool{"a": true}}
	config := DefaultImportConfig()
	config.FilePath = path
	config.SheetName = "Sheet1"

	result, err := NewImporter(items).Import(context.Background(), 1, config)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalProcessed)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.Errors)
	assert.Nil(t, items.calls[0].metadata)
}

func TestImportCSVWithoutHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.csv")
	content := "der,,article\n\n\"die\",grammar,article,feminine\nbroken,grammar\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	items := &fakeIntroducer{failOn: "broken"}
	config := ImportConfig{
		FilePath:    path,
		IDColumn:    "A",
		TypeColumn:  "B",
		DefaultType: "grammar",
	}
	result, err := NewImporter(items).Import(context.Background(), 7, config)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 2, result.Created)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "storage unavailable")

	require.Len(t, items.calls, 2)
	assert.Equal(t, introduced{7, "der", "grammar", map[string]string{"C": "article"}}, items.calls[0])
	assert.Equal(t, map[string]string{"C": "article", "D": "feminine"}, items.calls[1].metadata)
}

func TestImportErrors(t *testing.T) {
	im := NewImporter(&fakeIntroducer{})

	config := DefaultImportConfig()
	config.FilePath = filepath.Join(t.TempDir(), "missing.xlsx")
	_, err := im.Import(context.Background(), 1, config)
	assert.Error(t, err)

	config.FilePath = writeWorkbook(t, [][]any{{"id", "type"}})
	config.SheetName = "Nope"
	_, err = im.Import(context.Background(), 1, config)
	assert.Error(t, err)

	config.SheetName = ""
	config.IDColumn = "1"
	_, err = im.Import(context.Background(), 1, config)
	assert.Error(t, err)
}

func TestColumnToIndex(t *testing.T) {
	for column, want := range map[string]int{"A": 0, "b": 1, "Z": 25, "AA": 26} {
		got, err := columnToIndex(column)
		require.NoError(t, err)
		assert.Equal(t, want, got, column)
	}
	_, err := columnToIndex("")
	assert.Error(t, err)
}
