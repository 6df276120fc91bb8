package excel

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath    string // Path to the Excel or CSV file
	SheetName   string // Sheet to import; the first sheet when empty
	IDColumn    string // Column with the item ID
	TypeColumn  string // Column with the item type
	DefaultType string // Type used when the type cell is empty
	HeaderRow   int    // Row holding metadata names (1-based, 0 when the file has no header)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		IDColumn:   "A",
		TypeColumn: "B",
		HeaderRow:  1,
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// Introducer adds items to a learner's deck without touching existing progress.
type Introducer interface {
	Introduce(ctx context.Context, learnerID int64, itemID, itemType string, metadata map[string]string) (bool, error)
}

// Importer loads item definitions from spreadsheets into a learner's deck.
type Importer struct {
	items Introducer
}

// NewImporter creates a new importer
func NewImporter(items Introducer) *Importer {
	return &Importer{items: items}
}

// Import reads config.FilePath and introduces every row as an item for learnerID.
// Row level problems are collected in the result; only unreadable files fail the import.
func (im *Importer) Import(ctx context.Context, learnerID int64, config ImportConfig) (*ImportResult, error) {
	idCol, err := columnToIndex(config.IDColumn)
	if err != nil {
		return nil, fmt.Errorf("invalid ID column: %w", err)
	}
	typeCol, err := columnToIndex(config.TypeColumn)
	if err != nil {
		return nil, fmt.Errorf("invalid type column: %w", err)
	}

	rows, err := ReadRows(config)
	if err != nil {
		return nil, err
	}

	var header []string
	start := 0
	if config.HeaderRow > 0 {
		if config.HeaderRow <= len(rows) {
			header = rows[config.HeaderRow-1]
		}
		start = config.HeaderRow
	}

	result := &ImportResult{
		Errors: make([]string, 0),
	}
	for i := start; i < len(rows); i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		row := rows[i]
		if isBlank(row) {
			continue
		}
		result.TotalProcessed++

		rowNum := i + 1
		itemID := cell(row, idCol)
		itemType := cell(row, typeCol)
		if itemType == "" {
			itemType = config.DefaultType
		}
		if itemID == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: item ID cannot be empty", rowNum))
			continue
		}
		if itemType == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: item type cannot be empty", rowNum))
			continue
		}

		created, err := im.items.Introduce(ctx, learnerID, itemID, itemType, rowMetadata(row, header, idCol, typeCol))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		if created {
			result.Created++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}

// ReadRows returns the raw rows of an Excel or CSV file.
func ReadRows(config ImportConfig) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(config.FilePath), ".csv") {
		return readCSV(config.FilePath)
	}
	return readExcel(config)
}

// readExcel reads all rows of the configured sheet
func readExcel(config ImportConfig) ([][]string, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := config.SheetName
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// readCSV reads all records of a CSV file
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// rowMetadata maps every non-empty cell outside the ID and type columns to its header.
// Columns without a header are keyed by their letter.
func rowMetadata(row, header []string, idCol, typeCol int) map[string]string {
	var metadata map[string]string
	for i := range row {
		if i == idCol || i == typeCol {
			continue
		}
		value := cell(row, i)
		if value == "" {
			continue
		}
		key := cell(header, i)
		if key == "" {
			key, _ = excelize.ColumnNumberToName(i + 1)
		}
		if metadata == nil {
			metadata = make(map[string]string)
		}
		metadata[key] = value
	}
	return metadata
}

// columnToIndex converts an Excel column letter to a zero-based index
func columnToIndex(column string) (int, error) {
	n, err := excelize.ColumnNameToNumber(strings.TrimSpace(column))
	if err != nil {
		return 0, err
	}
	return n - 1, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
