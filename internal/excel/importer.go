package excel

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/wordquest/internal/database"
)

// Seeder stores corpus words.
type Seeder interface {
	SeedWords(ctx context.Context, words []string) (database.SeedResult, error)
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath   string // .xlsx, .csv or .txt
	WordColumn string // column with the word, "A" by default
	SheetName  string // sheet to read; the first sheet when empty
	StartRow   int    // first row to import (1-based)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig(path string) ImportConfig {
	return ImportConfig{
		FilePath:   path,
		WordColumn: "A",
		StartRow:   1,
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
}

// ImportWords reads the file described by config and seeds its words.
// Words that are already present or are not single words are skipped.
func ImportWords(ctx context.Context, seeder Seeder, config ImportConfig) (*ImportResult, error) {
	words, err := ReadWords(config)
	if err != nil {
		return nil, err
	}

	res, err := seeder.SeedWords(ctx, words)
	if err != nil {
		return nil, fmt.Errorf("failed to seed words: %w", err)
	}
	return &ImportResult{
		TotalProcessed: len(words),
		Created:        res.Inserted,
		Skipped:        res.Skipped,
	}, nil
}

// ReadWords returns the raw cell values of the word column.
func ReadWords(config ImportConfig) ([]string, error) {
	if config.WordColumn == "" {
		config.WordColumn = "A"
	}
	if config.StartRow < 1 {
		config.StartRow = 1
	}

	switch strings.ToLower(filepath.Ext(config.FilePath)) {
	case ".xlsx", ".xlsm":
		return readExcel(config)
	case ".csv":
		return readCSV(config)
	case ".txt", "":
		return readLines(config)
	}
	return nil, fmt.Errorf("unsupported corpus file %q", config.FilePath)
}

func readExcel(config ImportConfig) ([]string, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheet := config.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	col := columnToIndex(config.WordColumn)
	var words []string
	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		if w := cell(row, col); w != "" {
			words = append(words, w)
		}
	}
	return words, nil
}

func readCSV(config ImportConfig) ([]string, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	col := columnToIndex(config.WordColumn)
	var words []string
	for rowNum := 1; ; rowNum++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV row %d: %w", rowNum, err)
		}
		if rowNum < config.StartRow {
			continue
		}
		if w := cell(row, col); w != "" {
			words = append(words, w)
		}
	}
	return words, nil
}

func readLines(config ImportConfig) ([]string, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open word list: %w", err)
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for rowNum := 1; scanner.Scan(); rowNum++ {
		if rowNum < config.StartRow {
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading word list: %w", err)
	}
	return words, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// columnToIndex converts an Excel column letter to a zero-based index.
func columnToIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
