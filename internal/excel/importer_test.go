package excel

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/wordquest/internal/database"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellName, &row))
	}
	path := filepath.Join(t.TempDir(), "words.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestColumnToIndex(t *testing.T) {
	assert.Equal(t, 0, columnToIndex("A"))
	assert.Equal(t, 1, columnToIndex("b"))
	assert.Equal(t, 26, columnToIndex("AA"))
}

func TestReadWordsFromExcel(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"palabra", "nota"},
		{"Casa", "x"},
		{"", "vacía"},
		{" perro ", ""},
	})

	cfg := DefaultImportConfig(path)
	cfg.StartRow = 2
	words, err := ReadWords(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"Casa", "perro"}, words)

	cfg.WordColumn = "B"
	words, err = ReadWords(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "vacía"}, words)
}

func TestReadWordsFromCSVAndText(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "words.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("sueño,1\nárbol,2\n"), 0o600))
	txtPath := filepath.Join(dir, "words.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("# corpus\nmesa\n\nlápiz\n"), 0o600))

	words, err := ReadWords(DefaultImportConfig(csvPath))
	require.NoError(t, err)
	assert.Equal(t, []string{"sueño", "árbol"}, words)

	words, err = ReadWords(DefaultImportConfig(txtPath))
	require.NoError(t, err)
	assert.Equal(t, []string{"mesa", "lápiz"}, words)

	_, err = ReadWords(DefaultImportConfig(filepath.Join(dir, "words.pdf")))
	assert.Error(t, err)
}

func TestImportWordsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, err := database.Open(ctx, database.Options{
		DSN:    filepath.Join(t.TempDir(), "corpus.db"),
		Logger: zerolog.Nop(),
	})
	require.NoError(t, err)
	defer store.Close()

	path := writeWorkbook(t, [][]interface{}{{"casa"}, {"CASA"}, {"dos palabras"}, {"sueño"}})

	res, err := ImportWords(ctx, store, DefaultImportConfig(path))
	require.NoError(t, err)
	assert.Equal(t, &ImportResult{TotalProcessed: 4, Created: 2, Skipped: 2}, res)

	res, err = ImportWords(ctx, store, DefaultImportConfig(path))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)

	n, err := store.CountWords(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
