package vocabulary

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "words1.json", `{"cat": "/kæt/", "dog": "/dɒg/"}`)

	words, err := New(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"cat": "/kæt/", "dog": "/dɒg/"}, words)
}

func TestLoadIsRepeatable(t *testing.T) {
	path := writeFile(t, "words1.json", `{"cat": "/kæt/"}`)
	store := New(path, "")

	first, err := store.Load()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"cat": "/kæt/", "dog": "/dɒg/"}`), 0644))
	second, err := store.Load()
	require.NoError(t, err)

	assert.Len(t, first, 1)
	assert.Len(t, second, 2)
}

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, "words.csv", "word,transcription\ncat,/kæt/\n\ndog, /dɒg/\n")

	words, err := New(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"cat": "/kæt/", "dog": "/dɒg/"}, words)
}

func TestLoadExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", "Word"))
	require.NoError(t, f.SetCellValue(sheet, "B1", "IPA"))
	require.NoError(t, f.SetCellValue(sheet, "A2", "cat"))
	require.NoError(t, f.SetCellValue(sheet, "B2", "/kæt/"))
	require.NoError(t, f.SetCellValue(sheet, "A3", "thought"))
	require.NoError(t, f.SetCellValue(sheet, "B3", "/θɔːt/"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	words, err := New(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"cat": "/kæt/", "thought": "/θɔːt/"}, words)
}

func TestLoadExcelUnknownSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue(f.GetSheetName(0), "A1", "cat"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := New(path, "Missing").Load()
	assert.ErrorIs(t, err, ErrResource)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json array", "w.json", `["cat", "dog"]`},
		{"json non-string value", "w.json", `{"cat": 1}`},
		{"json empty transcription", "w.json", `{"cat": ""}`},
		{"json empty word", "w.json", `{" ": "/kæt/"}`},
		{"json repeated key", "w.json", `{"cat":"/kæt/","cat":"/kat/"}`},
		{"json trailing data", "w.json", `{"cat": "/kæt/"} {"dog": "/dɒɡ/"}`},
		{"json null", "w.json", `null`},
		{"json duplicate after trim", "w.json", `{"cat": "/kæt/", " cat": "/kæt/"}`},
		{"json empty object", "w.json", `{}`},
		{"invalid json", "w.json", `{"cat":`},
		{"csv single column", "w.csv", "cat\n"},
		{"csv duplicate", "w.csv", "cat,/kæt/\ncat,/kat/\n"},
		{"unsupported extension", "w.txt", "cat=/kæt/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)

			words, err := New(path, "").Load()
			require.Error(t, err)
			assert.Nil(t, words)
			assert.True(t, errors.Is(err, ErrResource), "expected ErrResource, got %v", err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.json"), "").Load()

	var rerr *ResourceError
	require.True(t, errors.As(err, &rerr))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
