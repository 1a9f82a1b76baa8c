// Package vocabulary loads the static word → IPA transcription mapping the
// activity is drilled on. The resource is re-read on every Load so callers
// always see the file as it currently is.
package vocabulary

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrResource is matched by every load failure
var ErrResource = errors.New("vocabulary resource error")

// ResourceError describes a missing or malformed vocabulary resource
type ResourceError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ResourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vocabulary %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("vocabulary %s: %s", e.Path, e.Reason)
}

func (e *ResourceError) Unwrap() error { return e.Err }

func (e *ResourceError) Is(target error) bool { return target == ErrResource }

// Store reads the vocabulary from a file. The format follows the extension:
// .json (object of word to transcription), .csv or .xlsx (word, transcription columns).
type Store struct {
	Path string
	// Sheet is the worksheet used for .xlsx files; the first sheet when empty.
	Sheet string
}

// New creates a store for the given resource path
func New(path, sheet string) *Store {
	return &Store{Path: path, Sheet: sheet}
}

// Load reads the whole mapping
func (s *Store) Load() (map[string]string, error) {
	var (
		words map[string]string
		err   error
	)

	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".json":
		words, err = s.loadJSON()
	case ".csv":
		words, err = s.loadCSV()
	case ".xlsx":
		words, err = s.loadExcel()
	default:
		return nil, s.fail("unsupported format", nil)
	}
	if err != nil {
		return nil, err
	}

	if len(words) == 0 {
		return nil, s.fail("no words", nil)
	}
	return words, nil
}

func (s *Store) fail(reason string, err error) error {
	return &ResourceError{Path: s.Path, Reason: reason, Err: err}
}

func (s *Store) loadJSON() (map[string]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, s.fail("failed to read file", err)
	}

	// Walked token by token so a repeated key fails instead of overwriting.
	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, s.fail("not a word to transcription object", err)
	}

	words := make(map[string]string)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, s.fail("not a word to transcription object", err)
		}
		word, _ := tok.(string)

		var ipa string
		if err := dec.Decode(&ipa); err != nil {
			return nil, s.fail(fmt.Sprintf("transcription for %q is not a string", word), err)
		}
		if err := s.add(words, word, ipa); err != nil {
			return nil, err
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, s.fail("not a word to transcription object", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, s.fail("unexpected data after the object", err)
	}
	return words, nil
}

func (s *Store) loadCSV() (map[string]string, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		return nil, s.fail("failed to open file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.TrimLeadingSpace = true

	words := make(map[string]string)
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, s.fail("error reading CSV", err)
		}
		rowNum++

		if err := s.addRow(words, row, rowNum); err != nil {
			return nil, err
		}
	}
	return words, nil
}

func (s *Store) loadExcel() (map[string]string, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, s.fail("failed to open Excel file", err)
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, s.fail(fmt.Sprintf("failed to get rows of sheet %q", sheet), err)
	}

	words := make(map[string]string)
	for i, row := range rows {
		if err := s.addRow(words, row, i+1); err != nil {
			return nil, err
		}
	}
	return words, nil
}

// addRow handles one tabular row. Blank rows are skipped, and so is a first
// row whose first cell reads "word".
func (s *Store) addRow(words map[string]string, row []string, rowNum int) error {
	if isBlank(row) {
		return nil
	}
	if rowNum == 1 && len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "word") {
		return nil
	}
	if len(row) < 2 {
		return s.fail(fmt.Sprintf("row %d: expected word and transcription", rowNum), nil)
	}
	return s.add(words, row[0], row[1])
}

func (s *Store) add(words map[string]string, word, ipa string) error {
	word = strings.TrimSpace(word)
	ipa = strings.TrimSpace(ipa)
	if word == "" {
		return s.fail("empty word", nil)
	}
	if ipa == "" {
		return s.fail(fmt.Sprintf("empty transcription for %q", word), nil)
	}
	if _, dup := words[word]; dup {
		return s.fail(fmt.Sprintf("duplicate word %q", word), nil)
	}
	words[word] = ipa
	return nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
