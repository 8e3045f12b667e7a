package journal

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"habitjournal/internal/logging"
)

// ErrNoData is returned when the journal file does not exist yet.
var ErrNoData = errors.New("no data available")

// Store persists the journal as a CSV file and mirrors it to JSON on every
// submission. Every write rewrites the whole file.
//
// The mutex only serializes writers inside this process; another process
// editing the same file still races and the last writer wins.
type Store struct {
	mu       sync.Mutex
	csvPath  string
	jsonPath string
}

// NewStore creates a store. An empty jsonPath disables the mirror.
func NewStore(csvPath, jsonPath string) *Store {
	return &Store{csvPath: csvPath, jsonPath: jsonPath}
}

// Path returns the CSV location.
func (s *Store) Path() string { return s.csvPath }

// Load reads the whole CSV file. It returns ErrNoData when the file is missing.
func (s *Store) Load() (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (*Table, error) {
	f, err := os.Open(s.csvPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.csvPath, err)
	}
	return t, nil
}

// Append adds one entry and rewrites both the CSV file and the JSON mirror.
// When the file is missing it is recreated with the entry's columns as header.
func (s *Store) Append(e Entry) (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load()
	if errors.Is(err, ErrNoData) {
		t = NewTable(Columns...)
	} else if err != nil {
		return nil, err
	}

	t.AppendRecord(e.Record())

	if err := s.writeCSV(t); err != nil {
		logging.AuditFileOp(logging.AuditEntryAppend, s.csvPath, t.Len(), err)
		return nil, err
	}
	if err := s.writeJSON(t); err != nil {
		logging.AuditFileOp(logging.AuditEntryAppend, s.jsonPath, t.Len(), err)
		return nil, err
	}

	logging.Journal("appended entry %d to %s", t.Len(), s.csvPath)
	logging.AuditFileOp(logging.AuditEntryAppend, s.csvPath, t.Len(), nil)
	return t, nil
}

// Edit loads the CSV file, lets fn change the table in place and writes the
// result back, all under the store lock. Used by the bulk editor; the JSON
// mirror is left alone until the next submission. It returns ErrNoData when
// the file is missing.
func (s *Store) Edit(fn func(t *Table)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load()
	if err != nil {
		return err
	}
	fn(t)

	err = s.writeCSV(t)
	logging.AuditFileOp(logging.AuditJournalEdit, s.csvPath, t.Len(), err)
	if err != nil {
		return err
	}
	logging.Journal("rewrote %s with %d rows", s.csvPath, t.Len())
	return nil
}

// Clear removes the CSV file. It returns ErrNoData when there is nothing to remove.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.csvPath); err != nil {
		if os.IsNotExist(err) {
			return ErrNoData
		}
		err = fmt.Errorf("failed to remove journal: %w", err)
		logging.AuditFileOp(logging.AuditJournalClear, s.csvPath, 0, err)
		return err
	}
	logging.Journal("cleared %s", s.csvPath)
	logging.AuditFileOp(logging.AuditJournalClear, s.csvPath, 0, nil)
	return nil
}

func (s *Store) writeCSV(t *Table) error {
	return writeFile(s.csvPath, func(w io.Writer) error {
		return WriteCSV(w, t)
	})
}

func (s *Store) writeJSON(t *Table) error {
	if s.jsonPath == "" {
		return nil
	}
	return writeFile(s.jsonPath, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return enc.Encode(t.Records())
	})
}

// writeFile replaces path with whatever fill writes, via a temp file in the
// same directory. The replaced file keeps its permission bits; a new file
// gets 0644.
func writeFile(path string, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	mode := os.FileMode(0644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set mode on %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// ReadCSV parses a header row followed by data rows. Ragged rows are padded
// to the header width. An empty input yields an empty table.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return &Table{}, nil
	}
	if err != nil {
		return nil, err
	}

	t := NewTable(header...)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		t.Rows = append(t.Rows, row)
	}
	t.FillBlanks()
	return t, nil
}

// WriteCSV writes the header and every row.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}
