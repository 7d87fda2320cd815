package census

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dsnet/compress/bzip2"
)

// MissingFileError reports a vintage file absent from the data directory.
type MissingFileError struct {
	Filename string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("file %s does not exist", e.Filename)
}

// Column names as they appear in a FARS accident file header. LONGITUD is
// the census's own spelling.
const (
	colState     = "STATE"
	colMonth     = "MONTH"
	colLongitude = "LONGITUD"
	colLatitude  = "LATITUDE"

	colCase   = "ST_CASE"
	colYear   = "YEAR"
	colFatals = "FATALS"
)

var requiredColumns = []string{colState, colMonth, colLongitude, colLatitude}

// FileReader loads vintage files from a single data directory.
type FileReader struct {
	Dir string
}

// NewFileReader returns a FileReader rooted at dir. An empty dir means the
// current working directory.
func NewFileReader(dir string) *FileReader {
	if dir == "" {
		dir = "."
	}
	return &FileReader{Dir: dir}
}

// Read loads one bzip2-compressed CSV vintage file by its canonical
// filename. An absent file is reported as a *MissingFileError; anything else
// wrong with the file is a decompress or parse error. Reading never mutates
// the file, and repeated reads return equal datasets.
func (fr *FileReader) Read(filename string) (*Dataset, error) {
	f, err := os.Open(filepath.Join(fr.Dir, filename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &MissingFileError{Filename: filename}
		}
		return nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	bz, err := bzip2.NewReader(f, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", filename, err)
	}
	defer bz.Close()

	ds, err := parseCSV(bz)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	return ds, nil
}

// parseCSV reads the header and all data rows. Required columns must be
// present and numeric in every row; optional columns fill their fields when
// the file carries them; unknown columns are ignored.
func parseCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("missing required column %s", name)
		}
	}

	var records []AccidentRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		rec, err := parseRecord(row, idx)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return &Dataset{Records: records}, nil
}

func parseRecord(row []string, idx map[string]int) (AccidentRecord, error) {
	var rec AccidentRecord
	var err error

	if rec.State, err = intCell(row, idx, colState); err != nil {
		return rec, err
	}
	if rec.Month, err = intCell(row, idx, colMonth); err != nil {
		return rec, err
	}
	if rec.Longitude, err = floatCell(row, idx, colLongitude); err != nil {
		return rec, err
	}
	if rec.Latitude, err = floatCell(row, idx, colLatitude); err != nil {
		return rec, err
	}

	rec.Case = optIntCell(row, idx, colCase)
	rec.Year = optIntCell(row, idx, colYear)
	rec.Fatals = optIntCell(row, idx, colFatals)
	return rec, nil
}

func cell(row []string, idx map[string]int, name string) (string, bool) {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[i]), true
}

func intCell(row []string, idx map[string]int, name string) (int, error) {
	s, ok := cell(row, idx, name)
	if !ok {
		return 0, fmt.Errorf("missing %s value", name)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", name, err)
	}
	return v, nil
}

func floatCell(row []string, idx map[string]int, name string) (float64, error) {
	s, ok := cell(row, idx, name)
	if !ok {
		return 0, fmt.Errorf("missing %s value", name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %w", name, err)
	}
	return v, nil
}

// optIntCell returns the parsed value of an optional column, or zero when
// the column is absent, empty, or malformed.
func optIntCell(row []string, idx map[string]int, name string) int {
	s, ok := cell(row, idx, name)
	if !ok || s == "" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
