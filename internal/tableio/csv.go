package tableio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
	"github.com/JimiHenning/vanguard-ab-test/internal/utils"
)

type csvFormat struct{}

func (csvFormat) CanLoad(path string) bool { return hasExt(path, ".csv", ".tsv", ".txt") }
func (csvFormat) CanSave(path string) bool { return hasExt(path, ".csv", ".tsv") }

func (csvFormat) Load(path string, opt Options) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	return ReadCSV(f, opt)
}

func (csvFormat) Save(path string, ds *dataset.Dataset) error {
	delim := sniffDelimiter(path)
	return utils.SafeWriteFunc(path, func(w io.Writer) error { return WriteCSV(w, ds, delim) })
}

func sniffDelimiter(path string) rune {
	if hasExt(path, ".tsv") {
		return '\t'
	}
	return ','
}

// ReadCSV reads a header row then data rows. An empty input gives an empty dataset.
func ReadCSV(r io.Reader, opt Options) (*dataset.Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return dataset.New(), nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var rows [][]string
	for opt.MaxRows <= 0 || len(rows) < opt.MaxRows {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, rec)
	}
	return fromRecords(header, rows, opt), nil
}

// WriteCSV writes ds with a header row. Nulls are empty cells.
func WriteCSV(w io.Writer, ds *dataset.Dataset, delim rune) error {
	cw := csv.NewWriter(w)
	if delim != 0 {
		cw.Comma = delim
	}
	if err := cw.WriteAll(records(ds)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
