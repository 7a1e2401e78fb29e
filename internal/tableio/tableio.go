// Package tableio loads and saves datasets. CSV/TSV use encoding/csv and
// workbooks use excelize; both infer one column type per column.
package tableio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
)

// Options controls loading.
type Options struct {
	// Delimiter for CSV. If 0, chosen by extension (',' or '\t').
	Delimiter rune
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
	// Sheet selects a workbook sheet by name; empty means the first sheet.
	Sheet string
	// DecimalSeparator is '.' when 0. With ',' the '.' is read as a thousands separator.
	DecimalSeparator rune
	// NullTokens are cell texts read as null, compared case-insensitively after trimming.
	NullTokens []string
	// DateOrder fixes how slash dates are read. DateOrderAuto picks one
	// order per column from its cells.
	DateOrder dataset.DateOrder
}

// DefaultOptions returns the usual null tokens and no limits.
func DefaultOptions() Options {
	return Options{NullTokens: []string{"", "na", "n/a", "nan", "null", "none"}}
}

// Loader reads one file format.
type Loader interface {
	CanLoad(path string) bool
	Load(path string, opt Options) (*dataset.Dataset, error)
}

// Saver writes one file format.
type Saver interface {
	CanSave(path string) bool
	Save(path string, ds *dataset.Dataset) error
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported table format")

var (
	loaders []Loader
	savers  []Saver
)

// Register adds a loader to the registry.
func Register(l Loader) { loaders = append(loaders, l) }

// RegisterSaver adds a saver to the registry.
func RegisterSaver(s Saver) { savers = append(savers, s) }

func init() {
	Register(csvFormat{})
	Register(xlsxFormat{})
	RegisterSaver(csvFormat{})
	RegisterSaver(xlsxFormat{})
}

// Load selects a loader by file name.
func Load(path string, opt Options) (*dataset.Dataset, error) {
	for _, l := range loaders {
		if l.CanLoad(path) {
			return l.Load(path, opt)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
}

// Save selects a saver by file name.
func Save(path string, ds *dataset.Dataset) error {
	for _, s := range savers {
		if s.CanSave(path) {
			return s.Save(path, ds)
		}
	}
	return fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
}

func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// fromRecords builds a dataset from a header and string rows. Short rows are
// padded with nulls and extra cells dropped.
func fromRecords(header []string, rows [][]string, opt Options) *dataset.Dataset {
	nulls := make(map[string]bool, len(opt.NullTokens))
	for _, tok := range opt.NullTokens {
		nulls[strings.ToLower(strings.TrimSpace(tok))] = true
	}
	isNull := func(s string) bool { return nulls[strings.ToLower(strings.TrimSpace(s))] }

	cols := make([]dataset.Column, len(header))
	parsed := make([][]dataset.Value, len(header))
	for j, h := range header {
		raw := make([]string, len(rows))
		for i, r := range rows {
			if j < len(r) {
				raw[i] = r[j]
			}
		}
		t, vals := inferColumn(raw, isNull, opt)
		cols[j] = dataset.Column{Name: strings.TrimSpace(h), Type: t}
		parsed[j] = vals
	}

	ds := dataset.New(cols...)
	row := make([]dataset.Value, len(cols))
	for i := range rows {
		for j := range cols {
			row[j] = parsed[j][i]
		}
		// inferColumn only yields values the column type accepts.
		ds.MustAppend(row...)
	}
	return ds
}

// inferColumn picks the narrowest type every non-null cell parses as:
// integer, float, bool, timestamp, then text. An all-null column is mixed.
func inferColumn(raw []string, isNull func(string) bool, opt Options) (dataset.ColumnType, []dataset.Value) {
	ints, floats, bools, times, seen := true, true, true, true, false
	for _, s := range raw {
		if isNull(s) {
			continue
		}
		seen = true
		s = strings.TrimSpace(s)
		if ints {
			if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				ints = false
			}
		}
		if floats {
			if _, ok := parseNumeric(s, opt.DecimalSeparator); !ok {
				floats = false
			}
		}
		if bools {
			if _, ok := parseBool(s); !ok {
				bools = false
			}
		}
	}
	var stamps []time.Time
	if times && seen {
		cells := make([]string, len(raw))
		for i, s := range raw {
			if !isNull(s) {
				cells[i] = s
			}
		}
		parsed, ok, consistent := dataset.ParseTimes(cells, opt.DateOrder)
		times = consistent
		for i := range cells {
			if times && cells[i] != "" && !ok[i] {
				times = false
			}
		}
		stamps = parsed
	}

	t := dataset.TypeText
	switch {
	case !seen:
		t = dataset.TypeMixed
	case ints:
		t = dataset.TypeInteger
	case floats:
		t = dataset.TypeFloat
	case bools:
		t = dataset.TypeBool
	case times:
		t = dataset.TypeTimestamp
	}

	vals := make([]dataset.Value, len(raw))
	for i, s := range raw {
		if isNull(s) {
			continue
		}
		if t == dataset.TypeText || t == dataset.TypeMixed {
			vals[i] = dataset.Text(s)
			continue
		}
		s = strings.TrimSpace(s)
		switch t {
		case dataset.TypeInteger:
			n, _ := strconv.ParseInt(s, 10, 64)
			vals[i] = dataset.Int(n)
		case dataset.TypeFloat:
			f, _ := parseNumeric(s, opt.DecimalSeparator)
			vals[i] = dataset.Float(f)
		case dataset.TypeBool:
			b, _ := parseBool(s)
			vals[i] = dataset.Bool(b)
		case dataset.TypeTimestamp:
			vals[i] = dataset.Time(stamps[i])
		}
	}
	return t, vals
}

// parseNumeric reads a plain decimal number. With dec == ',' the '.' and
// spaces are thousands separators. Digit underscores, hex forms and NaN/Inf
// spellings are rejected.
func parseNumeric(s string, dec rune) (float64, bool) {
	raw := strings.ReplaceAll(s, "\u00a0", " ")
	raw = strings.TrimSpace(raw)
	if dec == ',' {
		raw = strings.ReplaceAll(raw, ".", "")
		raw = strings.ReplaceAll(raw, " ", "")
		raw = strings.ReplaceAll(raw, ",", ".")
	}
	return dataset.ParseNumber(raw)
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// records renders a dataset as string rows; timestamps use dataset.FormatTime
// so they load back as timestamps.
func records(ds *dataset.Dataset) [][]string {
	out := make([][]string, 0, ds.Len()+1)
	out = append(out, ds.Names())
	for i := 0; i < ds.Len(); i++ {
		row := make([]string, ds.Width())
		for j := range row {
			row[j] = ds.At(i, j).String()
		}
		out = append(out, row)
	}
	return out
}
