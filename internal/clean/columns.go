// Package clean holds the table-cleaning transforms and the pipeline that
// chains them. Every function returns a new Dataset and leaves its input
// untouched.
package clean

import (
	"strings"

	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
)

// NormalizeColumnNames lowercases every column label and replaces spaces
// with underscores. Row data is untouched.
func NormalizeColumnNames(ds *dataset.Dataset) *dataset.Dataset {
	out := ds.Clone()
	for j, name := range out.Names() {
		out.Rename(j, strings.ReplaceAll(strings.ToLower(name), " ", "_"))
	}
	return out
}

// RenameColumns renames the columns named in mapping (old -> new). Columns
// not mentioned stay as they are; keys naming absent columns are ignored.
func RenameColumns(ds *dataset.Dataset, mapping map[string]string) *dataset.Dataset {
	out := ds.Clone()
	for j, name := range ds.Names() {
		if nn, ok := mapping[name]; ok {
			out.Rename(j, nn)
		}
	}
	return out
}
