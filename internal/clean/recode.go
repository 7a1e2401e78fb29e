package clean

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
)

// Replacement swaps every cell equal to From for To.
type Replacement struct {
	From dataset.Value
	To   dataset.Value
}

// SubstringRule replaces every literal occurrence of Old in text cells with New.
type SubstringRule struct {
	Old string
	New string
}

// ReplaceValues applies whole-value replacements across all columns, then
// substring rules, in slice order, across the text cells of text and mixed
// columns. Rule keys are literal text. A replacement the column type cannot
// hold widens that column to mixed.
func ReplaceValues(ds *dataset.Dataset, whole []Replacement, substr []SubstringRule) (*dataset.Dataset, error) {
	out := ds.Clone()
	cols := out.Columns()
	for _, r := range whole {
		if r.From.IsNull() {
			return nil, fmt.Errorf("%w: replacement source must not be null", dataset.ErrInvalidConfiguration)
		}
	}
	for _, rule := range substr {
		if rule.Old == "" {
			return nil, fmt.Errorf("%w: substring rule needs a non-empty text to replace", dataset.ErrInvalidConfiguration)
		}
	}
	// Rules are matched against the original cell, so A->B, B->C never chains.
	for j := range cols {
		for i := 0; i < out.Len(); i++ {
			to, ok := match(whole, out.At(i, j))
			if !ok {
				continue
			}
			if !cols[j].Type.Accepts(to.Kind()) {
				if err := out.SetType(j, dataset.TypeMixed); err != nil {
					return nil, err
				}
				cols[j].Type = dataset.TypeMixed
			}
			if err := out.Set(i, j, to); err != nil {
				return nil, err
			}
		}
	}
	for _, rule := range substr {
		re := regexp.MustCompile(regexp.QuoteMeta(rule.Old))
		for j, c := range cols {
			if c.Type != dataset.TypeText && c.Type != dataset.TypeMixed {
				continue
			}
			for i := 0; i < out.Len(); i++ {
				s, ok := out.At(i, j).AsText()
				if !ok {
					continue
				}
				if err := out.Set(i, j, dataset.Text(re.ReplaceAllLiteralString(s, rule.New))); err != nil {
					return nil, err
				}
			}
		}
	}
	return out, nil
}

func match(rules []Replacement, v dataset.Value) (dataset.Value, bool) {
	for _, r := range rules {
		if v.Equal(r.From) {
			return r.To, true
		}
	}
	return dataset.Value{}, false
}

// ExtractDelimitedField splits every text cell of column on delimiter and
// keeps the field at index. Cells with fewer fields become null; non-text
// cells pass through.
func ExtractDelimitedField(ds *dataset.Dataset, column, delimiter string, index int) (*dataset.Dataset, error) {
	j, err := ds.Index(column)
	if err != nil {
		return nil, err
	}
	if delimiter == "" || index < 0 {
		return nil, fmt.Errorf("%w: extract %q needs a delimiter and a non-negative index", dataset.ErrInvalidConfiguration, column)
	}
	out := ds.Clone()
	for i := 0; i < out.Len(); i++ {
		s, ok := out.At(i, j).AsText()
		if !ok {
			continue
		}
		parts := strings.Split(s, delimiter)
		v := dataset.Null()
		if index < len(parts) {
			v = dataset.Text(parts[index])
		}
		if err := out.Set(i, j, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}
