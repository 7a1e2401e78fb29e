package clean

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
)

// Keep selects which row of a duplicate group survives.
type Keep string

const (
	KeepFirst Keep = "first"
	KeepLast  Keep = "last"
	KeepNone  Keep = "none"
)

// ParseKeep maps a config string to a Keep strategy.
func ParseKeep(s string) (Keep, error) {
	switch k := Keep(strings.ToLower(strings.TrimSpace(s))); k {
	case KeepFirst, KeepLast, KeepNone:
		return k, nil
	case "":
		return KeepFirst, nil
	}
	return "", fmt.Errorf("%w: unknown keep strategy %q (use first|last|none)", dataset.ErrInvalidConfiguration, s)
}

// DropDuplicates removes rows whose values over columns repeat an earlier
// (or later, for KeepLast) row. No columns means all columns. Surviving rows
// keep their original order.
func DropDuplicates(ds *dataset.Dataset, keep Keep, columns ...string) (*dataset.Dataset, error) {
	if _, err := ParseKeep(string(keep)); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		columns = ds.Names()
	}
	js := make([]int, len(columns))
	for k, name := range columns {
		j, err := ds.Index(name)
		if err != nil {
			return nil, err
		}
		js[k] = j
	}
	keys := make([]string, ds.Len())
	counts := make(map[string]int, ds.Len())
	for i := range keys {
		var b strings.Builder
		// Length-prefixed so no cell text can fake a column boundary.
		for _, j := range js {
			k := ds.At(i, j).Key()
			b.WriteString(strconv.Itoa(len(k)))
			b.WriteByte(':')
			b.WriteString(k)
		}
		keys[i] = b.String()
		counts[keys[i]]++
	}
	seen := make(map[string]int, len(counts))
	return ds.Filter(func(i int, _ []dataset.Value) bool {
		k := keys[i]
		seen[k]++
		switch keep {
		case KeepLast:
			return seen[k] == counts[k]
		case KeepNone:
			return counts[k] == 1
		default:
			return seen[k] == 1
		}
	}), nil
}
