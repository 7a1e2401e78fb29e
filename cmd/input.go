package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
	"github.com/JimiHenning/vanguard-ab-test/internal/tableio"
)

// Input flags shared by every command that reads a table.
var (
	inDelimiter string
	inDecimal   string
	inSheet     string
	inMaxRows   int
	inDateOrder string
)

func addInputFlags(c *cobra.Command) {
	c.Flags().StringVar(&inDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (by extension if omitted)")
	c.Flags().StringVar(&inDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma'")
	c.Flags().StringVar(&inSheet, "sheet-name", "", "XLSX: sheet name to read (first sheet if omitted)")
	c.Flags().IntVar(&inMaxRows, "max-rows", 0, "maximum data rows to read (0 = unlimited)")
	c.Flags().StringVar(&inDateOrder, "date-order", "auto", "slash dates: 'auto' (per column) | 'month' (01/02 = Jan 2) | 'day' (01/02 = 1 Feb)")
}

func inputOptions() (tableio.Options, error) {
	opt := tableio.DefaultOptions()
	opt.Sheet = inSheet
	opt.MaxRows = inMaxRows
	switch inDelimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", inDelimiter)
	}
	switch strings.ToLower(strings.TrimSpace(inDecimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot", "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", inDecimal)
	}
	switch strings.ToLower(strings.TrimSpace(inDateOrder)) {
	case "auto", "":
	case "month", "month-first":
		opt.DateOrder = dataset.MonthFirst
	case "day", "day-first":
		opt.DateOrder = dataset.DayFirst
	default:
		return opt, fmt.Errorf("unsupported --date-order: %s (use auto|month|day)", inDateOrder)
	}
	return opt, nil
}

func loadTable(path string) (*dataset.Dataset, error) {
	opt, err := inputOptions()
	if err != nil {
		return nil, err
	}
	ds, err := tableio.Load(path, opt)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return ds, nil
}
