package tableio

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JimiHenning/vanguard-ab-test/internal/dataset"
	"github.com/JimiHenning/vanguard-ab-test/internal/utils"
)

type xlsxFormat struct{}

func (xlsxFormat) CanLoad(path string) bool { return hasExt(path, ".xlsx", ".xlsm") }
func (xlsxFormat) CanSave(path string) bool { return hasExt(path, ".xlsx") }

// Load reads the selected sheet; its first row is the header.
func (xlsxFormat) Load(path string, opt Options) (*dataset.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return dataset.New(), nil
	}
	sheet := sheets[0]
	if opt.Sheet != "" {
		sheet = ""
		for _, s := range sheets {
			if strings.EqualFold(s, opt.Sheet) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, fmt.Errorf("sheet '%s' not found.\nAvailable sheets: %s", opt.Sheet, strings.Join(sheets, ", "))
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return dataset.New(), nil
	}
	body := rows[1:]
	if opt.MaxRows > 0 && len(body) > opt.MaxRows {
		body = body[:opt.MaxRows]
	}
	return fromRecords(rows[0], body, opt), nil
}

// Save writes ds to the first sheet of a new workbook. Numbers and booleans
// keep their cell types; timestamps are written as text.
func (xlsxFormat) Save(path string, ds *dataset.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]interface{}, ds.Width())
	for j, n := range ds.Names() {
		header[j] = n
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < ds.Len(); i++ {
		row := make([]interface{}, ds.Width())
		for j := range row {
			row[j] = cellValue(ds.At(i, j))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := utils.EnsureParentDir(path); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

func cellValue(v dataset.Value) interface{} {
	switch v.Kind() {
	case dataset.KindInt:
		n, _ := v.AsInt()
		return n
	case dataset.KindFloat:
		x, _ := v.AsFloat()
		return x
	case dataset.KindBool:
		b, _ := v.AsBool()
		return b
	case dataset.KindNull:
		return nil
	}
	return v.String()
}
