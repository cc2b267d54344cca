package importer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

type xlsxReader struct {
	rows [][]string
	pos  int
}

// OpenXLSX opens the first sheet of an Excel workbook as a row source.
// Bank exports are commonly XLSX; the sheet is expected to carry the same
// header layout as a CSV import.
func OpenXLSX(path string) (RowReader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in %s", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	return &xlsxReader{rows: rows}, nil
}

func (x *xlsxReader) Next() ([]string, int, error) {
	if x.pos >= len(x.rows) {
		return nil, 0, io.EOF
	}
	row := x.rows[x.pos]
	x.pos++
	return row, x.pos, nil
}

func (x *xlsxReader) Close() error { return nil }
