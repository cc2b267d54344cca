package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

type csvReader struct {
	f   *os.File
	r   *csv.Reader
	row int
}

// OpenCSV opens a comma-separated file as a row source.
func OpenCSV(path string) (RowReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	r := csv.NewReader(f)
	// Rows are validated individually; ragged rows must not kill the stream.
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return &csvReader{f: f, r: r}, nil
}

func (c *csvReader) Next() ([]string, int, error) {
	record, err := c.r.Read()
	if err == io.EOF {
		return nil, 0, io.EOF
	}
	c.row++
	if err != nil {
		// A malformed line is still a row; report it with its number so the
		// caller can record a row-level error and continue.
		return nil, c.row, fmt.Errorf("malformed csv row: %w", err)
	}
	return record, c.row, nil
}

func (c *csvReader) Close() error {
	return c.f.Close()
}
