package exports

import (
	"encoding/csv"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Leads"

// csvWriter prefixes a UTF-8 BOM so spreadsheet apps detect the encoding.
type csvWriter struct {
	out *csv.Writer
	raw io.Writer
}

func NewCSVWriter(w io.Writer) RowWriter {
	return &csvWriter{out: csv.NewWriter(w), raw: w}
}

func (c *csvWriter) WriteHeader(cols []string) error {
	if _, err := io.WriteString(c.raw, "\ufeff"); err != nil {
		return err
	}
	return c.out.Write(cols)
}

func (c *csvWriter) WriteLead(row Row) error {
	return c.out.Write(row.Strings())
}

func (c *csvWriter) Close() error {
	c.out.Flush()
	return c.out.Error()
}

// xlsxWriter builds the workbook with a stream writer and writes it on Close.
type xlsxWriter struct {
	out    io.Writer
	file   *excelize.File
	stream *excelize.StreamWriter
	row    int
}

func NewXLSXWriter(w io.Writer) (RowWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		_ = f.Close()
		return nil, err
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &xlsxWriter{out: w, file: f, stream: sw}, nil
}

func (x *xlsxWriter) next(values []interface{}) error {
	x.row++
	cell, err := excelize.CoordinatesToCellName(1, x.row)
	if err != nil {
		return err
	}
	return x.stream.SetRow(cell, values)
}

func (x *xlsxWriter) WriteHeader(cols []string) error {
	values := make([]interface{}, len(cols))
	for i, c := range cols {
		values[i] = c
	}
	return x.next(values)
}

// WriteLead keeps the value column numeric.
func (x *xlsxWriter) WriteLead(row Row) error {
	strs := row.Strings()
	values := make([]interface{}, len(strs))
	for i, s := range strs {
		values[i] = s
	}
	values[7] = row.Lead.Value
	return x.next(values)
}

func (x *xlsxWriter) Close() error {
	defer x.file.Close()
	if err := x.stream.Flush(); err != nil {
		return err
	}
	_, err := x.file.WriteTo(x.out)
	return err
}
