package export

import (
	"fmt"
	"strings"
)

// Format identifies an output encoding for a sheet.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat normalises user input, defaulting to CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv"
}

// Sheet is a titled table. Every row must have len(Headers) cells.
type Sheet struct {
	Title   string
	Headers []string
	Rows    [][]string
}

func (s Sheet) validate() error {
	if len(s.Headers) == 0 {
		return fmt.Errorf("sheet requires at least one header")
	}
	for i, row := range s.Rows {
		if len(row) != len(s.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(s.Headers))
		}
	}
	return nil
}

// Render encodes the sheet in the requested format.
func Render(format Format, sheet Sheet) ([]byte, error) {
	switch format {
	case FormatPDF:
		return NewPDFExporter().Render(sheet)
	default:
		return NewCSVExporter().Render(sheet)
	}
}
