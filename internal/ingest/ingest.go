// Package ingest reads uploaded CSV and Excel sales files into rows.
//
// The first row of a file is its header. Cells are matched to SalesRecord
// fields by normalised header name and unknown columns are ignored. Every
// mapped column yields a key on every row: blank or missing Price and
// Quantity cells read as null, blank labels as empty.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"sales-dashboard/internal/models"
)

const (
	defaultWorkers   = 10
	defaultBatchSize = 10000
)

var (
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrUnreadableFile  = errors.New("unreadable file")
	ErrTooManyRows     = errors.New("too many rows")
)

type Options struct {
	// MaxRows caps the number of data rows; 0 disables the cap.
	MaxRows   int
	Workers   int
	BatchSize int
}

type Parser struct {
	opts   Options
	logger *slog.Logger
}

func NewParser(opts Options, logger *slog.Logger) *Parser {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{opts: opts, logger: logger}
}

// Parse dispatches on the file extension: .csv is read as CSV, Office Open
// XML workbooks through the workbook reader. Legacy .xls (BIFF) workbooks are
// not readable and are rejected as unsupported.
func (p *Parser) Parse(ctx context.Context, filename string, r io.Reader) ([]*models.SalesRecord, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv":
		return p.parseCSV(ctx, r)
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return p.parseWorkbook(ctx, r)
	case ".xls":
		return nil, fmt.Errorf("%w: %q, save the workbook as .xlsx", ErrUnsupportedFile, ext)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFile, ext)
	}
}

// Supported reports whether Parse would accept filename.
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".xlsx", ".xlsm", ".xltx", ".xltm":
		return true
	}
	return false
}

type fieldSetter func(rec *models.SalesRecord, cell string)

var fieldSetters = map[string]fieldSetter{
	"transactionno": func(rec *models.SalesRecord, cell string) { rec.TransactionNo = models.NewIdentifier(cell) },
	"date":          func(rec *models.SalesRecord, cell string) { rec.Date = models.NewText(cell) },
	"productno":     func(rec *models.SalesRecord, cell string) { rec.ProductNo = models.NewIdentifier(cell) },
	"productname":   func(rec *models.SalesRecord, cell string) { rec.ProductName = models.NewText(cell) },
	"price":         func(rec *models.SalesRecord, cell string) { rec.Price = models.ParseNumber(cell) },
	"quantity":      func(rec *models.SalesRecord, cell string) { rec.Quantity = models.ParseNumber(cell) },
	"customerno":    func(rec *models.SalesRecord, cell string) { rec.CustomerNo = models.NewIdentifier(cell) },
	"country":       func(rec *models.SalesRecord, cell string) { rec.Country = models.NewText(cell) },
}

// header maps column positions to field setters.
type header []fieldSetter

func newHeader(cells []string) (header, int) {
	h := make(header, len(cells))
	matched := 0
	for i, cell := range cells {
		if setter, ok := fieldSetters[normalizeColumn(cell)]; ok {
			h[i] = setter
			matched++
		}
	}
	return h, matched
}

func normalizeColumn(name string) string {
	name = strings.TrimPrefix(name, "\ufeff")
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-', '.', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
}

func (h header) record(cells []string) *models.SalesRecord {
	rec := &models.SalesRecord{}
	for i, set := range h {
		if set == nil {
			continue
		}
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		set(rec, cell)
	}
	return rec
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
