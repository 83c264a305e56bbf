package ingest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"sales-dashboard/internal/models"
)

func (p *Parser) parseWorkbook(ctx context.Context, r io.Reader) ([]*models.SalesRecord, error) {
	start := time.Now()

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	sheetName, rows, err := selectSheet(f)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("workbook sheet selected", "sheet", sheetName, "rows", len(rows))

	if len(rows) == 0 {
		return []*models.SalesRecord{}, nil
	}

	h, _ := newHeader(rows[0])
	records := make([]*models.SalesRecord, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if blank(cells) {
			continue
		}
		if p.opts.MaxRows > 0 && len(records) >= p.opts.MaxRows {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, p.opts.MaxRows)
		}
		records = append(records, h.record(cells))
	}

	p.logger.Info("workbook parsed",
		"sheet", sheetName,
		"records", len(records),
		"duration", time.Since(start),
	)
	return records, nil
}

// selectSheet prefers the first sheet whose header row names a sales column
// and falls back to the first sheet of the workbook.
func selectSheet(f *excelize.File) (string, [][]string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil, fmt.Errorf("%w: workbook has no sheets", ErrUnreadableFile)
	}

	var firstRows [][]string
	for i, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		if i == 0 {
			firstRows = rows
		}
		if len(rows) > 0 {
			if _, matched := newHeader(rows[0]); matched > 0 {
				return name, rows, nil
			}
		}
	}
	return sheets[0], firstRows, nil
}
