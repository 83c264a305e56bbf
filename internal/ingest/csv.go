package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"sales-dashboard/internal/models"
)

func (p *Parser) parseCSV(ctx context.Context, r io.Reader) ([]*models.SalesRecord, error) {
	start := time.Now()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headerCells, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []*models.SalesRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrUnreadableFile, err)
	}

	h, matched := newHeader(headerCells)
	p.logger.Debug("csv header parsed", "columns", len(headerCells), "matched", matched)

	rows := make([]*models.SalesRecord, 0, p.opts.BatchSize)
	batch := make([][]string, 0, p.opts.BatchSize)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
		}
		if blank(cells) {
			continue
		}

		batch = append(batch, cells)
		if p.opts.MaxRows > 0 && len(rows)+len(batch) > p.opts.MaxRows {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, p.opts.MaxRows)
		}

		if len(batch) >= p.opts.BatchSize {
			if rows, err = p.decodeBatch(ctx, h, batch, rows); err != nil {
				return nil, err
			}
			batch = make([][]string, 0, p.opts.BatchSize)
		}
	}

	if len(batch) > 0 {
		if rows, err = p.decodeBatch(ctx, h, batch, rows); err != nil {
			return nil, err
		}
	}

	p.logger.Info("csv parsed",
		"records", len(rows),
		"duration", time.Since(start),
	)
	return rows, nil
}

// decodeBatch converts a batch of raw records in parallel chunks and appends
// them to dst in input order.
func (p *Parser) decodeBatch(ctx context.Context, h header, batch [][]string, dst []*models.SalesRecord) ([]*models.SalesRecord, error) {
	decoded := make([]*models.SalesRecord, len(batch))

	chunk := (len(batch) + p.opts.Workers - 1) / p.opts.Workers

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	for lo := 0; lo < len(batch); lo += chunk {
		hi := min(lo+chunk, len(batch))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if i%1024 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				decoded[i] = h.record(batch[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return append(dst, decoded...), nil
}
