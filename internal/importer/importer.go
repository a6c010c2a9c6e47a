// Package importer loads the product catalog from CSV.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog rows keyed by product key and upserts them.
//
// Recognised columns: id, key, title, description, price (cents), quantity,
// madeToOrder, active. Unknown columns are ignored.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
	logger      *zap.Logger
}

func NewCSVImporter(r io.Reader, repo ProductWriter, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
		logger:      logger.Named("importer"),
	}
}

// Run upserts every row and returns how many products were written. It stops
// at the first invalid row; rows before it stay imported.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["key"]; !ok {
		return 0, fmt.Errorf("%w: missing key column", domain.ErrInvalidInput)
	}

	imported := 0
	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		p, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if p == nil {
			continue
		}
		if _, err := i.productRepo.Upsert(ctx, *p); err != nil {
			return imported, fmt.Errorf("upsert product %q: %w", p.Key, err)
		}
		imported++
	}

	i.logger.Info("catalog imported", zap.Int("products", imported))
	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

// parseRow returns nil for blank rows.
func parseRow(record []string, index map[string]int) (*domain.Product, error) {
	key := pick(record, index, "key")
	if key == "" {
		return nil, nil
	}
	p := &domain.Product{
		ID:          pick(record, index, "id"),
		Key:         key,
		Title:       pick(record, index, "title"),
		Description: pick(record, index, "description"),
		Active:      true,
	}
	if p.Title == "" {
		return nil, fmt.Errorf("%w: product %q has no title", domain.ErrInvalidInput, key)
	}
	if p.ID != "" && len(p.ID) != 36 {
		return nil, fmt.Errorf("%w: invalid id for key %q: %s", domain.ErrInvalidInput, key, p.ID)
	}

	price, err := strconv.ParseInt(pick(record, index, "price"), 10, 64)
	if err != nil || price < 0 {
		return nil, fmt.Errorf("%w: invalid price for key %q", domain.ErrInvalidInput, key)
	}
	p.PriceCents = price

	if v := pick(record, index, "quantity"); v != "" {
		qty, err := strconv.Atoi(v)
		if err != nil || qty < 0 {
			return nil, fmt.Errorf("%w: invalid quantity for key %q", domain.ErrInvalidInput, key)
		}
		p.Quantity = qty
	}
	if p.MadeToOrder, err = flag(record, index, "madeToOrder", false); err != nil {
		return nil, fmt.Errorf("%w: key %q: %v", domain.ErrInvalidInput, key, err)
	}
	if p.Active, err = flag(record, index, "active", true); err != nil {
		return nil, fmt.Errorf("%w: key %q: %v", domain.ErrInvalidInput, key, err)
	}
	return p, nil
}

func flag(record []string, index map[string]int, column string, def bool) (bool, error) {
	v := pick(record, index, column)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", column, v)
	}
	return b, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
