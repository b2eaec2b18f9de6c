package catalog

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/couchcryptid/voyage-emissions-service/internal/domain"
)

var (
	yearColumns  = []string{"year"}
	priceColumns = []string{"average_eua_price_eur", "price"}
)

// LoadPrices reads the year,price CSV. Rows with an empty year or price are
// skipped; anything else that does not parse, a non-positive price, or a
// repeated year is an error.
func LoadPrices(path string) (domain.PriceSchedule, error) {
	rc, err := openSource(path)
	if err != nil {
		return nil, fmt.Errorf("open prices: %w", err)
	}
	defer rc.Close()

	table, err := newCSVTable(path, rc)
	if err != nil {
		return nil, err
	}
	yearCol, err := table.column(yearColumns...)
	if err != nil {
		return nil, err
	}
	priceCol, err := table.column(priceColumns...)
	if err != nil {
		return nil, err
	}

	schedule := make(domain.PriceSchedule)
	for {
		rec, line, err := table.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		yearStr, priceStr := field(rec, yearCol), field(rec, priceCol)
		if yearStr == "" || priceStr == "" {
			continue
		}
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid year %q", path, line, yearStr)
		}
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil || !(price > 0) {
			return nil, fmt.Errorf("%s:%d: invalid price %q for %d", path, line, priceStr, year)
		}
		if _, dup := schedule[year]; dup {
			return nil, fmt.Errorf("%s:%d: duplicate year %d", path, line, year)
		}
		schedule[year] = price
	}
	return schedule, nil
}
