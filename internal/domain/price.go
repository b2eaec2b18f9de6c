package domain

import "sort"

// PriceSchedule maps a calendar year to an EUA price in EUR per tonne. It is
// sparse: only years present in the source are known.
type PriceSchedule map[int]float64

// Years returns the known years in ascending order.
func (s PriceSchedule) Years() []int {
	years := make([]int, 0, len(s))
	for y := range s {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Price returns the price for year and whether the year is known.
func (s PriceSchedule) Price(year int) (float64, bool) {
	p, ok := s[year]
	return p, ok
}
