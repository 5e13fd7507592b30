// Package station holds the station inventory and derives the pair keys the
// job generator works from.
package station

import (
	"fmt"
	"sort"
)

// Station is one seismic station in the inventory.
type Station struct {
	ID      int64   `json:"id"`
	Net     string  `json:"net"`
	Sta     string  `json:"sta"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Enabled bool    `json:"enabled"`
}

// Code returns the canonical "NET.STA" station code.
func (s *Station) Code() string {
	return fmt.Sprintf("%s.%s", s.Net, s.Sta)
}

// Pairs returns the canonical pair keys for the given stations: every
// unordered combination as "A:B" with A <= B lexicographically, plus the
// same-station pairs when autocorr is set. Output is sorted, so two
// inventories with the same stations always produce the same pair list and
// job generation stays idempotent.
func Pairs(stations []Station, autocorr bool) []string {
	codes := make([]string, 0, len(stations))
	for i := range stations {
		codes = append(codes, stations[i].Code())
	}
	sort.Strings(codes)

	var pairs []string
	for i, a := range codes {
		if autocorr {
			pairs = append(pairs, a+":"+a)
		}
		for _, b := range codes[i+1:] {
			pairs = append(pairs, a+":"+b)
		}
	}
	sort.Strings(pairs)
	return pairs
}
