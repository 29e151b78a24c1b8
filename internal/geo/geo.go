// Package geo resolves billing addresses to a province or city label using a
// zipcode lookup table. The table is the Philippine zipcode CSV shipped with
// the application; the zip takes priority because merchants see far more
// typos in the free-text province and city fields than in the zip.
package geo

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/holasaidlola/shop-analytics/internal/domain"
)

// MetroManila is the label the metro city group collapses into.
const MetroManila = "Metro Manila"

// metroCities are the cities reported individually by customers that belong
// to the Metro Manila group.
var metroCities = map[string]struct{}{
	"Manila":      {},
	"Quezon City": {},
	"Caloocan":    {},
	"Las Piñas":   {},
	"Makati":      {},
	"Malabon":     {},
	"Mandaluyong": {},
	"Marikina":    {},
	"Muntinlupa":  {},
	"Navotas":     {},
	"Parañaque":   {},
	"Pasay":       {},
	"Pasig":       {},
	"San Juan":    {},
	"Taguig":      {},
	"Valenzuela":  {},
	"Pateros":     {},
}

// Resolver maps zipcodes to their province or city.
type Resolver struct {
	byZip map[int]string
}

// NewResolver loads the zipcode table from a CSV file with the columns
// "ZIP Code", "Area" and "Province or city".
func NewResolver(path string) (*Resolver, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open zipcodes file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read zipcodes header: %w", err)
	}

	zipCol, provinceCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case "ZIP Code":
			zipCol = i
		case "Province or city":
			provinceCol = i
		}
	}
	if zipCol < 0 || provinceCol < 0 {
		return nil, fmt.Errorf("zipcodes file is missing the ZIP Code or Province or city column")
	}

	byZip := make(map[int]string)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read zipcodes row: %w", err)
		}

		zip, err := strconv.Atoi(strings.TrimSpace(record[zipCol]))
		if err != nil {
			continue // non-numeric zips carry no signal
		}
		byZip[zip] = strings.TrimSpace(record[provinceCol])
	}

	return &Resolver{byZip: byZip}, nil
}

// Location resolves an address to a province or city label. Resolution order
// follows the original dashboard: zipcode table, then the address province,
// then the normalised city. Cities in the metro group collapse into
// MetroManila. An unresolvable address yields an empty string.
func (r *Resolver) Location(addr domain.Address) string {
	label := ""
	if zip, err := strconv.Atoi(strings.TrimSpace(addr.Zip)); err == nil {
		label = r.byZip[zip]
	}
	if label == "" {
		label = strings.TrimSpace(addr.Province)
	}
	if label == "" {
		label = NormalizeCity(addr.City)
	}
	if _, ok := metroCities[label]; ok {
		return MetroManila
	}
	return label
}

// NormalizeCity title-cases a customer-entered city name and strips a
// trailing "City" suffix, so "MAKATI CITY" and "makati" compare equal.
func NormalizeCity(city string) string {
	// A cases.Caser is stateful, so build one per call rather than sharing.
	normalized := cases.Title(language.English).String(strings.TrimSpace(city))
	normalized = strings.TrimSpace(strings.TrimSuffix(normalized, "City"))
	return normalized
}

// InMetro reports whether a normalised city belongs to the metro group.
func InMetro(city string) bool {
	_, ok := metroCities[city]
	return ok
}
