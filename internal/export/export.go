package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ccod-search/internal/search"
)

// maxFilenameValue bounds the sanitized search value embedded in
// download filenames.
const maxFilenameValue = 20

// Columns is the canonical CSV header, one row per property-proprietor
// join row.
var Columns = []string{
	"title_number", "tenure", "property_address", "district", "county",
	"region", "postcode", "price_paid", "proprietor_name",
	"company_registration_no", "proprietorship_category", "date_proprietor_added",
}

// Document is the JSON export envelope.
type Document struct {
	SearchType  string          `json:"search_type"`
	SearchValue string          `json:"search_value"`
	Count       int             `json:"count"`
	Properties  []search.Result `json:"properties"`
}

// Filename derives a download filename from the search input, e.g.
// properties_name_ACME_HOLDINGS.csv. The value is sanitized for use in
// a Content-Disposition header.
func Filename(searchType, searchValue, ext string) string {
	return fmt.Sprintf("properties_%s_%s.%s", searchType, sanitizeValue(searchValue), ext)
}

// WriteCSV writes the header row and one row per result. A zero-result
// export produces a valid header-only file.
func WriteCSV(w io.Writer, results []search.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range results {
		record := []string{
			r.TitleNumber, r.Tenure, r.PropertyAddress, r.District, r.County,
			r.Region, r.Postcode, r.PricePaid, r.ProprietorName,
			r.CompanyRegistrationNo, r.ProprietorshipCategory, r.DateProprietorAdded,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalJSON serializes the full result set as a pretty-printed JSON
// document. A zero-result export yields an empty properties array, not
// an error.
func MarshalJSON(searchType, searchValue string, results []search.Result) ([]byte, error) {
	if results == nil {
		results = []search.Result{}
	}
	doc := Document{
		SearchType:  searchType,
		SearchValue: searchValue,
		Count:       len(results),
		Properties:  results,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// sanitizeValue maps the raw search value to a filename-safe token:
// spaces become underscores, anything outside [A-Za-z0-9_-] is dropped,
// and the result is truncated.
func sanitizeValue(value string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(value) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte('_')
		}
	}
	s := b.String()
	if runes := []rune(s); len(runes) > maxFilenameValue {
		s = string(runes[:maxFilenameValue])
	}
	if s == "" {
		s = "query"
	}
	return s
}
