package search

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ccod-search/internal/db"
	"github.com/ccod-search/internal/normalize"
)

// Search types accepted by the API.
const (
	TypeNumber   = "number"
	TypeName     = "name"
	TypeAddress  = "address"
	TypeDirector = "director"
)

// addressResultLimit caps broad substring searches, matching the
// original service behaviour.
const addressResultLimit = 500

// ErrEmptyValue and ErrUnknownType are validation errors reported to
// the caller; they never indicate a server fault.
var (
	ErrEmptyValue  = errors.New("search value is required")
	ErrUnknownType = errors.New("unknown search type")
)

// Result is one property-proprietor join row, carrying everything the
// UI and the exporters display.
type Result struct {
	ID                     int64  `json:"id"`
	TitleNumber            string `json:"title_number"`
	Tenure                 string `json:"tenure"`
	PropertyAddress        string `json:"property_address"`
	District               string `json:"district"`
	County                 string `json:"county"`
	Region                 string `json:"region"`
	Postcode               string `json:"postcode"`
	PricePaid              string `json:"price_paid"`
	DateProprietorAdded    string `json:"date_proprietor_added"`
	ProprietorName         string `json:"proprietor_name"`
	ProprietorshipCategory string `json:"proprietorship_category"`
	AddressLine1           string `json:"address_line_1"`
	AddressLine2           string `json:"address_line_2"`
	AddressLine3           string `json:"address_line_3"`
	CompanyRegistrationNo  string `json:"company_registration_no"`
}

// Suggestion is a near-miss proprietor name offered when a name search
// returns nothing.
type Suggestion struct {
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

// Store runs read-only search queries against the loaded data.
type Store struct {
	conn *db.Connection
}

// NewStore creates a search store over a database connection.
func NewStore(conn *db.Connection) *Store {
	return &Store{conn: conn}
}

const resultColumns = `
	p.id,
	p.title_number,
	COALESCE(p.tenure, ''),
	p.property_address,
	COALESCE(p.district, ''),
	COALESCE(p.county, ''),
	COALESCE(p.region, ''),
	COALESCE(p.postcode, ''),
	COALESCE(p.price_paid, ''),
	COALESCE(p.date_proprietor_added, ''),
	COALESCE(pr.proprietor_name, ''),
	COALESCE(pr.proprietorship_category, ''),
	COALESCE(pr.address_line_1, ''),
	COALESCE(pr.address_line_2, ''),
	COALESCE(pr.address_line_3, ''),
	COALESCE(pr.company_registration_no, '')`

// ByCompanyNumber returns all join rows whose proprietor carries the
// given registration number, insensitive to casing, whitespace and
// punctuation in the input.
func (s *Store) ByCompanyNumber(ctx context.Context, companyNumber string) ([]Result, error) {
	normalized := normalize.CompanyNumber(companyNumber)
	if normalized == "" {
		return nil, ErrEmptyValue
	}

	rows, err := s.conn.DB.QueryContext(ctx, s.conn.Rebind(`
		SELECT `+resultColumns+`
		FROM properties p
		INNER JOIN proprietors pr ON p.id = pr.property_id
		WHERE pr.company_reg_normalized = ?
		ORDER BY p.property_address, pr.proprietor_number
	`), normalized)
	if err != nil {
		return nil, fmt.Errorf("company number search failed: %w", err)
	}
	return scanResults(rows)
}

// ByCompanyNumbers returns join rows for any of the given registration
// numbers. Used by the director search after resolving appointments.
func (s *Store) ByCompanyNumbers(ctx context.Context, companyNumbers []string) ([]Result, error) {
	var normalized []string
	for _, cn := range companyNumbers {
		if n := normalize.CompanyNumber(cn); n != "" {
			normalized = append(normalized, n)
		}
	}
	if len(normalized) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(normalized)), ",")
	args := make([]interface{}, len(normalized))
	for i, n := range normalized {
		args[i] = n
	}

	rows, err := s.conn.DB.QueryContext(ctx, s.conn.Rebind(`
		SELECT `+resultColumns+`
		FROM properties p
		INNER JOIN proprietors pr ON p.id = pr.property_id
		WHERE pr.company_reg_normalized IN (`+placeholders+`)
		ORDER BY pr.proprietor_name, p.property_address
		LIMIT 500
	`), args...)
	if err != nil {
		return nil, fmt.Errorf("company number set search failed: %w", err)
	}
	return scanResults(rows)
}

// ByCompanyName returns join rows whose proprietor name contains the
// query, case-insensitively. When nothing matches it computes fuzzy
// suggestions against every distinct proprietor name instead.
func (s *Store) ByCompanyName(ctx context.Context, companyName string) ([]Result, []Suggestion, error) {
	key := normalize.NameKey(companyName)
	if key == "" {
		return nil, nil, ErrEmptyValue
	}

	rows, err := s.conn.DB.QueryContext(ctx, s.conn.Rebind(`
		SELECT `+resultColumns+`
		FROM properties p
		INNER JOIN proprietors pr ON p.id = pr.property_id
		WHERE pr.proprietor_name_upper LIKE ?
		ORDER BY pr.proprietor_name, p.property_address
	`), "%"+key+"%")
	if err != nil {
		return nil, nil, fmt.Errorf("company name search failed: %w", err)
	}

	results, err := scanResults(rows)
	if err != nil {
		return nil, nil, err
	}
	if len(results) > 0 {
		return results, nil, nil
	}

	names, err := s.DistinctProprietorNames(ctx)
	if err != nil {
		return nil, nil, err
	}
	return nil, Suggest(companyName, names, DefaultSuggestionThreshold, DefaultSuggestionLimit), nil
}

// ByAddress returns join rows whose property address or postcode
// contains the query, case-insensitively.
func (s *Store) ByAddress(ctx context.Context, addressQuery string) ([]Result, error) {
	key := normalize.AddressKey(addressQuery)
	if key == "" {
		return nil, ErrEmptyValue
	}

	rows, err := s.conn.DB.QueryContext(ctx, s.conn.Rebind(`
		SELECT `+resultColumns+`
		FROM properties p
		INNER JOIN proprietors pr ON p.id = pr.property_id
		WHERE p.property_address_upper LIKE ?
		   OR p.postcode_upper LIKE ?
		ORDER BY p.property_address, pr.proprietor_number
		LIMIT ?
	`), "%"+key+"%", "%"+key+"%", addressResultLimit)
	if err != nil {
		return nil, fmt.Errorf("address search failed: %w", err)
	}
	return scanResults(rows)
}

// DistinctProprietorNames lists every distinct non-empty proprietor
// name, for suggestion scoring.
func (s *Store) DistinctProprietorNames(ctx context.Context) ([]string, error) {
	rows, err := s.conn.DB.QueryContext(ctx, `
		SELECT DISTINCT proprietor_name
		FROM proprietors
		WHERE proprietor_name IS NOT NULL AND TRIM(proprietor_name) != ''
		ORDER BY proprietor_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list proprietor names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Counts returns the total number of properties and proprietors.
func (s *Store) Counts(ctx context.Context) (properties, proprietors int64, err error) {
	if err = s.conn.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM properties").Scan(&properties); err != nil {
		return 0, 0, fmt.Errorf("failed to count properties: %w", err)
	}
	if err = s.conn.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM proprietors").Scan(&proprietors); err != nil {
		return 0, 0, fmt.Errorf("failed to count proprietors: %w", err)
	}
	return properties, proprietors, nil
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		err := rows.Scan(
			&r.ID, &r.TitleNumber, &r.Tenure, &r.PropertyAddress,
			&r.District, &r.County, &r.Region, &r.Postcode,
			&r.PricePaid, &r.DateProprietorAdded,
			&r.ProprietorName, &r.ProprietorshipCategory,
			&r.AddressLine1, &r.AddressLine2, &r.AddressLine3,
			&r.CompanyRegistrationNo,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
