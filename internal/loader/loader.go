package loader

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ccod-search/internal/db"
	"github.com/ccod-search/internal/normalize"
	"github.com/ccod-search/internal/observability"
)

// ErrInProgress is returned when a reload is requested while another
// load is still running. Loads are serialized in-process.
var ErrInProgress = errors.New("a data load is already in progress")

// commitEvery controls how often the load transaction is committed.
const commitEvery = 10000

// maxProprietorSlots is fixed by the CCOD format: four flat column
// groups per row.
const maxProprietorSlots = 4

// Stats reports the outcome of a bulk load.
type Stats struct {
	TotalRows           int `json:"total_rows"`
	PropertiesUpserted  int `json:"properties_upserted"`
	ProprietorsInserted int `json:"proprietors_inserted"`
	SkippedNoCompany    int `json:"skipped_no_company"`
	MalformedRows       int `json:"malformed_rows"`
}

// Loader streams the CCOD CSV extract into the database. A reload is a
// destructive full refresh: existing rows are deleted before loading.
type Loader struct {
	conn *db.Connection
	log  zerolog.Logger
	mu   sync.Mutex
}

// New creates a Loader bound to a database connection.
func New(conn *db.Connection, log zerolog.Logger) *Loader {
	return &Loader{conn: conn, log: log}
}

// Load runs a full load from csvPath. It returns ErrInProgress if a
// load is already running, and fails before mutating any state when
// the source file is missing.
func (l *Loader) Load(ctx context.Context, csvPath string) (*Stats, error) {
	if !l.mu.TryLock() {
		return nil, ErrInProgress
	}
	defer l.mu.Unlock()

	if _, err := os.Stat(csvPath); err != nil {
		return nil, fmt.Errorf("source CSV not found at %s: %w", csvPath, err)
	}

	if err := l.conn.CreateSchema(); err != nil {
		return nil, err
	}

	file, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV: %w", err)
	}
	defer file.Close()

	started := time.Now()
	l.log.Info().Str("path", csvPath).Msg("starting CCOD load")

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // ragged rows are counted as malformed, not fatal

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columnMap := make(map[string]int)
	for i, col := range header {
		columnMap[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, required := range []string{"title number", "property address"} {
		if _, ok := columnMap[required]; !ok {
			return nil, fmt.Errorf("CSV header missing required column %q", required)
		}
	}

	tx, err := l.conn.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			tx.Rollback()
		}
	}()

	// Full refresh: clear prior state so a reload never merges with
	// stale rows from an earlier extract.
	if _, err := tx.ExecContext(ctx, "DELETE FROM proprietors"); err != nil {
		return nil, fmt.Errorf("failed to clear proprietors: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM properties"); err != nil {
		return nil, fmt.Errorf("failed to clear properties: %w", err)
	}

	stats := &Stats{}
	sinceCommit := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			stats.MalformedRows++
			continue
		}
		stats.TotalRows++

		if err := l.loadRow(ctx, tx, record, columnMap, stats); err != nil {
			stats.MalformedRows++
			if stats.MalformedRows <= 5 {
				l.log.Warn().Err(err).Int("row", stats.TotalRows).Msg("skipping malformed row")
			}
			continue
		}

		sinceCommit++
		if sinceCommit >= commitEvery {
			if err := tx.Commit(); err != nil {
				tx = nil
				return nil, fmt.Errorf("failed to commit batch: %w", err)
			}
			tx, err = l.conn.DB.BeginTx(ctx, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to begin transaction: %w", err)
			}
			sinceCommit = 0
			l.log.Info().
				Int("rows", stats.TotalRows).
				Int("properties", stats.PropertiesUpserted).
				Int("proprietors", stats.ProprietorsInserted).
				Msg("load progress")
		}
	}

	if err := tx.Commit(); err != nil {
		tx = nil
		return nil, fmt.Errorf("failed to commit load: %w", err)
	}
	tx = nil

	if err := l.conn.CreateIndexes(); err != nil {
		return nil, err
	}

	observability.LoadRows.WithLabelValues("property").Add(float64(stats.PropertiesUpserted))
	observability.LoadRows.WithLabelValues("proprietor").Add(float64(stats.ProprietorsInserted))
	observability.LoadRows.WithLabelValues("skipped_no_company").Add(float64(stats.SkippedNoCompany))
	observability.LoadRows.WithLabelValues("malformed").Add(float64(stats.MalformedRows))
	observability.LoadDuration.Observe(time.Since(started).Seconds())

	l.log.Info().
		Int("rows", stats.TotalRows).
		Int("properties", stats.PropertiesUpserted).
		Int("proprietors", stats.ProprietorsInserted).
		Int("skipped_no_company", stats.SkippedNoCompany).
		Int("malformed", stats.MalformedRows).
		Dur("elapsed", time.Since(started)).
		Msg("CCOD load complete")

	return stats, nil
}

// loadRow upserts one property and its occupied proprietor slots.
func (l *Loader) loadRow(ctx context.Context, tx *sql.Tx, record []string, columnMap map[string]int, stats *Stats) error {
	titleNumber := columnValue(record, columnMap, "title number")
	address := columnValue(record, columnMap, "property address")
	if titleNumber == "" || address == "" {
		return fmt.Errorf("missing title number or property address")
	}

	postcode := columnValue(record, columnMap, "postcode")

	var propertyID int64
	err := tx.QueryRowContext(ctx, l.conn.Rebind(`
		INSERT INTO properties (
			title_number, tenure, property_address, district, county, region,
			postcode, multiple_address_indicator, price_paid,
			date_proprietor_added, additional_proprietor_indicator,
			property_address_upper, postcode_upper
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(title_number) DO UPDATE SET
			tenure = excluded.tenure,
			property_address = excluded.property_address,
			district = excluded.district,
			county = excluded.county,
			region = excluded.region,
			postcode = excluded.postcode,
			multiple_address_indicator = excluded.multiple_address_indicator,
			price_paid = excluded.price_paid,
			date_proprietor_added = excluded.date_proprietor_added,
			additional_proprietor_indicator = excluded.additional_proprietor_indicator,
			property_address_upper = excluded.property_address_upper,
			postcode_upper = excluded.postcode_upper
		RETURNING id
	`),
		titleNumber,
		columnValue(record, columnMap, "tenure"),
		address,
		columnValue(record, columnMap, "district"),
		columnValue(record, columnMap, "county"),
		columnValue(record, columnMap, "region"),
		postcode,
		columnValue(record, columnMap, "multiple address indicator"),
		columnValue(record, columnMap, "price paid"),
		columnValue(record, columnMap, "date proprietor added"),
		columnValue(record, columnMap, "additional proprietor indicator"),
		normalize.AddressKey(address),
		normalize.AddressKey(postcode),
	).Scan(&propertyID)
	if err != nil {
		return fmt.Errorf("failed to upsert property %s: %w", titleNumber, err)
	}
	stats.PropertiesUpserted++

	for slot := 1; slot <= maxProprietorSlots; slot++ {
		name := columnValue(record, columnMap, fmt.Sprintf("proprietor name (%d)", slot))
		companyNo := normalize.CompanyNumber(columnValue(record, columnMap, fmt.Sprintf("company registration no. (%d)", slot)))

		if name == "" && companyNo == "" {
			continue // unoccupied slot
		}
		// Companies-only dataset: slots without a registration number
		// are counted and skipped rather than loaded.
		if companyNo == "" {
			stats.SkippedNoCompany++
			continue
		}

		_, err := tx.ExecContext(ctx, l.conn.Rebind(`
			INSERT INTO proprietors (
				property_id, proprietor_number, proprietor_name,
				company_registration_no, proprietorship_category,
				address_line_1, address_line_2, address_line_3,
				company_reg_normalized, proprietor_name_upper
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(property_id, proprietor_number) DO UPDATE SET
				proprietor_name = excluded.proprietor_name,
				company_registration_no = excluded.company_registration_no,
				proprietorship_category = excluded.proprietorship_category,
				address_line_1 = excluded.address_line_1,
				address_line_2 = excluded.address_line_2,
				address_line_3 = excluded.address_line_3,
				company_reg_normalized = excluded.company_reg_normalized,
				proprietor_name_upper = excluded.proprietor_name_upper
		`),
			propertyID,
			slot,
			name,
			columnValue(record, columnMap, fmt.Sprintf("company registration no. (%d)", slot)),
			columnValue(record, columnMap, fmt.Sprintf("proprietorship category (%d)", slot)),
			columnValue(record, columnMap, fmt.Sprintf("proprietor (%d) address (1)", slot)),
			columnValue(record, columnMap, fmt.Sprintf("proprietor (%d) address (2)", slot)),
			columnValue(record, columnMap, fmt.Sprintf("proprietor (%d) address (3)", slot)),
			companyNo,
			normalize.NameKey(name),
		)
		if err != nil {
			return fmt.Errorf("failed to insert proprietor slot %d for %s: %w", slot, titleNumber, err)
		}
		stats.ProprietorsInserted++
	}

	return nil
}

func columnValue(record []string, columnMap map[string]int, columnName string) string {
	if idx, exists := columnMap[columnName]; exists && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}
