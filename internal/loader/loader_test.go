package loader

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccod-search/internal/db"
)

var ccodHeader = []string{
	"Title Number", "Tenure", "Property Address", "District", "County", "Region",
	"Postcode", "Multiple Address Indicator", "Price Paid",
	"Date Proprietor Added", "Additional Proprietor Indicator",
	"Proprietor Name (1)", "Company Registration No. (1)", "Proprietorship Category (1)",
	"Proprietor (1) Address (1)", "Proprietor (1) Address (2)", "Proprietor (1) Address (3)",
	"Proprietor Name (2)", "Company Registration No. (2)", "Proprietorship Category (2)",
	"Proprietor (2) Address (1)", "Proprietor (2) Address (2)", "Proprietor (2) Address (3)",
	"Proprietor Name (3)", "Company Registration No. (3)", "Proprietorship Category (3)",
	"Proprietor (3) Address (1)", "Proprietor (3) Address (2)", "Proprietor (3) Address (3)",
	"Proprietor Name (4)", "Company Registration No. (4)", "Proprietorship Category (4)",
	"Proprietor (4) Address (1)", "Proprietor (4) Address (2)", "Proprietor (4) Address (3)",
}

// row builds a CCOD record with the given property fields and up to
// four proprietor slots of (name, companyNo, category, addr1, addr2, addr3).
func row(title, tenure, address, postcode string, slots ...[6]string) []string {
	r := make([]string, len(ccodHeader))
	r[0] = title
	r[1] = tenure
	r[2] = address
	r[6] = postcode
	for i, slot := range slots {
		if i >= 4 {
			break
		}
		base := 11 + i*6
		copy(r[base:base+6], slot[:])
	}
	return r
}

func writeCSV(t *testing.T, records [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ccod.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.Write(ccodHeader))
	require.NoError(t, w.WriteAll(records))
	return path
}

func openTestDB(t *testing.T) *db.Connection {
	t.Helper()
	conn, err := db.Open("", ":memory:")
	require.NoError(t, err)
	require.NoError(t, conn.EnableForeignKeys())
	require.NoError(t, conn.CreateSchema())
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestLoadBasic(t *testing.T) {
	conn := openTestDB(t)
	path := writeCSV(t, [][]string{
		row("TGL50538", "Freehold", "1 High Street, London", "SW1A 2AA",
			[6]string{"ACME HOLDINGS LIMITED", "01234567", "Limited Company or Public Limited Company", "1 Acme Way", "", ""}),
		row("NGL90210", "Leasehold", "2 Low Road, Leeds", "LS1 1AA",
			[6]string{"BRAVO PROPERTIES LTD", "07654321", "Limited Company or Public Limited Company", "2 Bravo St", "", ""},
			[6]string{"ACME HOLDINGS LIMITED", "01234567", "Limited Company or Public Limited Company", "1 Acme Way", "", ""}),
	})

	stats, err := New(conn, zerolog.Nop()).Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalRows)
	assert.Equal(t, 2, stats.PropertiesUpserted)
	assert.Equal(t, 3, stats.ProprietorsInserted)
	assert.Equal(t, 0, stats.MalformedRows)

	var properties, proprietors int
	require.NoError(t, conn.DB.QueryRow("SELECT COUNT(*) FROM properties").Scan(&properties))
	require.NoError(t, conn.DB.QueryRow("SELECT COUNT(*) FROM proprietors").Scan(&proprietors))
	assert.Equal(t, 2, properties)
	assert.Equal(t, 3, proprietors)
}

func TestReloadIsIdempotentOnTitleNumber(t *testing.T) {
	conn := openTestDB(t)
	path := writeCSV(t, [][]string{
		row("TGL50538", "Freehold", "1 High Street, London", "SW1A 2AA",
			[6]string{"ACME HOLDINGS LIMITED", "01234567", "", "", "", ""}),
	})

	l := New(conn, zerolog.Nop())
	_, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	_, err = l.Load(context.Background(), path)
	require.NoError(t, err)

	var count int
	require.NoError(t, conn.DB.QueryRow(
		"SELECT COUNT(*) FROM properties WHERE title_number = 'TGL50538'").Scan(&count))
	assert.Equal(t, 1, count, "reload must leave exactly one row per title number")
}

func TestReloadIsFullRefresh(t *testing.T) {
	conn := openTestDB(t)
	l := New(conn, zerolog.Nop())

	first := writeCSV(t, [][]string{
		row("TGL50538", "Freehold", "1 High Street, London", "SW1A 2AA",
			[6]string{"ACME HOLDINGS LIMITED", "01234567", "", "", "", ""}),
		row("NGL90210", "Leasehold", "2 Low Road, Leeds", "LS1 1AA",
			[6]string{"BRAVO PROPERTIES LTD", "07654321", "", "", "", ""}),
	})
	_, err := l.Load(context.Background(), first)
	require.NoError(t, err)

	// Second extract no longer contains NGL90210; its rows must not
	// survive the reload.
	second := writeCSV(t, [][]string{
		row("TGL50538", "Freehold", "1 High Street, London", "SW1A 2AA",
			[6]string{"ACME HOLDINGS LIMITED", "01234567", "", "", "", ""}),
	})
	_, err = l.Load(context.Background(), second)
	require.NoError(t, err)

	var count int
	require.NoError(t, conn.DB.QueryRow("SELECT COUNT(*) FROM properties").Scan(&count))
	assert.Equal(t, 1, count)
	require.NoError(t, conn.DB.QueryRow("SELECT COUNT(*) FROM proprietors").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSparseProprietorSlots(t *testing.T) {
	conn := openTestDB(t)

	// Slots 1 and 3 populated, 2 and 4 empty.
	path := writeCSV(t, [][]string{
		row("TGL50538", "Freehold", "1 High Street, London", "SW1A 2AA",
			[6]string{"ACME HOLDINGS LIMITED", "01234567", "", "", "", ""},
			[6]string{"", "", "", "", "", ""},
			[6]string{"CHARLIE ESTATES LTD", "09999999", "", "", "", ""}),
	})

	_, err := New(conn, zerolog.Nop()).Load(context.Background(), path)
	require.NoError(t, err)

	rows, err := conn.DB.Query(`
		SELECT pr.proprietor_number
		FROM proprietors pr
		JOIN properties p ON p.id = pr.property_id
		WHERE p.title_number = 'TGL50538'
		ORDER BY pr.proprietor_number
	`)
	require.NoError(t, err)
	defer rows.Close()

	var slots []int
	for rows.Next() {
		var slot int
		require.NoError(t, rows.Scan(&slot))
		slots = append(slots, slot)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []int{1, 3}, slots)
}

func TestSlotsWithoutCompanyNumberAreSkipped(t *testing.T) {
	conn := openTestDB(t)
	path := writeCSV(t, [][]string{
		row("TGL50538", "Freehold", "1 High Street, London", "SW1A 2AA",
			[6]string{"JOHN SMITH", "", "Private Individual", "", "", ""},
			[6]string{"ACME HOLDINGS LIMITED", "01234567", "", "", "", ""}),
	})

	stats, err := New(conn, zerolog.Nop()).Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.SkippedNoCompany)
	assert.Equal(t, 1, stats.ProprietorsInserted)
}

func TestMalformedRowsAreCountedNotFatal(t *testing.T) {
	conn := openTestDB(t)
	path := writeCSV(t, [][]string{
		row("", "Freehold", "No Title Number Here", "AB1 2CD"),
		row("TGL50538", "Freehold", "", "SW1A 2AA"), // missing address
		row("NGL90210", "Leasehold", "2 Low Road, Leeds", "LS1 1AA",
			[6]string{"BRAVO PROPERTIES LTD", "07654321", "", "", "", ""}),
	})

	stats, err := New(conn, zerolog.Nop()).Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.MalformedRows)
	assert.Equal(t, 1, stats.PropertiesUpserted)
}

func TestMissingFileFailsBeforeWrites(t *testing.T) {
	conn := openTestDB(t)
	l := New(conn, zerolog.Nop())

	seed := writeCSV(t, [][]string{
		row("TGL50538", "Freehold", "1 High Street, London", "SW1A 2AA",
			[6]string{"ACME HOLDINGS LIMITED", "01234567", "", "", "", ""}),
	})
	_, err := l.Load(context.Background(), seed)
	require.NoError(t, err)

	_, err = l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)

	// Prior data must be untouched.
	var count int
	require.NoError(t, conn.DB.QueryRow("SELECT COUNT(*) FROM properties").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestCompanyNumberNormalizedAtWriteTime(t *testing.T) {
	conn := openTestDB(t)
	path := writeCSV(t, [][]string{
		row("TGL50538", "Freehold", "1 High Street, London", "SW1A 2AA",
			[6]string{"ACME HOLDINGS LIMITED", " ab-12 3456 ", "", "", "", ""}),
	})

	_, err := New(conn, zerolog.Nop()).Load(context.Background(), path)
	require.NoError(t, err)

	var normalized string
	require.NoError(t, conn.DB.QueryRow(
		"SELECT company_reg_normalized FROM proprietors").Scan(&normalized))
	assert.Equal(t, "AB123456", normalized)
}
