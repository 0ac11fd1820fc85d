package db

import "fmt"

// CreateSchema creates the properties and proprietors tables if they do
// not already exist, plus their supporting indexes.
func (c *Connection) CreateSchema() error {
	idCol := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if c.Dialect == DialectPostgres {
		idCol = "SERIAL PRIMARY KEY"
	}

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS properties (
			id %s,
			title_number TEXT NOT NULL UNIQUE,
			tenure TEXT,
			property_address TEXT NOT NULL,
			district TEXT,
			county TEXT,
			region TEXT,
			postcode TEXT,
			multiple_address_indicator TEXT,
			price_paid TEXT,
			date_proprietor_added TEXT,
			additional_proprietor_indicator TEXT,
			property_address_upper TEXT NOT NULL DEFAULT '',
			postcode_upper TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`, idCol),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS proprietors (
			id %s,
			property_id INTEGER NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
			proprietor_number INTEGER NOT NULL,
			proprietor_name TEXT,
			company_registration_no TEXT,
			proprietorship_category TEXT,
			address_line_1 TEXT,
			address_line_2 TEXT,
			address_line_3 TEXT,
			company_reg_normalized TEXT NOT NULL DEFAULT '',
			proprietor_name_upper TEXT NOT NULL DEFAULT '',
			UNIQUE(property_id, proprietor_number)
		)`, idCol),
	}

	for _, stmt := range statements {
		if _, err := c.DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return c.CreateIndexes()
}

// CreateIndexes (re)creates the search indexes. Called after schema
// creation and again after each bulk load.
func (c *Connection) CreateIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_company_registration_no ON proprietors(company_registration_no)",
		"CREATE INDEX IF NOT EXISTS idx_company_reg_normalized ON proprietors(company_reg_normalized)",
		"CREATE INDEX IF NOT EXISTS idx_property_id ON proprietors(property_id)",
		"CREATE INDEX IF NOT EXISTS idx_proprietor_name ON proprietors(proprietor_name)",
		"CREATE INDEX IF NOT EXISTS idx_title_number ON properties(title_number)",
		"CREATE INDEX IF NOT EXISTS idx_postcode ON properties(postcode)",
	}

	for _, stmt := range indexes {
		if _, err := c.DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// EnableForeignKeys turns on FK enforcement for SQLite, which defaults
// to off per connection. No-op on Postgres.
func (c *Connection) EnableForeignKeys() error {
	if c.Dialect != DialectSQLite {
		return nil
	}
	_, err := c.DB.Exec("PRAGMA foreign_keys = ON")
	return err
}
