package fixtures

import (
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/driftdb/litefile/internal/sqlitedriver"
)

// GenerateSample creates sample.db in dir: a small fruit database with
// the same shape as the published samples, built locally so tests do
// not depend on the network. Returns the path to the created file.
func GenerateSample(dir string) (string, error) {
	path := filepath.Join(dir, "sample.db")

	db, err := sql.Open(sqlitedriver.Name, path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE apples (id integer primary key autoincrement, name text, color text)`,
		`CREATE TABLE oranges (id integer primary key autoincrement, name text, description text)`,
		`INSERT INTO apples (name, color) VALUES
			('Granny Smith', 'Light Green'),
			('Fuji', 'Red'),
			('Honeycrisp', 'Blush Red'),
			('Golden Delicious', 'Yellow')`,
		`INSERT INTO oranges (name, description) VALUES
			('Mandarin', 'great for snacking'),
			('Tangelo', 'sweet and tart'),
			('Tangerine', 'great for snacking'),
			('Clementine', 'usually seedless, great for snacking'),
			('Valencia Orange', 'best for juicing'),
			('Navel Orange', 'sweet with slight bitter aftertaste')`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return "", fmt.Errorf("generate %s: %w", path, err)
		}
	}

	return path, nil
}

// GenerateIndexed creates indexed.db in dir: a larger table with a
// secondary index and enough rows to spill the table and index b-trees
// onto interior pages. Returns the path to the created file.
func GenerateIndexed(dir string, rows int) (string, error) {
	path := filepath.Join(dir, "indexed.db")

	db, err := sql.Open(sqlitedriver.Name, path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()
	// The page size pragma must reach the connection that creates the file.
	db.SetMaxOpenConns(1)

	setup := []string{
		`PRAGMA page_size = 512`,
		`CREATE TABLE companies (id integer primary key, name text, country text)`,
		`CREATE INDEX idx_companies_country ON companies (country)`,
	}
	for _, stmt := range setup {
		if _, err := db.Exec(stmt); err != nil {
			return "", fmt.Errorf("generate %s: %w", path, err)
		}
	}

	countries := []string{"eritrea", "micronesia", "tonga", "chad", "nauru"}

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", path, err)
	}
	insert, err := tx.Prepare(`INSERT INTO companies (id, name, country) VALUES (?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", path, err)
	}
	for i := 1; i <= rows; i++ {
		name := fmt.Sprintf("company %04d", i)
		country := countries[i%len(countries)]
		if _, err := insert.Exec(i, name, country); err != nil {
			return "", fmt.Errorf("generate %s: %w", path, err)
		}
	}
	if err := insert.Close(); err != nil {
		return "", fmt.Errorf("generate %s: %w", path, err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("generate %s: %w", path, err)
	}

	return path, nil
}
