package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// mysqlDuplicateKeyName is the server error for re-creating an existing index
const mysqlDuplicateKeyName = 1061

// EnsureSchema creates the triage tables and indexes if they don't exist
func EnsureSchema(db *sqlx.DB) error {
	for _, query := range schemaQueries(db.DriverName()) {
		if _, err := db.Exec(query); err != nil {
			if isDuplicateIndex(err) {
				continue
			}
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// schemaQueries returns the DDL for the given driver. Stock MySQL rejects
// CREATE INDEX IF NOT EXISTS, so there the index statements run in their
// plain form and EnsureSchema ignores the duplicate-index error on re-runs.
func schemaQueries(driver string) []string {
	queries := []string{
		// One case per distinct inbound message; external_id is the
		// idempotency key for creation.
		`CREATE TABLE IF NOT EXISTS cases (
			id SERIAL PRIMARY KEY,
			external_id VARCHAR(255) NOT NULL UNIQUE,
			from_addr VARCHAR(320) NOT NULL DEFAULT '',
			subject TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT '',
			thread_ref VARCHAR(255) NOT NULL DEFAULT '',
			received_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			department VARCHAR(100) NOT NULL DEFAULT '',
			department_id INT,
			priority VARCHAR(10) NOT NULL DEFAULT '',
			used_fallback BOOLEAN NOT NULL DEFAULT FALSE,
			draft_text TEXT NOT NULL DEFAULT '',
			draft_confidence INT NOT NULL DEFAULT 0,
			state VARCHAR(20) NOT NULL DEFAULT 'received',
			reply_sent_at TIMESTAMP,
			forward_sent_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cases_state ON cases(state)`,
		`CREATE INDEX IF NOT EXISTS idx_cases_created_at ON cases(created_at)`,

		// Per-case fault log, appended on collaborator failures
		`CREATE TABLE IF NOT EXISTS case_faults (
			id SERIAL PRIMARY KEY,
			case_id INT NOT NULL,
			stage VARCHAR(50) NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_case_faults_case_id ON case_faults(case_id)`,

		// Routing targets; the fallback department row must exist
		`CREATE TABLE IF NOT EXISTS departments (
			id SERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL UNIQUE,
			head_name VARCHAR(200) NOT NULL DEFAULT '',
			head_email VARCHAR(320) NOT NULL DEFAULT ''
		)`,

		// Metadata for uploaded knowledge documents (chunks live in Qdrant)
		`CREATE TABLE IF NOT EXISTS knowledge_docs (
			id SERIAL PRIMARY KEY,
			filename VARCHAR(255) NOT NULL,
			department VARCHAR(100) NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			chunk_count INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	if driver != driverMySQL {
		return queries
	}
	for i, query := range queries {
		if strings.HasPrefix(query, "CREATE INDEX") {
			queries[i] = strings.Replace(query, " IF NOT EXISTS", "", 1)
		}
	}
	return queries
}

func isDuplicateIndex(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateKeyName
}

// SeedDepartments inserts the given department names if the table is empty.
// The fallback department must be part of the list.
func SeedDepartments(db *sqlx.DB, names []string) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM departments"); err != nil {
		return fmt.Errorf("failed to count departments: %w", err)
	}
	if count > 0 {
		return nil
	}

	query := db.Rebind("INSERT INTO departments (name) VALUES (?)")
	for _, name := range names {
		if _, err := db.Exec(query, name); err != nil {
			return fmt.Errorf("failed to seed department %q: %w", name, err)
		}
	}
	return nil
}
