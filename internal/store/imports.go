package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordImport stores imp, assigning an ID and timestamp when unset.
func (s *Store) RecordImport(imp Import) (*Import, error) {
	if imp.ID == "" {
		imp.ID = uuid.NewString()
	}
	if imp.ImportedAt.IsZero() {
		imp.ImportedAt = time.Now()
	}
	imp.ImportedAt = imp.ImportedAt.UTC().Truncate(time.Second)

	_, err := s.db.Exec(
		`INSERT INTO imports (id, path, imported_at, rows, dates, readings, malformed, undated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		imp.ID, imp.Path, imp.ImportedAt.Format(time.RFC3339),
		imp.Rows, imp.Dates, imp.Readings, imp.Malformed, imp.Undated,
	)
	if err != nil {
		return nil, fmt.Errorf("record import: %w", err)
	}
	return &imp, nil
}

// ListImports returns the newest imports first. limit <= 0 means no limit.
func (s *Store) ListImports(limit int) ([]Import, error) {
	query := `SELECT id, path, imported_at, rows, dates, readings, malformed, undated
		FROM imports ORDER BY imported_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	var imports []Import
	for rows.Next() {
		var imp Import
		var importedAt string
		if err := rows.Scan(&imp.ID, &imp.Path, &importedAt, &imp.Rows, &imp.Dates,
			&imp.Readings, &imp.Malformed, &imp.Undated); err != nil {
			return nil, err
		}
		imp.ImportedAt, _ = time.Parse(time.RFC3339, importedAt)
		imports = append(imports, imp)
	}
	return imports, rows.Err()
}

// RecentPaths returns distinct imported paths, most recently used first.
func (s *Store) RecentPaths(limit int) ([]string, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT path FROM imports GROUP BY path
		 ORDER BY MAX(imported_at) DESC, MAX(rowid) DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}
