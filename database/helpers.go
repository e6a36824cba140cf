package database

import (
	"database/sql"
	"time"
)

// nullStringToPointer превращает sql.NullString → *string.
func nullStringToPointer(ns sql.NullString) *string {
	if ns.Valid {
		s := ns.String
		return &s
	}
	return nil
}

// nullTimeToPointer превращает sql.NullTime → *time.Time.
func nullTimeToPointer(nt sql.NullTime) *time.Time {
	if nt.Valid {
		t := nt.Time
		return &t
	}
	return nil
}

// nullIntToPointer превращает sql.NullInt64 → *int.
func nullIntToPointer(ni sql.NullInt64) *int {
	if ni.Valid {
		n := int(ni.Int64)
		return &n
	}
	return nil
}

// nullInt64ToPointer превращает sql.NullInt64 → *int64.
func nullInt64ToPointer(ni sql.NullInt64) *int64 {
	if ni.Valid {
		n := ni.Int64
		return &n
	}
	return nil
}
