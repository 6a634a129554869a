package sqlutil

import (
	"database/sql"
	"time"
)

// Helper functions for converting between Go types and sql.Null* types

// ToSqlString converts a Go string pointer to sql.NullString
func ToSqlString(val *string) sql.NullString {
	if val == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *val, Valid: true}
}

// FromSqlStringPtr converts sql.NullString to Go string pointer
func FromSqlStringPtr(val sql.NullString) *string {
	if !val.Valid {
		return nil
	}
	return &val.String
}

// ToSqlInt16 converts a Go int16 pointer to sql.NullInt16
func ToSqlInt16(val *int16) sql.NullInt16 {
	if val == nil {
		return sql.NullInt16{Valid: false}
	}
	return sql.NullInt16{Int16: *val, Valid: true}
}

// FromSqlInt16Ptr converts sql.NullInt16 to Go int16 pointer
func FromSqlInt16Ptr(val sql.NullInt16) *int16 {
	if !val.Valid {
		return nil
	}
	return &val.Int16
}

// ToSqlInt32 converts a Go int32 pointer to sql.NullInt32
func ToSqlInt32(val *int32) sql.NullInt32 {
	if val == nil {
		return sql.NullInt32{Valid: false}
	}
	return sql.NullInt32{Int32: *val, Valid: true}
}

// FromSqlInt32Ptr converts sql.NullInt32 to Go int32 pointer
func FromSqlInt32Ptr(val sql.NullInt32) *int32 {
	if !val.Valid {
		return nil
	}
	return &val.Int32
}

// ToSqlTime converts a Go time pointer to sql.NullTime
func ToSqlTime(val *time.Time) sql.NullTime {
	if val == nil {
		return sql.NullTime{Valid: false}
	}
	return sql.NullTime{Time: *val, Valid: true}
}

// FromSqlTime converts sql.NullTime to Go time pointer
func FromSqlTime(val sql.NullTime) *time.Time {
	if !val.Valid {
		return nil
	}
	return &val.Time
}
