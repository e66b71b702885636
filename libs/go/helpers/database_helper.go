package helpers

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// StringToNullableText converts string to nullable pgtype.Text
func StringToNullableText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// NullableTextToString converts nullable pgtype.Text back to a plain string
func NullableTextToString(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

// TimeToNullableTimestamptz converts time to nullable pgtype.Timestamptz
func TimeToNullableTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// TimePtrToNullableDate converts an optional date to nullable pgtype.Date
func TimePtrToNullableDate(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: *t, Valid: true}
}

// NullableDateToTimePtr converts nullable pgtype.Date back to an optional date
func NullableDateToTimePtr(d pgtype.Date) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}

// Int32ToNullableInt4 converts int32 to nullable pgtype.Int4
func Int32ToNullableInt4(i int32) pgtype.Int4 {
	return pgtype.Int4{Int32: i, Valid: true}
}

// IntPtrToNullableInt4 converts an optional int to nullable pgtype.Int4
func IntPtrToNullableInt4(i *int) pgtype.Int4 {
	if i == nil {
		return pgtype.Int4{Valid: false}
	}
	return pgtype.Int4{Int32: int32(*i), Valid: true}
}

// NullableInt4ToIntPtr converts nullable pgtype.Int4 back to an optional int
func NullableInt4ToIntPtr(i pgtype.Int4) *int {
	if !i.Valid {
		return nil
	}
	v := int(i.Int32)
	return &v
}

// Int64ToNullableInt8 converts int64 to nullable pgtype.Int8
func Int64ToNullableInt8(i int64) pgtype.Int8 {
	return pgtype.Int8{Int64: i, Valid: true}
}

// Int64PtrToNullableInt8 converts an optional int64 to nullable pgtype.Int8
func Int64PtrToNullableInt8(i *int64) pgtype.Int8 {
	if i == nil {
		return pgtype.Int8{Valid: false}
	}
	return pgtype.Int8{Int64: *i, Valid: true}
}

// NullableInt8ToInt64Ptr converts nullable pgtype.Int8 back to an optional int64
func NullableInt8ToInt64Ptr(i pgtype.Int8) *int64 {
	if !i.Valid {
		return nil
	}
	v := i.Int64
	return &v
}
