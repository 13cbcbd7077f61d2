package repos

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

func textOr(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

func textVal(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

func int4Val(v int) pgtype.Int4 {
	if v == 0 {
		return pgtype.Int4{Valid: false}
	}
	return pgtype.Int4{Int32: int32(v), Valid: true}
}

func int4Or(v pgtype.Int4) int {
	if !v.Valid {
		return 0
	}
	return int(v.Int32)
}

// tsVal maps a zero time to SQL NULL so cursors can be optional.
func tsVal(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}
