package utils

import (
	"time"
)

const DateLayout = "2006-01-02"

// TruncateDate отбрасывает время, оставляя календарную дату в UTC.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
