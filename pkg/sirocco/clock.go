package sirocco

import "time"

// CurrentUTCDateTime returns the current UTC time as "2006/01/02 15:04:05".
func CurrentUTCDateTime() string {
	return formatUTC(time.Now())
}

func formatUTC(t time.Time) string {
	return t.UTC().Format("2006/01/02 15:04:05")
}
