package sirocco

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the accepted format for init/end dates (YYYY-MM-DD HH:MM:SS).
const DateLayout = "2006-01-02 15:04:05"

// ForecastParams selects the forecast info of one run.
type ForecastParams struct {
	// Run is the project id: any Go integer or a numeric string.
	Run      any
	Timezone string
}

// RangeParams selects a run and an optional date window.
type RangeParams struct {
	Run      any
	Timezone string
	InitDate string
	EndDate  string
}

// BacktestParams selects backtests of a run by date window and lead time.
// InitAhead and EndAhead are minutes; nil means unset.
type BacktestParams struct {
	Run       any
	Timezone  string
	InitDate  string
	EndDate   string
	InitAhead *int
	EndAhead  *int
}

// Ahead returns a pointer to a lead time in minutes, for BacktestParams.
func Ahead(minutes int) *int { return &minutes }

const (
	msgInvalidRun = "Error: run must be an integer or a string that can be converted to an integer"
	msgDateFormat = "Error: %s must be in the format YYYY-mm-dd HH:MM:SS"
	msgAhead      = "Error: %s must be a positive integer"
	msgAheadOrder = "Error: end_ahead must be greater than init_ahead"
)

// ParseRun normalizes a run identifier to an int64.
func ParseRun(run any) (int64, error) {
	switch v := run.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return fromUint(uint64(v))
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return fromUint(v)
	case string:
		return parseRunString(v)
	case json.Number:
		return parseRunString(v.String())
	default:
		return 0, validationError("run", msgInvalidRun, ErrInvalidRun)
	}
}

func fromUint(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, validationError("run", msgInvalidRun, ErrInvalidRun)
	}
	return int64(v), nil
}

func parseRunString(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, validationError("run", msgInvalidRun, ErrInvalidRun)
	}
	return n, nil
}

// ParseDate parses value with DateLayout, rejecting anything time.Parse
// tolerates beyond the layout such as fractional seconds.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	if t.Format(DateLayout) != value {
		return time.Time{}, fmt.Errorf("date %q has data beyond %q", value, DateLayout)
	}
	return t, nil
}

func validateDate(field, value string) error {
	if _, err := ParseDate(value); err != nil {
		return validationError(field, fmt.Sprintf(msgDateFormat, field), ErrInvalidDate)
	}
	return nil
}

func validateAhead(field string, value int) error {
	if value < 0 {
		return validationError(field, fmt.Sprintf(msgAhead, field), ErrInvalidAhead)
	}
	return nil
}

func timezoneOrDefault(tz string) string {
	if tz = strings.TrimSpace(tz); tz != "" {
		return tz
	}
	return DefaultTimezone
}

// runQuery validates the common run/timezone pair and seeds the query.
func runQuery(run any, tz string) (query, error) {
	id, err := ParseRun(run)
	if err != nil {
		return nil, err
	}
	q := make(query, 0, 6)
	q = q.add("run", strconv.FormatInt(id, 10))
	q = q.add("timezone", timezoneOrDefault(tz))
	return q, nil
}

// appendRange validates and appends the optional init/end dates.
func appendRange(q query, initDate, endDate string) (query, error) {
	if initDate != "" {
		if err := validateDate("init_date", initDate); err != nil {
			return nil, err
		}
		q = q.add("init", initDate)
	}
	if endDate != "" {
		if err := validateDate("end_date", endDate); err != nil {
			return nil, err
		}
		q = q.add("end", endDate)
	}
	return q, nil
}

func (p ForecastParams) query() (query, error) {
	return runQuery(p.Run, p.Timezone)
}

func (p RangeParams) query() (query, error) {
	q, err := runQuery(p.Run, p.Timezone)
	if err != nil {
		return nil, err
	}
	return appendRange(q, p.InitDate, p.EndDate)
}

func (p BacktestParams) query() (query, error) {
	q, err := runQuery(p.Run, p.Timezone)
	if err != nil {
		return nil, err
	}
	if q, err = appendRange(q, p.InitDate, p.EndDate); err != nil {
		return nil, err
	}
	if p.InitAhead != nil {
		if err := validateAhead("init_ahead", *p.InitAhead); err != nil {
			return nil, err
		}
		q = q.add("init_ahead", strconv.Itoa(*p.InitAhead))
	}
	if p.EndAhead != nil {
		if err := validateAhead("end_ahead", *p.EndAhead); err != nil {
			return nil, err
		}
		q = q.add("end_ahead", strconv.Itoa(*p.EndAhead))
	}
	if p.InitAhead != nil && p.EndAhead != nil && *p.EndAhead <= *p.InitAhead {
		return nil, validationError("end_ahead", msgAheadOrder, ErrAheadOrder)
	}
	return q, nil
}
