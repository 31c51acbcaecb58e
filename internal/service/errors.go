package service

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"rateharvester/internal/repository"
)

// ErrInvalidDate indicates a date that is not a real calendar date in YYYY-MM-DD form.
var ErrInvalidDate = errors.New("invalid date format, expected YYYY-MM-DD")

// ErrInvalidCode indicates a malformed currency code.
var ErrInvalidCode = errors.New("invalid currency code")

// ErrInvalidPage indicates bad pagination parameters.
var ErrInvalidPage = errors.New("invalid page parameters")

// ErrNotFound indicates the requested resource was not found.
var ErrNotFound = errors.New("not found")

// ErrInternal indicates an internal server error.
var ErrInternal = errors.New("internal error")

// ErrStoreUnavailable indicates that fetched rates could not be persisted.
var ErrStoreUnavailable = errors.New("rate store unavailable")

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	// Provider codes are letters, optionally with a unit suffix such as "JPY(100)".
	codePattern = regexp.MustCompile(`^[A-Z]{2,10}(\(\d+\))?$`)
)

// IsValidationError reports whether err was caused by bad client input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidDate) || errors.Is(err, ErrInvalidCode) || errors.Is(err, ErrInvalidPage)
}

// ParseDate strictly parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	if !datePattern.MatchString(s) {
		return time.Time{}, ErrInvalidDate
	}
	d, err := time.ParseInLocation(repository.DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// NormalizeCode upper-cases and validates a currency code.
func NormalizeCode(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if !codePattern.MatchString(c) {
		return "", ErrInvalidCode
	}
	return c, nil
}

// calendarDate drops the clock part of t, keeping t's own calendar day.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
