// Package usecase implements the business logic for the prices feature.
package usecase

import "errors"

var (
	// ErrInvalidDate is returned when a date bound is not a YYYY-MM-DD calendar day.
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

	// ErrInvalidRange is returned when a range starts after it ends.
	ErrInvalidRange = errors.New("invalid range, start is after end")

	// ErrInvalidMonth is returned when a year/month selector is incomplete or out of range.
	ErrInvalidMonth = errors.New("invalid month, expected year and month 1-12")

	// ErrInvalidYear is returned when a year selector is negative.
	ErrInvalidYear = errors.New("invalid year")

	// ErrNoSeedData is returned when no bundled dataset is configured or it holds no records.
	ErrNoSeedData = errors.New("no seed data available")
)
