// Package model defines the data shapes shared across the packager: the
// inbound request, account and schema metadata, and the per-task results
// the Packager collects.
package model

import (
	"fmt"
	"time"

	"github.com/healthbridge/udd/internal/udderrors"
)

const dateOnly = "2006-01-02"

// Request is one inbound study-data download request.
type Request struct {
	StudyID   string
	UserID    string
	StartDate time.Time
	EndDate   time.Time
}

// Validate reports whether all four fields are non-empty and StartDate
// does not come after EndDate. Failures wrap udderrors.ErrValidation.
func (r Request) Validate() error {
	if r.StudyID == "" {
		return fmt.Errorf("%w: studyId is required", udderrors.ErrValidation)
	}
	if r.UserID == "" {
		return fmt.Errorf("%w: userId is required", udderrors.ErrValidation)
	}
	if r.StartDate.IsZero() {
		return fmt.Errorf("%w: startDate is required", udderrors.ErrValidation)
	}
	if r.EndDate.IsZero() {
		return fmt.Errorf("%w: endDate is required", udderrors.ErrValidation)
	}
	if r.StartDate.After(r.EndDate) {
		return fmt.Errorf("%w: startDate %s is after endDate %s", udderrors.ErrValidation, r.StartDate.Format(dateOnly), r.EndDate.Format(dateOnly))
	}
	return nil
}

// StartDateString renders StartDate as an ISO calendar date, the format
// used both in the per-table query and the archive filename.
func (r Request) StartDateString() string { return r.StartDate.Format(dateOnly) }

// EndDateString renders EndDate as an ISO calendar date.
func (r Request) EndDateString() string { return r.EndDate.Format(dateOnly) }

// ParseDate parses a "YYYY-MM-DD" calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateOnly, s)
}
