package models

import (
	"errors"
	"strings"
)

// Common errors
var (
	ErrMissingColumn       = errors.New("required column missing")
	ErrComputation         = errors.New("campaign computation failed")
	ErrEmptyInput          = errors.New("input table is empty")
	ErrUnknownCampaignType = errors.New("unknown campaign type")
	ErrInvalidRule         = errors.New("invalid rule")
)

// MissingColumnsError lists the columns a campaign needed but did not find.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return ErrMissingColumn.Error() + ": " + strings.Join(e.Columns, ", ")
}

// Unwrap lets errors.Is match ErrMissingColumn.
func (e *MissingColumnsError) Unwrap() error {
	return ErrMissingColumn
}
