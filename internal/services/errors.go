package services

import "errors"

var (
	ErrNotFound     = errors.New("not_found")
	ErrStore        = errors.New("store_failure")
	ErrInvalidInput = errors.New("invalid_input")
	ErrInvalidIndex = errors.New("invalid_entry_index")
	ErrMissingID    = errors.New("missing_calculation_id")
)
