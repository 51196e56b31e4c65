package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrStoreClosed   = errors.New("store is closed")
	ErrMissingID     = errors.New("record has no id")
	ErrUnknownFinish = errors.New("finish not found")
)
