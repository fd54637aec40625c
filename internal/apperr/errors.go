package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrEmptyQuery        = errors.New("query is empty")
	ErrUnknownVariant    = errors.New("unknown variant")
	ErrUpstream          = errors.New("upstream request failed")
	ErrMalformedResponse = errors.New("malformed upstream response")
)
