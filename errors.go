package geuui

import "errors"

var (
	// ErrInvalidFormat indicates that the EUUI string format is invalid
	ErrInvalidFormat = errors.New("geuui: invalid EUUI format")

	// ErrInvalidLength indicates that the EUUI byte slice has incorrect length
	ErrInvalidLength = errors.New("geuui: invalid EUUI length (expected 64 bytes)")

	// ErrInvalidPart indicates that a quarter selector is not one of First, Second, Third or Fourth
	ErrInvalidPart = errors.New("geuui: invalid quarter part (expected 0-3)")
)
