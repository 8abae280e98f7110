package spacedrep

import "errors"

var (
	// ErrInvalidRating is returned for a rating outside the four known values.
	ErrInvalidRating = errors.New("invalid rating")

	// ErrInvalidMethod is returned for an unknown retrieval method.
	ErrInvalidMethod = errors.New("invalid retrieval method")

	// ErrInvalidDirection is returned for an unknown presentation direction.
	ErrInvalidDirection = errors.New("invalid direction")
)
