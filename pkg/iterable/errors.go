package iterable

import "errors"

var (
	// ErrDestinationTooSmall is returned when a fill target cannot hold every
	// filtered element from the requested offset
	ErrDestinationTooSmall = errors.New("destination too small")

	// ErrTypeMismatch is returned when the element type of a fill target
	// cannot hold the filtered elements
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrKeyExists is returned by AppendTo when the destination already maps
	// one of the filtered keys
	ErrKeyExists = errors.New("key already exists")
)
