package rooms

import "errors"

var (
	// ErrInvalidRequest is returned when a required field such as the room id is missing.
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("room not found")
	// ErrForbidden is returned when a room has an access code and the supplied
	// code does not match it exactly.
	ErrForbidden = errors.New("invalid code")
)
