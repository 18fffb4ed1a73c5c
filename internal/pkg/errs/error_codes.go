/*
Package errs provides the application error type and its numeric codes.

Codes are shared by HTTP responses and ERROR messages on the campus socket.
*/
package errs

// 1xxx: request handling
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrRateLimitExceeded indicates that the caller exceeded the join rate.
	ErrRateLimitExceeded = 1007
)

// 2xxx: rooms and participants
const (
	// ErrRoomNotFound indicates that no room with the requested name is running.
	ErrRoomNotFound = 2103

	// ErrRoomIsFull indicates that the room reached its participant capacity.
	ErrRoomIsFull = 2104

	// ErrAvatarInvalid indicates an avatar kind outside the selectable set.
	ErrAvatarInvalid = 2105

	// ErrNameTooLong indicates a display name above the length limit.
	ErrNameTooLong = 2106

	// ErrRoomBusy indicates that the room could not accept a registration in time.
	ErrRoomBusy = 2107
)

// 5xxx: internal
const (
	// ErrUnknown represents an unclassified server error.
	ErrUnknown = 5000
)
