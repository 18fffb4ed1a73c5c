package errs

import "net/http"

// errorMap holds the user-facing message and HTTP status for every code.
// A zero Status means 200, matching the envelope-based API responses.
var errorMap = map[int]CustomError{
	ErrInvalidParams:     {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	ErrRoomNotFound:  {Code: ErrRoomNotFound, Message: "Room not found.", Status: http.StatusNotFound},
	ErrRoomIsFull:    {Code: ErrRoomIsFull, Message: "The campus is full right now."},
	ErrAvatarInvalid: {Code: ErrAvatarInvalid, Message: "Unknown avatar."},
	ErrNameTooLong:   {Code: ErrNameTooLong, Message: "Display name must be at most %d characters."},
	ErrRoomBusy:      {Code: ErrRoomBusy, Message: "The campus is busy. Please try again."},

	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
