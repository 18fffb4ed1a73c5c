/*
Package randx generates identifiers: Base62 session ids from crypto/rand and
UUID v4 message ids.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars is the alphabet used for session ids.
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the size of the Base62 alphabet.
	Base62Len = int64(len(Base62Chars))

	// SessionIDLength is the fixed length of a session id.
	SessionIDLength = 9
)

// SessionID returns a random Base62 string of SessionIDLength characters.
func SessionID() (string, error) {
	return base62(SessionIDLength)
}

// IsValidSessionID reports whether id has the shape produced by SessionID.
func IsValidSessionID(id string) bool {
	if len(id) != SessionIDLength {
		return false
	}
	for _, char := range id {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}
	return true
}

// MessageID returns a UUID v4 string identifying one outbound message.
func MessageID() string {
	return uuid.New().String()
}

// GuestName returns "Guest-" followed by the first four characters of the session id.
func GuestName(sessionID string) string {
	if len(sessionID) > 4 {
		sessionID = sessionID[:4]
	}
	return "Guest-" + sessionID
}

func base62(length int) (string, error) {
	result := make([]byte, length)
	for i := range length {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("randx: read random index: %w", err)
		}
		result[i] = Base62Chars[num.Int64()]
	}
	return string(result), nil
}
