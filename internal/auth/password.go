package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// roomPasswordCost is the bcrypt cost for room passwords. Rooms are
// joined far more often than created, and the hash is verified on every
// protected join, so the cost stays at the moderate default.
const roomPasswordCost = 10

// HashRoomPassword hashes a plaintext room password for storage in the
// room metadata record.
func HashRoomPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), roomPasswordCost)
	if err != nil {
		return "", fmt.Errorf("hash room password: %w", err)
	}
	return string(hash), nil
}

// checkRoomPassword compares a stored room password hash against a
// supplied plaintext.
func checkRoomPassword(hash, supplied string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(supplied))
}
