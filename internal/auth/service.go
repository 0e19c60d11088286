package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/boardsync/boardsync-server/internal/core"
	"github.com/boardsync/boardsync-server/internal/store"
)

var (
	// ErrInvalidName is returned when a display name doesn't meet constraints.
	ErrInvalidName = errors.New("invalid display name")
)

// Service provides token issuance and implements the identity/role
// resolver and room-password verifier collaborators consumed by the core.
type Service struct {
	store     store.Store
	jwtConfig *JWTConfig
}

// NewService creates a new authentication service.
func NewService(st store.Store, jwtConfig *JWTConfig) *Service {
	return &Service{
		store:     st,
		jwtConfig: jwtConfig,
	}
}

// GuestLogin creates a guest user and returns its token and user id.
func (s *Service) GuestLogin(ctx context.Context, displayName string) (token, userID string, err error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" || len(displayName) > 32 {
		return "", "", ErrInvalidName
	}

	userID = uuid.NewString()
	if _, err := s.store.CreateGuestUser(ctx, userID, displayName); err != nil {
		return "", "", fmt.Errorf("create guest: %w", err)
	}

	token, err = GenerateToken(s.jwtConfig, userID, displayName, true)
	if err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	return token, userID, nil
}

// ValidateToken validates a JWT token and returns its claims.
func (s *Service) ValidateToken(token string) (*Claims, error) {
	return ValidateToken(s.jwtConfig, token)
}

// ResolveUser implements core.Directory.
func (s *Service) ResolveUser(ctx context.Context, userID string) (string, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return u.DisplayName, nil
}

// RoomRole implements core.Directory.
func (s *Service) RoomRole(ctx context.Context, roomID, userID string) (core.Role, error) {
	role, err := s.store.GetRoomRole(ctx, roomID, userID)
	if err != nil {
		return "", err
	}
	if role == "" {
		// The room creator recorded over the HTTP API owns the room even
		// without an explicit role row.
		room, err := s.store.GetRoomByID(ctx, roomID)
		if err == nil && room.OwnerID != "" && room.OwnerID == userID {
			return core.RoleOwner, nil
		}
		return "", nil
	}
	return core.Role(role), nil
}

// VerifyRoomPassword implements core.PasswordVerifier. Rooms without
// persisted metadata are open: first join creates them implicitly.
func (s *Service) VerifyRoomPassword(ctx context.Context, roomID, supplied string) error {
	room, err := s.store.GetRoomByID(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if room.PasswordHash == "" {
		return nil
	}
	if supplied == "" {
		return core.ErrPasswordRequired
	}
	if checkRoomPassword(room.PasswordHash, supplied) != nil {
		return core.ErrPasswordIncorrect
	}
	return nil
}

// Protected implements core.PasswordVerifier.
func (s *Service) Protected(ctx context.Context, roomID string) bool {
	room, err := s.store.GetRoomByID(ctx, roomID)
	return err == nil && room.PasswordHash != ""
}
