package auth

import (
	"context"
	"errors"
	"strconv"
	"time"
)

type Service struct {
	Store    *Store
	Secret   string
	TokenTTL time.Duration
}

func NewService(store *Store, secret string, ttl time.Duration) *Service {
	return &Service{Store: store, Secret: secret, TokenTTL: ttl}
}

// Login verifies credentials and issues a signed token carrying the user's
// role and organisational scope.
func (s *Service) Login(ctx context.Context, email, password string) (string, User, error) {
	creds, err := s.Store.findCredentials(ctx, email)
	if err != nil {
		return "", User{}, err
	}
	if err := CheckPassword(creds.PasswordHash, password); err != nil {
		return "", User{}, ErrInvalidCredentials
	}
	token, err := GenerateToken(s.Secret, Claims{
		UserID:      creds.ID,
		Role:        creds.Role,
		SectorID:    creds.SectorID,
		SubsectorID: creds.SubsectorID,
	}, s.TokenTTL)
	if err != nil {
		return "", User{}, err
	}
	if err := s.Store.UpdateLastLogin(ctx, creds.ID); err != nil {
		return token, creds.User, err
	}
	return token, creds.User, nil
}

func (s *Service) CreateUser(ctx context.Context, in NewUser) (string, error) {
	if in.SubsectorID != "" && in.SectorID == "" {
		sectorID, err := s.Store.SectorOfSubsector(ctx, in.SubsectorID)
		if err != nil {
			return "", err
		}
		in.SectorID = sectorID
	}
	if err := s.checkScope(ctx, in.Role, in.SectorID, in.SubsectorID); err != nil {
		return "", err
	}
	hash, err := HashPassword(in.Password)
	if err != nil {
		return "", err
	}
	return s.Store.CreateUser(ctx, in, hash)
}

func (s *Service) UpdateUser(ctx context.Context, id string, upd UserUpdate) error {
	current, err := s.Store.GetUser(ctx, id)
	if err != nil {
		return err
	}
	role, sectorID, subsectorID := current.Role, current.SectorID, current.SubsectorID
	if upd.Role != nil {
		role = *upd.Role
	}
	if upd.SectorID != nil {
		sectorID = *upd.SectorID
	}
	if upd.SubsectorID != nil {
		subsectorID = *upd.SubsectorID
	}
	if err := s.checkScope(ctx, role, sectorID, subsectorID); err != nil {
		return err
	}
	return s.Store.UpdateUser(ctx, id, upd)
}

func (s *Service) ChangePassword(ctx context.Context, id, current, next string) error {
	hash, err := s.Store.PasswordHash(ctx, id)
	if err != nil {
		return err
	}
	if err := CheckPassword(hash, current); err != nil {
		return ErrInvalidCredentials
	}
	newHash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return s.Store.UpdatePassword(ctx, id, newHash)
}

func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	return s.Store.GetUser(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, filter UserFilter) ([]User, int, error) {
	return s.Store.ListUsers(ctx, filter)
}

func (s *Service) UsersInScope(ctx context.Context, role, sectorID, subsectorID string) ([]string, error) {
	return s.Store.UsersInScope(ctx, role, sectorID, subsectorID)
}

func (s *Service) checkScope(ctx context.Context, role, sectorID, subsectorID string) error {
	if !IsValidRole(role) {
		return ErrInvalidRole
	}
	if err := ValidateUserScope(role, sectorID, subsectorID); err != nil {
		return err
	}
	if sectorID == "" || subsectorID == "" {
		return nil
	}
	ok, err := s.Store.SubsectorInSector(ctx, sectorID, subsectorID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidScope
	}
	return nil
}

// ValidateUserScope checks that the sector and subsector present on a user
// are consistent with the role.
func ValidateUserScope(role, sectorID, subsectorID string) error {
	if RequiresSector(role) && sectorID == "" {
		return ErrInvalidScope
	}
	if RequiresSubsector(role) && subsectorID == "" {
		return ErrInvalidScope
	}
	if subsectorID != "" && sectorID == "" {
		return ErrInvalidScope
	}
	return nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound)
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
