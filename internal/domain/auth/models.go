package auth

import "time"

type UserContext struct {
	UserID      string
	Role        string
	SectorID    string
	SubsectorID string
}

type User struct {
	ID            string     `json:"id"`
	FullName      string     `json:"fullName"`
	Email         string     `json:"email"`
	Role          string     `json:"role"`
	SectorID      string     `json:"sectorId,omitempty"`
	SectorName    string     `json:"sectorName,omitempty"`
	SubsectorID   string     `json:"subsectorId,omitempty"`
	SubsectorName string     `json:"subsectorName,omitempty"`
	Status        string     `json:"status"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type NewUser struct {
	FullName    string
	Email       string
	Password    string
	Role        string
	SectorID    string
	SubsectorID string
}

type UserUpdate struct {
	FullName    *string
	Role        *string
	SectorID    *string
	SubsectorID *string
	Status      *string
}

type credentials struct {
	User
	PasswordHash string
}

const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)
