package domain

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors the identity provider's account record. The provider owns
// credentials and sessions; this row only carries profile data and gives
// foreign keys something local to reference.
type User struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	Name      *string    `json:"name,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

type UserRepository interface {
	GetByID(id uuid.UUID) (*User, error)
	GetByEmail(email string) (*User, error)
	CreateOrGet(user *User) (*User, error)
	UpdateName(id uuid.UUID, name string) (*User, error)
}
