package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the staff member acting on a sale or rental. Authentication is
// handled outside this system; only the reference is kept here.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
