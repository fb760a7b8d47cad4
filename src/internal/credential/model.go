package credential

import "time"

// Status constants
const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
	StatusPending  = "pending"
)

// Role constants
const (
	RoleAttorney = "attorney"
	RoleStaff    = "staff"
	RoleClient   = "client"
)

// User is the credential record. The password digest never crosses the
// public boundary; handlers serialize a Profile instead.
type User struct {
	ID             string     `json:"id" bson:"_id"`
	Email          string     `json:"email" bson:"email"`
	FirstName      string     `json:"firstName" bson:"first_name"`
	LastName       string     `json:"lastName" bson:"last_name"`
	Role           string     `json:"role" bson:"role"`
	Status         string     `json:"status" bson:"status"`
	FirmID         string     `json:"firmId,omitempty" bson:"firm_id,omitempty"`
	ClientID       string     `json:"clientId,omitempty" bson:"client_id,omitempty"`
	PasswordDigest string     `json:"-" bson:"password_digest,omitempty"`
	CreatedAt      time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" bson:"updated_at"`
	LastLoginAt    *time.Time `json:"lastLoginAt,omitempty" bson:"last_login_at,omitempty"`
}

type Profile struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	FirmID      string     `json:"firmId,omitempty"`
	ClientID    string     `json:"clientId,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// Patch enumerates the mutable fields of a user record. Anything not
// listed here cannot be changed through Update.
type Patch struct {
	FirstName *string
	LastName  *string
	Status    *string
}

func (u *User) ToProfile() *Profile {
	return &Profile{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		Status:      u.Status,
		FirmID:      u.FirmID,
		ClientID:    u.ClientID,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// IsActive checks if the user may log in.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// isValidStatus validates if status is a recognized value
func isValidStatus(status string) bool {
	validStatuses := []string{StatusActive, StatusDisabled, StatusPending}
	for _, validStatus := range validStatuses {
		if validStatus == status {
			return true
		}
	}
	return false
}
