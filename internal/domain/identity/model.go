package identity

import (
	"time"

	"github.com/google/uuid"
)

// Member roles. Capabilities derive from these, not from identity
// allow-lists.
const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

// MaxAvatarLength is the longest avatar payload persisted during
// provisioning. Larger payloads are discarded rather than stored.
const MaxAvatarLength = 2000

// User maps to the app_user table. Users are keyed by the identity
// provider's subject id and created lazily on first successful
// authentication.
type User struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ExternalID string    `db:"external_id" json:"external_id"`
	Email      string    `db:"email" json:"email"`
	Name       string    `db:"name" json:"name"`
	Avatar     *string   `db:"avatar" json:"avatar,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Member maps to the member table and binds a user to an organization with a
// role. A user's accessible organizations are exactly their member rows.
type Member struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	Role           string    `db:"role" json:"role"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// MemberWithUser is a member row joined with its user for listings.
type MemberWithUser struct {
	Member
	Email string `db:"email" json:"email"`
	Name  string `db:"name" json:"name"`
}
