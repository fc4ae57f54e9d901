package users

// Roles recognized by the credential repository.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is one entry in the users collection document. PassHash is the
// bcrypt hash of the account password and never leaves the repository
// layer; use Sanitized for anything external-facing.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	PassHash string `json:"passHash,omitempty"`
	Disabled bool   `json:"disabled"`
}

// Sanitized returns a copy with the credential hash stripped.
func (u *User) Sanitized() *User {
	c := *u
	c.PassHash = ""
	return &c
}

// CreateInput is the payload for Create.
type CreateInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Changes is the partial update payload for Update. Only non-nil fields
// are applied.
type Changes struct {
	Password *string `json:"password,omitempty"`
	Role     *string `json:"role,omitempty"`
	Disabled *bool   `json:"disabled,omitempty"`
}

func validRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}
