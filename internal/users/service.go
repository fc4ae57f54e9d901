// Package users implements the credential repository: account lifecycle,
// bootstrap of the default administrator, and authentication against the
// users document.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/streavmin/streavmin/internal/audit"
	"github.com/streavmin/streavmin/internal/docstore"
)

const usersFile = "users/users.json"

const (
	bootstrapAdminUsername = "admin"
	bootstrapAdminPassword = "admin123"
	bcryptCost             = 10
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrInvalidRole  = errors.New("invalid role")
	ErrInvalidInput = errors.New("username and password are required")

	// ErrInvalidCredentials is returned for unknown usernames, disabled
	// accounts and wrong passwords alike, so callers cannot enumerate
	// usernames from the result.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service provides user account operations over the users document.
type Service struct {
	store  *docstore.Store
	audit  *audit.Logger
	logger zerolog.Logger
}

// NewService creates a new users service.
func NewService(store *docstore.Store, auditLog *audit.Logger, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		audit:  auditLog,
		logger: logger.With().Str("component", "users").Logger(),
	}
}

func defaultAdmin() (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(bootstrapAdminPassword), bcryptCost)
	if err != nil {
		return User{}, fmt.Errorf("failed to hash bootstrap password: %w", err)
	}
	return User{
		ID:       uuid.NewString(),
		Username: bootstrapAdminUsername,
		Role:     RoleAdmin,
		PassHash: string(hash),
		Disabled: false,
	}, nil
}

// Bootstrap ensures the administrator account exists. A users document
// that parses but is not a JSON list is replaced with a single default
// administrator; a list without the administrator username gets one
// appended; anything else is left untouched. An unparseable document
// propagates as corruption rather than being overwritten, since it may
// still hold recoverable accounts. Safe to call on every startup.
func (s *Service) Bootstrap(ctx context.Context) error {
	_, err := docstore.Update(ctx, s.store, usersFile, &[]User{}, func(cur *[]User) (*[]User, error) {
		users := *cur
		for i := range users {
			if users[i].Username == bootstrapAdminUsername {
				return cur, nil
			}
		}
		admin, err := defaultAdmin()
		if err != nil {
			return nil, err
		}
		users = append(users, admin)
		s.logger.Info().Str("username", bootstrapAdminUsername).Msg("created bootstrap administrator")
		return &users, nil
	})
	if errors.Is(err, docstore.ErrDocumentShape) {
		// Valid JSON but not a list; replace it.
		admin, aerr := defaultAdmin()
		if aerr != nil {
			return aerr
		}
		s.logger.Warn().Msg("users document is not a list, resetting to bootstrap administrator")
		return s.store.Write(ctx, usersFile, []User{admin})
	}
	return err
}

// List returns every stored user record, hashes included. Callers facing
// the outside world must sanitize.
func (s *Service) List(ctx context.Context) ([]User, error) {
	users, err := docstore.Read(ctx, s.store, usersFile, &[]User{})
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	return *users, nil
}

// Find returns the user with the given username, or ErrUserNotFound.
func (s *Service) Find(ctx context.Context, username string) (*User, error) {
	users, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, ErrUserNotFound
}

// Create adds a new account with a freshly hashed password. Duplicate
// usernames fail with ErrUserExists.
func (s *Service) Create(ctx context.Context, actor string, in CreateInput) (*User, error) {
	if in.Username == "" || in.Password == "" {
		return nil, ErrInvalidInput
	}
	if in.Role == "" {
		in.Role = RoleUser
	}
	if !validRole(in.Role) {
		return nil, ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := User{
		ID:       uuid.NewString(),
		Username: in.Username,
		Role:     in.Role,
		PassHash: string(hash),
		Disabled: false,
	}

	_, err = docstore.Update(ctx, s.store, usersFile, &[]User{}, func(cur *[]User) (*[]User, error) {
		users := *cur
		for i := range users {
			if users[i].Username == in.Username {
				return nil, ErrUserExists
			}
		}
		users = append(users, user)
		return &users, nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.Append(actor, fmt.Sprintf("created user %s", in.Username)); err != nil {
		return nil, err
	}

	s.logger.Info().Str("username", in.Username).Str("role", in.Role).Msg("user created")
	return &user, nil
}

// Update applies the supplied subset of changes to an existing account: a
// new password is re-hashed, a new role is validated, and the disabled
// flag is set as given.
func (s *Service) Update(ctx context.Context, actor, username string, changes Changes) (*User, error) {
	if changes.Role != nil && !validRole(*changes.Role) {
		return nil, ErrInvalidRole
	}

	var newHash string
	if changes.Password != nil {
		if *changes.Password == "" {
			return nil, ErrInvalidInput
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*changes.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		newHash = string(hash)
	}

	var updated User
	_, err := docstore.Update(ctx, s.store, usersFile, &[]User{}, func(cur *[]User) (*[]User, error) {
		users := *cur
		for i := range users {
			if users[i].Username != username {
				continue
			}
			if newHash != "" {
				users[i].PassHash = newHash
			}
			if changes.Role != nil {
				users[i].Role = *changes.Role
			}
			if changes.Disabled != nil {
				users[i].Disabled = *changes.Disabled
			}
			updated = users[i]
			return &users, nil
		}
		return nil, ErrUserNotFound
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.Append(actor, fmt.Sprintf("updated user %s", username)); err != nil {
		return nil, err
	}

	s.logger.Info().Str("username", username).Msg("user updated")
	return &updated, nil
}

// Disable flips the disabled flag on an account.
func (s *Service) Disable(ctx context.Context, actor, username string, disabled bool) (*User, error) {
	return s.Update(ctx, actor, username, Changes{Disabled: &disabled})
}

// Authenticate returns the user record when the password matches a
// non-disabled account. Unknown usernames, disabled accounts and wrong
// passwords all produce the same ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.Find(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.Disabled {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
