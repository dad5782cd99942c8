package auth

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database/users"
	"github.com/mrlokans/library/internal/entities"
)

// Validation patterns
var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrUserNotFound       = users.ErrUserNotFound
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotAdmin           = errors.New("user is not an administrator")
	ErrUsernameRequired   = errors.New("username is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrAccountLocked      = errors.New("account is locked due to too many failed login attempts")
	ErrUsernameInvalid    = errors.New("username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrEmailInvalid       = errors.New("invalid email format")
)

// UserStore defines the user data access the service needs.
type UserStore interface {
	CreateUser(user *entities.User) error
	GetUserByID(id uint) (*entities.User, error)
	GetUserByUsername(username string) (*entities.User, error)
	ExistsByUsernameOrEmail(username, email string) (bool, error)
	CountUsers() (int64, error)
	RecordLoginSuccess(id uint, at time.Time) error
	RecordLoginFailure(id uint, failures int, lockedUntil *time.Time) error
}

// Service handles authentication and admin provisioning.
type Service struct {
	users  UserStore
	config config.Auth
	now    func() time.Time

	// Compared against when the username is unknown so that a miss costs
	// the same as a wrong password.
	dummyHash string
}

// NewService creates a new authentication service.
func NewService(store UserStore, cfg config.Auth) *Service {
	return &Service{
		users:     store,
		config:    cfg,
		now:       time.Now,
		dummyHash: timingHash(cfg.BcryptCost),
	}
}

// CreateUser validates and stores a new user with a bcrypt password hash.
func (s *Service) CreateUser(username, email, password string, isAdmin bool) (*entities.User, error) {
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if email == "" {
		return nil, ErrEmailRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	// Validate username format: 3-64 chars, alphanumeric + underscore/hyphen
	if !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}

	// Column limit is 120
	if len(email) > 120 || !emailPattern.MatchString(email) {
		return nil, ErrEmailInvalid
	}

	exists, err := s.users.ExistsByUsernameOrEmail(username, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
	}

	if err := s.users.CreateUser(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// ProvisionAdmin creates the admin account unless a user with that username
// already exists. created reports whether a new row was written.
func (s *Service) ProvisionAdmin(username, email, password string) (user *entities.User, created bool, err error) {
	existing, err := s.users.GetUserByUsername(username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, users.ErrUserNotFound) {
		return nil, false, fmt.Errorf("failed to look up admin: %w", err)
	}

	user, err = s.CreateUser(username, email, password, true)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// Authenticate validates credentials and returns the user. Only admin users
// may sign in. Unknown usernames and wrong passwords both yield
// ErrInvalidCredentials.
func (s *Service) Authenticate(username, password string) (*entities.User, error) {
	user, err := s.users.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			if s.dummyHash != "" {
				_ = CheckPassword(password, s.dummyHash)
			}
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	now := s.now()

	// Check if account is locked
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		s.recordFailedLogin(user, now)
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsAdmin {
		return nil, ErrNotAdmin
	}

	if err := s.users.RecordLoginSuccess(user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.LastLoginAt = &now
	user.FailedLoginCount = 0
	user.LockedUntil = nil

	return user, nil
}

// recordFailedLogin increments the failed login counter and locks the account if threshold reached.
func (s *Service) recordFailedLogin(user *entities.User, now time.Time) {
	user.FailedLoginCount++

	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}

	var lockedUntil *time.Time
	if user.FailedLoginCount >= maxAttempts {
		lockoutDuration := s.config.LockoutDuration
		if lockoutDuration == 0 {
			lockoutDuration = 30 * time.Minute
		}
		until := now.Add(lockoutDuration)
		lockedUntil = &until
	}

	if err := s.users.RecordLoginFailure(user.ID, user.FailedLoginCount, lockedUntil); err != nil {
		log.Printf("[AUTH] Failed to record login failure for %q: %v", user.Username, err)
	}
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	return s.users.GetUserByID(id)
}

// HasUsers returns true if any users exist in the database.
func (s *Service) HasUsers() (bool, error) {
	count, err := s.users.CountUsers()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
