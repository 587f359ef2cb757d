package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/afric-remit/bankapp/internal/interfaces"
	"github.com/afric-remit/bankapp/internal/models"
)

var (
	// ErrUserNotFound means no user exists with the given username.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken means registration hit an existing username.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrInvalidCredentials covers both unknown username and wrong password
	// so login failures do not leak which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidInput means a registration or login field is missing or
	// malformed.
	ErrInvalidInput = errors.New("invalid input")
)

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Service handles user registration and authentication. Stores and clock are
// constructor-supplied; tokens are stateless HS256 JWTs.
type Service struct {
	users  interfaces.UserStore
	clock  interfaces.Clock
	secret []byte
	ttl    time.Duration
}

func NewService(users interfaces.UserStore, clock interfaces.Clock, secret []byte, ttl time.Duration) *Service {
	return &Service{users: users, clock: clock, secret: secret, ttl: ttl}
}

// Register creates a new user with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, username, password, email string) error {
	if err := validateRegistration(username, password, email); err != nil {
		return err
	}

	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("lookup user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return err
	}
	return nil
}

// Login verifies the credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return "", fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}
	return s.generateToken(user)
}

func validateRegistration(username, password, email string) error {
	switch {
	case strings.TrimSpace(username) == "":
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	case password == "":
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	case !emailRx.MatchString(email):
		return fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	return nil
}
