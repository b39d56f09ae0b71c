// Package account registers and authenticates players.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/wordquest/internal/apperr"
	"github.com/example/wordquest/pkg/models"
)

const (
	minUsername = 3
	maxUsername = 24
	minPassword = 8
	maxPassword = 72 // bcrypt ignores anything past 72 bytes
)

// Store is the persistence registration needs.
type Store interface {
	CreateUser(ctx context.Context, nu models.NewUser, starter models.Starter) (models.User, error)
	FindUserByLogin(ctx context.Context, login string) (models.User, error)
}

// Registration is the sign-up form.
type Registration struct {
	Username string
	Email    string
	Password string
}

// Service owns credentials.
type Service struct {
	store   Store
	starter func() models.Starter
	cost    int
	log     zerolog.Logger
}

// NewService returns a Service. starter is called at each registration to
// seed the new player's economy.
func NewService(store Store, starter func() models.Starter, log zerolog.Logger) *Service {
	return &Service{
		store:   store,
		starter: starter,
		cost:    bcrypt.DefaultCost,
		log:     log.With().Str("component", "account").Logger(),
	}
}

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

// Register validates r, hashes the password and creates the user with
// their life pool and tools. Duplicates are rejected before any write.
func (s *Service) Register(ctx context.Context, r Registration) (models.User, error) {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	if err := validate(r); err != nil {
		return models.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(r.Password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.CreateUser(ctx, models.NewUser{
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: string(hash),
	}, s.starter())
	if err != nil {
		return models.User{}, err
	}
	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

// Authenticate checks a login (email or username) and password. Unknown
// users and wrong passwords both fail with ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, login, password string) (models.User, error) {
	if strings.TrimSpace(login) == "" || password == "" {
		return models.User{}, apperr.ErrMissingField
	}

	user, err := s.store.FindUserByLogin(ctx, login)
	if errors.Is(err, apperr.ErrUserNotFound) {
		return models.User{}, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, apperr.ErrInvalidCredentials
	}
	return user, nil
}

func validate(r Registration) error {
	switch {
	case r.Username == "":
		return apperr.Wrap(apperr.CodeMissingField, "username is required", nil)
	case r.Email == "":
		return apperr.Wrap(apperr.CodeMissingField, "email is required", nil)
	case r.Password == "":
		return apperr.Wrap(apperr.CodeMissingField, "password is required", nil)
	}

	if n := len([]rune(r.Username)); n < minUsername || n > maxUsername {
		return apperr.Wrap(apperr.CodeInvalidInput,
			fmt.Sprintf("username must be %d-%d characters", minUsername, maxUsername), nil)
	}
	for _, c := range r.Username {
		if c != '_' && !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			return apperr.Wrap(apperr.CodeInvalidInput, "username: letters, digits and underscore only", nil)
		}
	}
	if addr, err := mail.ParseAddress(r.Email); err != nil || addr.Address != r.Email {
		return apperr.Wrap(apperr.CodeInvalidInput, "email address is not valid", nil)
	}
	if len(r.Password) < minPassword || len(r.Password) > maxPassword {
		return apperr.Wrap(apperr.CodeInvalidInput,
			fmt.Sprintf("password must be %d-%d characters", minPassword, maxPassword), nil)
	}
	return nil
}
