package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/isdelr/blog-api/internal/auth"
	"github.com/isdelr/blog-api/internal/models"
	"github.com/isdelr/blog-api/internal/storage"
	"github.com/isdelr/blog-api/internal/validation"
	"github.com/rs/zerolog/log"
)

// Client-facing messages for account operations.
const (
	MsgRegisterInvalid    = "validation failed"
	MsgLoginInvalid       = "login unsuccessful"
	MsgAccountInvalid     = "account not updated"
	MsgUsernameTaken      = "That username has been taken. Enter a different one."
	MsgEmailTaken         = "That email has been taken. Enter a different one."
	MsgInvalidCredentials = "password incorrect. Try again"
	MsgUserNotFound       = "User not found"
)

// RegisterInput is the registration form.
type RegisterInput struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (in RegisterInput) form() validation.Form {
	return validation.Form{
		"first_name":       in.FirstName,
		"last_name":        in.LastName,
		"username":         in.Username,
		"email":            in.Email,
		"password":         in.Password,
		"confirm_password": in.ConfirmPassword,
	}
}

// LoginInput is the login form.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountInput is the profile update form.
type AccountInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
	Email     string `json:"email"`
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, in RegisterInput) (models.User, error)
	Authenticate(ctx context.Context, in LoginInput) (models.User, error)
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	UpdateAccount(ctx context.Context, id int64, in AccountInput) (models.User, error)
}

// UserService provides business logic for user management.
type UserService struct {
	store  storage.Store
	hasher *auth.PasswordHasher
	events EventServiceProvider

	dummyOnce sync.Once
	dummyHash string
}

// NewUserService creates a new UserService.
func NewUserService(store storage.Store, hasher *auth.PasswordHasher, events EventServiceProvider) *UserService {
	return &UserService{store: store, hasher: hasher, events: events}
}

// Register validates the form, enforces unique username and email, and
// stores the user with a hashed password.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	if errs := validation.Registration.Validate(in.form()); errs != nil {
		return models.User{}, invalid(MsgRegisterInvalid, errs)
	}
	if err := s.checkUnique(ctx, 0, in.Username, in.Email); err != nil {
		return models.User{}, err
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hashed,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, &user); err != nil {
		return models.User{}, conflictOrErr(err)
	}

	s.events.CreateEvent(ctx, "user.register", "info", "Account created", &user.ID)
	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User registered")

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// Authenticate verifies a user's credentials. Unknown emails and wrong
// passwords produce the same error and take comparable time.
func (s *UserService) Authenticate(ctx context.Context, in LoginInput) (models.User, error) {
	if errs := validation.Login.Validate(validation.Form{"email": in.Email, "password": in.Password}); errs != nil {
		return models.User{}, invalid(MsgLoginInvalid, errs)
	}

	user, err := s.store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return models.User{}, err
		}
		s.hasher.Verify(in.Password, s.dummy())
		log.Warn().Str("email", in.Email).Msg("Failed authentication attempt: unknown email")
		return models.User{}, newError(KindUnauthorized, MsgInvalidCredentials)
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		s.events.CreateEvent(ctx, "user.login.fail", "warn", "Failed login attempt", &user.ID)
		log.Warn().Int64("user_id", user.ID).Msg("Failed authentication attempt: wrong password")
		return models.User{}, newError(KindUnauthorized, MsgInvalidCredentials)
	}

	s.events.CreateEvent(ctx, "user.login", "info", "Logged in", &user.ID)
	user.PasswordHash = ""
	return user, nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, newError(KindNotFound, MsgUserNotFound)
		}
		return models.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateAccount changes the profile of user id in place.
func (s *UserService) UpdateAccount(ctx context.Context, id int64, in AccountInput) (models.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	errs := validation.Account.Validate(validation.Form{
		"first_name": in.FirstName,
		"last_name":  in.LastName,
		"username":   in.Username,
		"email":      in.Email,
	})
	if errs != nil {
		return models.User{}, invalid(MsgAccountInvalid, errs)
	}
	if err := s.checkUnique(ctx, id, in.Username, in.Email); err != nil {
		return models.User{}, err
	}

	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Username = in.Username
	user.Email = in.Email
	if err := s.store.UpdateUser(ctx, &user); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, newError(KindNotFound, MsgUserNotFound)
		}
		return models.User{}, conflictOrErr(err)
	}

	s.events.CreateEvent(ctx, "user.update", "info", "Account updated", &user.ID)
	return user, nil
}

// checkUnique rejects a username or email held by a user other than self.
func (s *UserService) checkUnique(ctx context.Context, self int64, username, email string) error {
	existing, err := s.store.GetUserByUsername(ctx, username)
	switch {
	case err == nil && existing.ID != self:
		return newError(KindConflict, MsgUsernameTaken)
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return err
	}

	existing, err = s.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != self:
		return newError(KindConflict, MsgEmailTaken)
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return err
	}
	return nil
}

func (s *UserService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("timing-equalizer")
		if err != nil {
			log.Error().Err(err).Msg("Failed to prepare dummy password hash")
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// conflictOrErr turns a unique violation that slipped past the pre-check into
// the same client error the pre-check would have produced.
func conflictOrErr(err error) error {
	var conflict *storage.ConflictError
	if !errors.As(err, &conflict) {
		return err
	}
	switch conflict.Field {
	case "username":
		return newError(KindConflict, MsgUsernameTaken)
	case "email":
		return newError(KindConflict, MsgEmailTaken)
	default:
		return err
	}
}
