package handlers

import (
	"net/http"

	"github.com/isdelr/blog-api/internal/api/response"
	"github.com/isdelr/blog-api/internal/auth"
	"github.com/isdelr/blog-api/internal/models"
	"github.com/isdelr/blog-api/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for registration, login and the account.
type UserHandler struct {
	service services.UserServiceProvider
	tokens  *auth.TokenService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider, tokens *auth.TokenService) *UserHandler {
	return &UserHandler{service: service, tokens: tokens}
}

// RegisterInfo describes how to register.
func (h *UserHandler) RegisterInfo(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Envelope{
		"status":  response.StatusInfo,
		"message": "Send POST request with user data to register",
	})
}

// Register handles new user registration and returns a session token.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload services.RegisterInput
	if err := decode(r, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	user, err := h.service.Register(r.Context(), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, ok := h.issue(w, r, user)
	if !ok {
		return
	}
	response.JSON(w, http.StatusCreated, response.Envelope{
		"status":  response.StatusSuccess,
		"message": "user account created successfuly",
		"token":   token,
		"user":    user,
	})
}

// LoginInfo describes how to log in.
func (h *UserHandler) LoginInfo(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Envelope{
		"status":  response.StatusInfo,
		"message": "Send POST request with email and password to login",
	})
}

// Login handles user authentication and JWT generation.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload services.LoginInput
	if err := decode(r, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	user, err := h.service.Authenticate(r.Context(), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, ok := h.issue(w, r, user)
	if !ok {
		return
	}
	response.JSON(w, http.StatusOK, response.Envelope{
		"status":  response.StatusSuccess,
		"message": "login successful",
		"token":   token,
		"user":    user,
	})
}

// Logout is a no-op for stateless tokens; the client discards its token.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Envelope{
		"status":  response.StatusSuccess,
		"message": "Logged out. Discard your token to end the session",
	})
}

// Account returns the authenticated user.
func (h *UserHandler) Account(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	user, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Envelope{"status": response.StatusSuccess, "user": user})
}

// UpdateAccount updates the authenticated user's profile in place.
func (h *UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var payload services.AccountInput
	if err := decode(r, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	user, err := h.service.UpdateAccount(r.Context(), userID, payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, response.Envelope{
		"status":  response.StatusSuccess,
		"message": "Your account has been updated",
		"user":    user,
	})
}

func (h *UserHandler) issue(w http.ResponseWriter, r *http.Request, user models.User) (string, bool) {
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to generate JWT")
		response.Error(w, http.StatusInternalServerError, msgInternal)
		return "", false
	}
	return token, true
}
