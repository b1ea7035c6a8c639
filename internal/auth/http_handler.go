package auth

import (
	"errors"
	"net/http"
	"strings"

	"libri/internal/httpx"
	"libri/internal/platform/crypto"
	"libri/internal/user"
)

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

type RegisterReq struct {
	Name     string `json:"name" validate:"max=100"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	Password string `json:"password" validate:"max=72"`
}

type LoginReq struct {
	Email    string `json:"email" validate:"max=254"`
	Password string `json:"password" validate:"max=72"`
}

type GoogleReq struct {
	AccessToken string `json:"accessToken" validate:"max=4096"`
}

type ProfileReq struct {
	Name            string `json:"name" validate:"max=100"`
	Email           string `json:"email" validate:"omitempty,email,max=254"`
	CurrentPassword string `json:"currentPassword" validate:"max=72"`
	NewPassword     string `json:"newPassword" validate:"max=72"`
}

type identityResp struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token,omitempty"`
}

// normalizer is implemented by requests whose fields are trimmed before
// validation, matching what the service does with them.
type normalizer interface {
	normalize()
}

func (req *RegisterReq) normalize() {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
}

func (req *LoginReq) normalize() {
	req.Email = strings.TrimSpace(req.Email)
}

func (req *ProfileReq) normalize() {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
}

func toResp(u user.User, token string) identityResp {
	return identityResp{ID: u.ID, Name: u.Name, Email: u.Email, Token: token}
}

// Register handles POST /api/auth/register
// @Summary Register a user
// @Description Create an account and receive a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterReq true "Registration request"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /api/auth/register [post]
func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterReq
	if !decode(w, r, &req) {
		return
	}

	sess, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONCreated(w, r, toResp(sess.User, sess.Token))
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginReq true "Login request"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /api/auth/login [post]
func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginReq
	if !decode(w, r, &req) {
		return
	}

	sess, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, toResp(sess.User, sess.Token), nil)
}

// Google handles POST /api/auth/google
// @Summary Sign in with Google
// @Description Exchange a Google access token for a session, registering the account on first use
// @Tags auth
// @Accept json
// @Produce json
// @Param request body GoogleReq true "Google access token"
// @Success 200 {object} httpx.SuccessResponse
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /api/auth/google [post]
func (h *HTTPHandler) Google(w http.ResponseWriter, r *http.Request) {
	var req GoogleReq
	if !decode(w, r, &req) {
		return
	}

	sess, created, err := h.service.FederatedLogin(r.Context(), req.AccessToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if created {
		httpx.JSONCreated(w, r, toResp(sess.User, sess.Token))
		return
	}
	httpx.JSONSuccess(w, r, toResp(sess.User, sess.Token), nil)
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Tags auth
// @Produce json
// @Security Bearer
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /api/auth/me [get]
func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	token, _ := httpx.BearerToken(r)
	u, err := h.service.CurrentIdentity(r.Context(), token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, u, nil)
}

// UpdateProfile handles PUT /api/auth/profile
// @Summary Update profile
// @Description Change name, email or password; returns a new token
// @Tags auth
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body ProfileReq true "Fields to change"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /api/auth/profile [put]
func (h *HTTPHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	var req ProfileReq
	if !decode(w, r, &req) {
		return
	}

	sess, err := h.service.UpdateProfile(r.Context(), userID, ProfileUpdate{
		Name:            req.Name,
		Email:           req.Email,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.JSONSuccess(w, r, toResp(sess.User, sess.Token), nil)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.DecodeError(w, r, err)
		return false
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	if validationErrors := httpx.ValidateStruct(dst); len(validationErrors) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", validationErrors)
		return false
	}
	return true
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, crypto.ErrPasswordTooLong):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Password must be at most 72 bytes", nil)
	case errors.Is(err, ErrCurrentPasswordRequired):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Please provide current password to change password", nil)
	case errors.Is(err, ErrFederatedNoEmail):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Google account does not have an email", nil)
	case errors.Is(err, ErrMissingFields):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Please add all fields", nil)
	case errors.Is(err, ErrDuplicateIdentity):
		httpx.JSONError(w, r, http.StatusBadRequest, "ALREADY_EXISTS", "User already exists", nil)
	case errors.Is(err, ErrEmailInUse):
		httpx.JSONError(w, r, http.StatusBadRequest, "ALREADY_EXISTS", "Email already in use", nil)
	case errors.Is(err, ErrWrongCurrentPassword):
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid current password", nil)
	case errors.Is(err, ErrInvalidCredentials):
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials", nil)
	case errors.Is(err, ErrFederatedProvider):
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Google authentication failed", nil)
	case errors.Is(err, ErrUnauthenticated):
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Not authorized, token failed", nil)
	default:
		httpx.InternalError(w, r, err)
	}
}
