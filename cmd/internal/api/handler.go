package api

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"passage/cmd/internal/account"
	"passage/cmd/internal/auth/session"
)

const (
	maxBodyBytes = 64 << 10
	// Update bodies carry a base64 avatar; the decoded cap lives in the
	// avatar store, this only bounds the transport.
	maxUpdateBodyBytes = 4 << 20
)

// Handler wires the JSON endpoints to the account and session services.
type Handler struct {
	log      *slog.Logger
	accounts *account.Service
	sessions *session.Service
}

// NewHandler constructs the API handler.
func NewHandler(log *slog.Logger, accounts *account.Service, sessions *session.Service) (*Handler, error) {
	if accounts == nil || sessions == nil {
		return nil, errors.New("api: account and session services are required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{log: log, accounts: accounts, sessions: sessions}, nil
}

// Routes mounts every endpoint under /api/1.0 on the given router.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/1.0", func(r chi.Router) {
		r.Post("/users", h.handleRegister)
		r.Post("/users/token/{token}", h.handleActivate)
		r.Post("/auth", h.handleAuth)
		r.Post("/user/password", h.handleResetRequest)
		r.Put("/user/password", h.handleResetComplete)

		r.Group(func(r chi.Router) {
			r.Use(h.optionalAuth)
			r.Get("/users", h.handleList)
			r.Get("/users/{id}", h.handleGet)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Post("/logout", h.handleLogout)
			r.Put("/users/{id}", h.handleUpdate)
			r.Delete("/users/{id}", h.handleDelete)
		})
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if fields := validateRegister(req); fields != nil {
		writeValidation(w, fields)
		return
	}

	err := h.accounts.Register(r.Context(), time.Now().UTC(), account.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	switch {
	case errors.Is(err, account.ErrEmailTaken):
		writeValidation(w, map[string]string{"email": "email already in use"})
	case errors.Is(err, account.ErrEmailDelivery):
		writeError(w, http.StatusBadGateway, "email_failure", "activation email could not be delivered")
	case err != nil:
		h.serverError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, messageResponse{Message: "account created"})
	}
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	err := h.accounts.Activate(r.Context(), time.Now().UTC(), chi.URLParam(r, "token"))
	switch {
	case errors.Is(err, account.ErrInvalidToken):
		writeError(w, http.StatusBadRequest, "invalid_token", "the activation token is not valid")
	case err != nil:
		h.serverError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, messageResponse{Message: "account activated"})
	}
}

func (h *Handler) handleAuth(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusUnauthorized, "auth_failure", "incorrect credentials")
		return
	}

	ctx := r.Context()
	a, err := h.accounts.Authenticate(ctx, req.Email, req.Password)
	switch {
	case errors.Is(err, account.ErrAuthFailed):
		writeError(w, http.StatusUnauthorized, "auth_failure", "incorrect credentials")
		return
	case errors.Is(err, account.ErrInactive):
		writeError(w, http.StatusForbidden, "inactive_account", "account is not activated")
		return
	case err != nil:
		h.serverError(w, r, err)
		return
	}

	tok, err := h.sessions.Issue(ctx, time.Now().UTC(), a.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{ID: a.ID, Username: a.Username, Image: a.Image, Token: tok})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Revoke(r.Context(), callerToken(r.Context())); err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

func (h *Handler) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if msg := validEmail(req.Email); msg != "" {
		writeValidation(w, map[string]string{"email": msg})
		return
	}

	err := h.accounts.RequestPasswordReset(r.Context(), time.Now().UTC(), req.Email)
	switch {
	case errors.Is(err, account.ErrNotFound):
		writeError(w, http.StatusNotFound, "unknown_email", "email not found")
	case errors.Is(err, account.ErrEmailDelivery):
		writeError(w, http.StatusBadGateway, "email_failure", "password reset email could not be delivered")
	case err != nil:
		h.serverError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, messageResponse{Message: "check your email for password reset instructions"})
	}
}

func (h *Handler) handleResetComplete(w http.ResponseWriter, r *http.Request) {
	var req resetCompleteRequest
	if err := decodeJSON(w, r, maxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if msg := validPassword(req.Password); msg != "" {
		writeValidation(w, map[string]string{"password": msg})
		return
	}

	err := h.accounts.CompletePasswordReset(r.Context(), time.Now().UTC(), req.PasswordReset, req.Password)
	switch {
	case errors.Is(err, account.ErrInvalidToken):
		writeError(w, http.StatusForbidden, "invalid_token", "the password reset token is not valid")
	case err != nil:
		h.serverError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, messageResponse{Message: "password updated"})
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 0)
	size := queryInt(r, "size", 10)

	p, err := h.accounts.List(r.Context(), page, size, callerID(r.Context()))
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(p))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	a, err := h.accounts.Get(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, account.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "user not found")
	case err != nil:
		h.serverError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, toUserResponse(a))
	}
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id != callerID(r.Context()) {
		writeError(w, http.StatusForbidden, "forbidden", "you can only update your own account")
		return
	}

	var req updateRequest
	if err := decodeJSON(w, r, maxUpdateBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if msg := validUsername(req.Username); msg != "" {
		writeValidation(w, map[string]string{"username": msg})
		return
	}

	var image []byte
	if req.Image != "" {
		var err error
		image, err = base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			writeValidation(w, map[string]string{"image": "image must be base64 encoded"})
			return
		}
	}

	a, err := h.accounts.Update(r.Context(), time.Now().UTC(), id, account.UpdateInput{
		Username: req.Username,
		Image:    image,
	})
	switch {
	case errors.Is(err, account.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "user not found")
	case err != nil:
		h.serverError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, toUserResponse(a))
	}
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id != callerID(r.Context()) {
		writeError(w, http.StatusForbidden, "forbidden", "you can only delete your own account")
		return
	}

	err := h.accounts.Delete(r.Context(), id)
	switch {
	case errors.Is(err, account.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "user not found")
	case err != nil:
		h.serverError(w, r, err)
	default:
		writeJSON(w, http.StatusOK, messageResponse{Message: "account deleted"})
	}
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error("api.request.fail", "method", r.Method, "path", r.URL.Path, "err", err)
	writeError(w, http.StatusInternalServerError, "internal", "unexpected error")
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
