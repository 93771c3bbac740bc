package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-passwordless-api/internal/application/passwordless"
	"github.com/go-passwordless-api/internal/config"
	"github.com/go-passwordless-api/internal/domain"
	"github.com/go-passwordless-api/internal/pkg/validate"
	"github.com/go-passwordless-api/internal/transport/http/middleware"
)

const (
	msgEmailVerifySent   = "A verification token has been sent to your email."
	msgEmailVerifyFailed = "Unable to email you a verification code. Try again later."
	msgSMSVerifySent     = "We texted you a verification code."
	msgSMSVerifyFailed   = "Unable to send you a verification code. Try again later."
	msgAliasVerified     = "Alias verified."
)

// VerifyHandler handles alias verification for an already-authenticated user:
// requesting a VERIFY token for an alias on the account and redeeming it.
// Unlike login, these endpoints act on the caller's own record, so the token
// exchange is pinned to the authenticated user id.
type VerifyHandler struct {
	svc passwordless.Service
}

func NewVerifyHandler(svc passwordless.Service) *VerifyHandler {
	return &VerifyHandler{svc: svc}
}

// verifyMessages builds the VERIFY-flow delivery templates from config.
func verifyMessages(cfg *config.Config) passwordless.MessageContext {
	return passwordless.MessageContext{
		EmailSubject:   cfg.EmailVerifySubject,
		EmailPlaintext: cfg.EmailVerifyPlaintext,
		MobileMessage:  cfg.MobileVerificationMessage,
	}
}

func (h *VerifyHandler) RequestEmailToken(w http.ResponseWriter, r *http.Request) {
	h.requestToken(w, r, domain.AliasEmail, msgEmailVerifySent, msgEmailVerifyFailed)
}

func (h *VerifyHandler) RequestMobileToken(w http.ResponseWriter, r *http.Request) {
	h.requestToken(w, r, domain.AliasMobile, msgSMSVerifySent, msgSMSVerifyFailed)
}

func (h *VerifyHandler) requestToken(w http.ResponseWriter, r *http.Request, aliasType domain.AliasType, sentMsg, failedMsg string) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	cfg := h.svc.Config()
	if !cfg.AliasAllowed(aliasType) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	user, err := h.svc.User(r.Context(), claims.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if user.Alias(aliasType) == "" {
		writeError(w, http.StatusBadRequest, "no such alias on this account")
		return
	}

	ok, err = h.svc.SendToken(r.Context(), user, aliasType, domain.TokenTypeVerify, verifyMessages(cfg))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusBadRequest, failedMsg)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: sentMsg})
}

// RedeemToken consumes a VERIFY token. The alias in the body must belong to
// the authenticated caller; on success that alias is marked verified.
func (h *VerifyHandler) RedeemToken(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		Email  string `json:"email,omitempty" validate:"omitempty,email"`
		Mobile string `json:"mobile,omitempty" validate:"omitempty,e164"`
		Token  string `json:"token" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	aliasType, alias, err := pickAlias(req.Email, req.Mobile)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.svc.ValidateAndConsume(r.Context(), aliasType, alias, req.Token, domain.TokenTypeVerify, claims.UserID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: msgAliasVerified})
}
