package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-passwordless-api/internal/application/issuer"
	"github.com/go-passwordless-api/internal/application/passwordless"
	"github.com/go-passwordless-api/internal/config"
	"github.com/go-passwordless-api/internal/domain"
	"github.com/go-passwordless-api/internal/pkg/validate"
	"github.com/go-passwordless-api/internal/transport/http/middleware"
)

// Response texts shown to end users. Deliberately vague on failure: the
// transport outcome never reveals provider internals or which aliases exist.
const (
	msgEmailTokenSent   = "A login token has been sent to your email."
	msgEmailTokenFailed = "Unable to email you a login code. Try again later."
	msgSMSTokenSent     = "We texted you a login code."
	msgSMSTokenFailed   = "Unable to send you a login code. Try again later."
)

// AuthHandler handles the passwordless login flow: requesting a callback
// token for an alias and exchanging a received token for a session.
type AuthHandler struct {
	svc    passwordless.Service
	issuer issuer.Service
}

func NewAuthHandler(svc passwordless.Service, iss issuer.Service) *AuthHandler {
	return &AuthHandler{svc: svc, issuer: iss}
}

// authMessages builds the AUTH-flow delivery templates from config.
func authMessages(cfg *config.Config) passwordless.MessageContext {
	return passwordless.MessageContext{
		EmailSubject:   cfg.EmailSubject,
		EmailPlaintext: cfg.EmailPlaintextMessage,
		MobileMessage:  cfg.MobileMessage,
	}
}

func (h *AuthHandler) ObtainEmailToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.obtainToken(w, r, domain.AliasEmail, req.Email, msgEmailTokenSent, msgEmailTokenFailed)
}

func (h *AuthHandler) ObtainMobileToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mobile string `json:"mobile" validate:"required,e164"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.obtainToken(w, r, domain.AliasMobile, req.Mobile, msgSMSTokenSent, msgSMSTokenFailed)
}

func (h *AuthHandler) obtainToken(w http.ResponseWriter, r *http.Request, aliasType domain.AliasType, alias, sentMsg, failedMsg string) {
	cfg := h.svc.Config()
	if !cfg.AliasAllowed(aliasType) {
		// The endpoint does not exist for disabled alias types.
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	user, err := h.svc.Resolve(r.Context(), aliasType, alias)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	ok, err := h.svc.SendToken(r.Context(), user, aliasType, domain.TokenTypeAuth, authMessages(cfg))
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

// ExchangeToken redeems a callback token and issues a session. Exactly one
// alias must accompany the token; it decides which channel's token is
// consumed.
func (h *AuthHandler) ExchangeToken(w http.ResponseWriter, r *http.Request) {
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

	user, err := h.svc.ValidateAndConsume(r.Context(), aliasType, alias, req.Token, domain.TokenTypeAuth, "")
	if err != nil {
		writeDomainError(w, err)
		return
	}

	sess, bearer, refreshToken, err := h.issuer.Issue(r.Context(), user)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		Bearer:       bearer,
		RefreshToken: refreshToken,
		Session:      toSafeSession(sess),
	})
}

// RefreshSession rotates a refresh token and returns a fresh bearer.
func (h *AuthHandler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	sess, bearer, newToken, err := h.issuer.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		Bearer:       bearer,
		RefreshToken: newToken,
		Session:      toSafeSession(sess),
	})
}

// Logout disables the caller's session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.issuer.Revoke(r.Context(), claims.SessionID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Logged out."})
}

// pickAlias enforces that exactly one alias accompanies the request.
func pickAlias(email, mobile string) (domain.AliasType, string, error) {
	switch {
	case email != "" && mobile != "":
		return "", "", errAliasAmbiguous
	case email != "":
		return domain.AliasEmail, email, nil
	case mobile != "":
		return domain.AliasMobile, mobile, nil
	default:
		return "", "", errAliasMissing
	}
}
