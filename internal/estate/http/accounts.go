package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/estate/internal/estate/service"
	"github.com/aussiebroadwan/estate/pkg/httpx"
)

// AccountHandler serves sign in, sign up, confirmation and password reset.
type AccountHandler struct {
	Accounts *service.AccountService

	// SessionTTL bounds the session cookie. Zero makes it a browser
	// session cookie.
	SessionTTL   time.Duration
	SecureCookie bool
}

type credentials struct {
	Name  string
	Email string
}

type resetData struct {
	Token string
}

// LoginForm shows the sign in form.
func (h *AccountHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, pageLogin, view{Title: "Sign in", Data: credentials{}})
}

// Login checks the credentials, sets the session cookie and continues to
// the caller's listings.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	v := view{Title: "Sign in", Data: credentials{Email: email}}

	token, _, err := h.Accounts.Authenticate(r.Context(), email, r.PostFormValue("password"))
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		renderInvalid(w, r, pageLogin, v, verr)
		return
	case errors.Is(err, service.ErrUserNotFound):
		v.Errors = fieldError("email", "No account uses that email")
	case errors.Is(err, service.ErrNotConfirmed):
		v.Errors = fieldError("email", "Your account is not confirmed yet")
	case errors.Is(err, service.ErrInvalidCredentials):
		v.Errors = fieldError("password", "Wrong password")
	case err != nil:
		serverError(w, r, err)
		return
	}
	if v.Errors != nil {
		render(w, r, http.StatusUnprocessableEntity, pageLogin, v)
		return
	}

	http.SetCookie(w, h.sessionCookie(token))
	httpx.SeeOther(w, r, myListingsPath)
}

func (h *AccountHandler) sessionCookie(token string) *http.Cookie {
	c := &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if h.SessionTTL > 0 {
		c.MaxAge = int(h.SessionTTL.Seconds())
	}
	return c
}

// Logout drops the session cookie.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	httpx.ClearCookie(w, SessionCookie)
	httpx.SeeOther(w, r, "/auth/login")
}

// RegisterForm shows the sign up form.
func (h *AccountHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, pageRegister, view{Title: "Create account", Data: credentials{}})
}

// Register creates an unconfirmed account and mails the confirmation link.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	form := service.RegisterForm{
		Name:           r.PostFormValue("name"),
		Email:          r.PostFormValue("email"),
		Password:       r.PostFormValue("password"),
		RepeatPassword: r.PostFormValue("repeat_password"),
	}
	v := view{Title: "Create account", Data: credentials{Name: form.Name, Email: form.Email}}

	_, err := h.Accounts.Register(r.Context(), form)
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		renderInvalid(w, r, pageRegister, v, verr)
	case errors.Is(err, service.ErrEmailTaken):
		v.Errors = fieldError("email", "That email is already registered")
		render(w, r, http.StatusUnprocessableEntity, pageRegister, v)
	case err != nil:
		serverError(w, r, err)
	default:
		renderMessage(w, r, http.StatusCreated, "Account created", message{
			Text: "We sent you an email. Follow the link in it to confirm your account.",
		})
	}
}

// Confirm consumes the confirmation link.
func (h *AccountHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	_, err := h.Accounts.Confirm(r.Context(), r.PathValue("token"))
	switch {
	case errors.Is(err, service.ErrInvalidToken):
		renderMessage(w, r, http.StatusBadRequest, "Confirm your account", message{
			Text: "This confirmation link is invalid or was already used.",
		})
	case err != nil:
		serverError(w, r, err)
	default:
		renderMessage(w, r, http.StatusOK, "Account confirmed", message{
			Text:     "Your account is ready.",
			Link:     "/auth/login",
			LinkText: "Sign in",
		})
	}
}

// ForgotPasswordForm shows the reset request form.
func (h *AccountHandler) ForgotPasswordForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, pageForgotPassword, view{Title: "Reset your password", Data: credentials{}})
}

// ForgotPassword mails a reset link to a confirmed account.
func (h *AccountHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	v := view{Title: "Reset your password", Data: credentials{Email: email}}

	err := h.Accounts.RequestPasswordReset(r.Context(), email)
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		renderInvalid(w, r, pageForgotPassword, v, verr)
	case errors.Is(err, service.ErrUserNotFound):
		v.Errors = fieldError("email", "No account uses that email")
		render(w, r, http.StatusUnprocessableEntity, pageForgotPassword, v)
	case errors.Is(err, service.ErrNotConfirmed):
		v.Errors = fieldError("email", "Confirm your account before resetting its password")
		render(w, r, http.StatusUnprocessableEntity, pageForgotPassword, v)
	case err != nil:
		serverError(w, r, err)
	default:
		renderMessage(w, r, http.StatusOK, "Reset your password", message{
			Text: "We sent you an email with instructions.",
		})
	}
}

// ResetPasswordForm shows the new password form for a valid reset link.
func (h *AccountHandler) ResetPasswordForm(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	err := h.Accounts.CheckResetToken(r.Context(), token)
	switch {
	case errors.Is(err, service.ErrInvalidToken):
		h.invalidResetLink(w, r)
	case err != nil:
		serverError(w, r, err)
	default:
		render(w, r, http.StatusOK, pageResetPassword, view{Title: "Choose a new password", Data: resetData{Token: token}})
	}
}

// ResetPassword stores the new password and consumes the link.
func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	err := h.Accounts.ResetPassword(r.Context(), token, r.PostFormValue("password"))
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		renderInvalid(w, r, pageResetPassword, view{Title: "Choose a new password", Data: resetData{Token: token}}, verr)
	case errors.Is(err, service.ErrInvalidToken):
		h.invalidResetLink(w, r)
	case err != nil:
		serverError(w, r, err)
	default:
		renderMessage(w, r, http.StatusOK, "Password updated", message{
			Text:     "Your new password is saved.",
			Link:     "/auth/login",
			LinkText: "Sign in",
		})
	}
}

func (h *AccountHandler) invalidResetLink(w http.ResponseWriter, r *http.Request) {
	renderMessage(w, r, http.StatusBadRequest, "Reset your password", message{
		Text:     "This reset link is invalid or was already used.",
		Link:     "/auth/forgot-password",
		LinkText: "Request a new one",
	})
}
