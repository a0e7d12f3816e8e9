package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
	"github.com/aussiebroadwan/estate/internal/estate/mailer"
	"github.com/aussiebroadwan/estate/internal/estate/store"
	"github.com/aussiebroadwan/estate/pkg/cryptox"
	"github.com/aussiebroadwan/estate/pkg/jwtx"
	"github.com/aussiebroadwan/estate/pkg/slogx"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotConfirmed       = errors.New("account not confirmed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or used token")
	ErrInvalidSession     = errors.New("invalid session")
)

// AccountService runs registration, email confirmation, sign-in and
// password reset. One-time tokens are only stored as fingerprints.
type AccountService struct {
	Store    store.Store
	Mailer   mailer.Mailer
	Signer   jwtx.Signer
	Verifier jwtx.Verifier

	Issuer     string
	SessionTTL time.Duration

	// BaseURL prefixes the links sent by email.
	BaseURL string
}

// Register creates an unconfirmed account and mails its confirmation link.
// A failed send is logged; the account still exists.
func (s *AccountService) Register(ctx context.Context, form RegisterForm) (domain.User, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input
	if err := form.validate(); err != nil {
		return domain.User{}, err
	}

	// 2. Hash password and mint confirm token
	hash, err := cryptox.HashPassword(form.Password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return domain.User{}, err
	}
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate confirm token", slog.Any("error", err))
		return domain.User{}, err
	}

	// 3. Store the user
	u, err := s.Store.Users().CreateUser(ctx, domain.User{
		Name:         strings.TrimSpace(form.Name),
		Email:        strings.TrimSpace(form.Email),
		PasswordHash: hash,
		TokenHash:    cryptox.FingerprintToken(token),
		TokenPurpose: domain.TokenConfirm,
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		log.Warn("registration with taken email")
		return domain.User{}, ErrEmailTaken
	}
	if err != nil {
		log.Error("failed to create user", slog.Any("error", err))
		return domain.User{}, err
	}

	// 4. Notify
	msg, err := mailer.ConfirmationMessage(u.Email, u.Name, s.link("/auth/confirm/", token))
	if err == nil {
		err = s.Mailer.Send(ctx, msg)
	}
	if err != nil {
		log.Error("failed to send confirmation email", slog.Int64("user_id", u.ID), slog.Any("error", err))
	}

	log.Info("user registered", slog.Int64("user_id", u.ID))
	return u, nil
}

// Confirm consumes a confirmation token.
func (s *AccountService) Confirm(ctx context.Context, token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, ErrInvalidToken
	}

	u, err := s.Store.Users().ConfirmUser(ctx, cryptox.FingerprintToken(token))
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, ErrInvalidToken
	}
	if err != nil {
		slogx.FromContext(ctx).Error("failed to confirm user", slog.Any("error", err))
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user confirmed", slog.Int64("user_id", u.ID))
	return u, nil
}

// Authenticate checks credentials and returns a signed session token.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (string, domain.Identity, error) {
	log := slogx.FromContext(ctx)

	// 1. Validate input
	verr := &ValidationError{}
	if !validEmail(email) {
		verr.Add("email", "Email is required")
	}
	if password == "" {
		verr.Add("password", "Password is required")
	}
	if err := verr.Err(); err != nil {
		return "", domain.Identity{}, err
	}

	// 2. Load the user
	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return "", domain.Identity{}, ErrUserNotFound
	}
	if err != nil {
		log.Error("failed to fetch user", slog.Any("error", err))
		return "", domain.Identity{}, err
	}

	// 3. Account state and password
	if !u.Confirmed {
		return "", domain.Identity{}, ErrNotConfirmed
	}
	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			log.Error("failed to verify password", slog.Int64("user_id", u.ID), slog.Any("error", err))
		}
		return "", domain.Identity{}, ErrInvalidCredentials
	}

	// 4. Sign the session
	id := u.Identity()
	session, err := s.Signer.Sign(jwtx.NewSessionClaims(id.Subject(), id.Name, s.Issuer, s.sessionTTL(), time.Now()))
	if err != nil {
		log.Error("failed to sign session", slog.Any("error", err))
		return "", domain.Identity{}, err
	}

	log.Info("user signed in", slog.Int64("user_id", u.ID))
	return session, id, nil
}

// RequestPasswordReset replaces the user's token with a reset token and
// mails the link.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	// 1. Validate input
	if !validEmail(email) {
		verr := &ValidationError{}
		verr.Add("email", "That does not look like an email")
		return verr
	}

	// 2. Load the user
	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		log.Error("failed to fetch user", slog.Any("error", err))
		return err
	}
	if !u.Confirmed {
		return ErrNotConfirmed
	}

	// 3. Mint and store the token
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return err
	}
	if err := s.Store.Users().SetToken(ctx, u.ID, cryptox.FingerprintToken(token), domain.TokenReset); err != nil {
		log.Error("failed to store reset token", slog.Int64("user_id", u.ID), slog.Any("error", err))
		return err
	}

	// 4. Notify
	msg, err := mailer.PasswordResetMessage(u.Email, u.Name, s.link("/auth/forgot-password/", token))
	if err == nil {
		err = s.Mailer.Send(ctx, msg)
	}
	if err != nil {
		log.Error("failed to send password reset email", slog.Int64("user_id", u.ID), slog.Any("error", err))
	}

	log.Info("password reset requested", slog.Int64("user_id", u.ID))
	return nil
}

// CheckResetToken reports whether token is an outstanding reset token.
func (s *AccountService) CheckResetToken(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidToken
	}
	_, err := s.Store.Users().GetUserByToken(ctx, cryptox.FingerprintToken(token), domain.TokenReset)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidToken
	}
	return err
}

// ResetPassword consumes a reset token and stores the new password.
func (s *AccountService) ResetPassword(ctx context.Context, token, password string) error {
	verr := &ValidationError{}
	checkPassword(verr, password)
	if err := verr.Err(); err != nil {
		return err
	}
	if token == "" {
		return ErrInvalidToken
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return err
	}

	u, err := s.Store.Users().ResetPassword(ctx, cryptox.FingerprintToken(token), hash)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		slogx.FromContext(ctx).Error("failed to reset password", slog.Any("error", err))
		return err
	}

	slogx.FromContext(ctx).Info("password reset", slog.Int64("user_id", u.ID))
	return nil
}

// ResolveSession verifies a session token and loads its user. The
// returned identity never carries credentials.
func (s *AccountService) ResolveSession(ctx context.Context, raw string) (domain.Identity, error) {
	claims, err := s.Verifier.Verify(raw)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	id, ok := domain.ParseID(claims.Subject)
	if !ok {
		return domain.Identity{}, fmt.Errorf("%w: bad subject %q", ErrInvalidSession, claims.Subject)
	}

	u, err := s.Store.Users().GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Identity{}, ErrUserNotFound
	}
	if err != nil {
		return domain.Identity{}, err
	}
	return u.Identity(), nil
}

func (s *AccountService) sessionTTL() time.Duration {
	if s.SessionTTL <= 0 {
		return jwtx.DefaultSessionTTL
	}
	return s.SessionTTL
}

func (s *AccountService) link(path, token string) string {
	return strings.TrimRight(s.BaseURL, "/") + path + token
}
