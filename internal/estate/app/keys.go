package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/estate/pkg/cryptox"
	"github.com/aussiebroadwan/estate/pkg/jwtx"
)

const (
	sessionIssuer = "estate"
	sessionLeeway = 30 * time.Second
)

// InitSessionKeys builds the session signer and verifier from JWT_SECRET.
//
// In dev an unset secret is replaced by a random one, so every restart
// signs everybody out.
func InitSessionKeys(cfg Config, logger *slog.Logger) (jwtx.Signer, jwtx.Verifier, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		if cfg.Env != "dev" {
			return nil, nil, fmt.Errorf("JWT_SECRET is required in %s", cfg.Env)
		}

		generated, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return nil, nil, err
		}
		secret = generated
		logger.Warn("JWT_SECRET not set, using a random per-process secret")
	}

	signer, err := jwtx.NewSignerHS256([]byte(secret))
	if err != nil {
		return nil, nil, fmt.Errorf("session signer: %w", err)
	}
	verifier := jwtx.NewVerifierHS256([]byte(secret), sessionIssuer, sessionLeeway)

	return signer, verifier, nil
}
