package auth

import (
	"time"

	"github.com/nerrad567/gray-logic-doorbell/internal/infrastructure/config"
)

// defaultTTL applies when security.jwt.access_token_ttl is unset.
const defaultTTL = 60 * time.Minute

// Authenticator checks the admin password and issues session tokens.
type Authenticator struct {
	passwordHash string
	secret       string
	device       string
	ttl          time.Duration
	now          func() time.Time
}

// NewAuthenticator creates an Authenticator from the security config.
// device is written into issued tokens.
func NewAuthenticator(cfg config.SecurityConfig, device string) *Authenticator {
	ttl := time.Duration(cfg.JWT.AccessTokenTTL) * time.Minute
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Authenticator{
		passwordHash: cfg.AdminPasswordHash,
		secret:       cfg.JWT.Secret,
		device:       device,
		ttl:          ttl,
		now:          time.Now,
	}
}

// Enabled reports whether an admin password is configured.
func (a *Authenticator) Enabled() bool {
	return a.passwordHash != ""
}

// Login verifies password and returns a signed token with its expiry.
//
// Returns:
//   - error: ErrLoginDisabled, ErrInvalidCredentials, or ErrInvalidHash
//     for a misconfigured hash
func (a *Authenticator) Login(password string) (string, time.Time, error) {
	if !a.Enabled() {
		return "", time.Time{}, ErrLoginDisabled
	}

	ok, err := VerifyPassword(password, a.passwordHash)
	if err != nil {
		return "", time.Time{}, err
	}
	if !ok {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return IssueToken(a.secret, a.device, a.ttl, a.now())
}

// Validate checks a token issued by Login.
func (a *Authenticator) Validate(token string) (*Claims, error) {
	return ParseToken(token, a.secret)
}
