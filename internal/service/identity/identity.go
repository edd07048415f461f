package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/avolkov/stallpoints/internal/apperrors"
	"github.com/avolkov/stallpoints/internal/models"
)

const (
	defaultSigningMethod = "HS256"
	defaultTokenTTL      = 24 * time.Hour
)

// Claims carried by an identity token. Subject is the stable account id the
// identity provider assigned, email is the raw onboarding signal.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Verifier config with sensible defaults
type Config struct {
	// Secret key the identity tokens are signed with
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set the default is used
	Alg string

	// Email domain callers must belong to, e.g. 'iiitn.ac.in'
	// Empty means any domain is accepted
	AllowedEmailDomain string

	// Lifetime of issued tokens
	// If not set the default is used
	TokenTTL time.Duration
}

// Verifier checks identity tokens from the external identity collaborator
// and can mint them for dev and test use.
type Verifier struct {
	key           string
	alg           jwt.SigningMethod
	allowedDomain string
	tokenTTL      time.Duration
}

func New(cfg Config) (*Verifier, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	return &Verifier{
		key:           cfg.SecretKey,
		alg:           jwt.GetSigningMethod(cfg.Alg),
		allowedDomain: strings.ToLower(cfg.AllowedEmailDomain),
		tokenTTL:      cfg.TokenTTL,
	}, nil
}

// Verify parses and validates the token string and returns the identity it
// asserts. Bad signature, wrong algorithm or expiry all surface as
// apperrors.ErrIdentityInvalid; an out-of-domain email as
// apperrors.ErrIdentityRejected.
func (v *Verifier) Verify(tokenString string) (models.Identity, error) {
	var identity models.Identity

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) { return []byte(v.key), nil },
		jwt.WithValidMethods([]string{v.alg.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return identity, fmt.Errorf("%w: %w", apperrors.ErrIdentityInvalid, err)
	}

	if claims.Subject == "" || claims.Email == "" {
		return identity, fmt.Errorf("%w: subject and email claims are required", apperrors.ErrIdentityInvalid)
	}

	if v.allowedDomain != "" && !strings.HasSuffix(strings.ToLower(claims.Email), "@"+v.allowedDomain) {
		return identity, fmt.Errorf("%w: email domain not allowed", apperrors.ErrIdentityRejected)
	}

	return models.Identity{
		Subject:     claims.Subject,
		Email:       claims.Email,
		ClaimedRole: claims.Role,
	}, nil
}

// Issue signs a token asserting the identity. Meant for gentoken and tests;
// in production tokens come from the identity provider.
func (v *Verifier) Issue(identity models.Identity) (string, error) {
	now := time.Now().Truncate(time.Second)

	token := jwt.NewWithClaims(v.alg, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.tokenTTL)),
		},
		Email: identity.Email,
		Role:  identity.ClaimedRole,
	})

	signed, err := token.SignedString([]byte(v.key))
	if err != nil {
		return "", fmt.Errorf("error while signing identity token. Err: %w", err)
	}

	return signed, nil
}
