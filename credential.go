package datashare

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// MinSecretBytes is the shortest accepted HMAC-SHA256 signing secret (256 bits).
	MinSecretBytes = 32
	// DefaultIssuer is used when CredentialConfig.Issuer is empty.
	DefaultIssuer = "datashare-api"
)

// CredentialConfig configures a CredentialCodec.
type CredentialConfig struct {
	Secret string
	Issuer string
	// Now overrides the clock, mainly for tests. Defaults to time.Now.
	Now func() time.Time
}

// CredentialCodec issues and verifies HS256-signed session credentials.
// It holds no state besides its secret and is safe for concurrent use.
type CredentialCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// NewCredentialCodec validates the secret and returns a codec.
// A secret shorter than MinSecretBytes is rejected with ErrWeakSecret;
// callers are expected to treat that as fatal at startup.
func NewCredentialCodec(cfg CredentialConfig) (*CredentialCodec, error) {
	if len(cfg.Secret) < MinSecretBytes {
		return nil, fmt.Errorf("new credential codec: %w (got %d bytes)", ErrWeakSecret, len(cfg.Secret))
	}

	issuer := cfg.Issuer
	if issuer == "" {
		issuer = DefaultIssuer
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &CredentialCodec{
		secret: []byte(cfg.Secret),
		issuer: issuer,
		now:    now,
		// Expiry is checked by the caller so that expired and forged
		// credentials can be told apart.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// Issue signs a credential for subject valid for ttl.
func (c *CredentialCodec) Issue(subject string, ttl time.Duration) (string, Credential, error) {
	if subject == "" {
		return "", Credential{}, fmt.Errorf("issue credential: %w: empty subject", ErrInvalidInput)
	}
	if ttl <= 0 {
		return "", Credential{}, fmt.Errorf("issue credential: %w: ttl must be positive", ErrInvalidInput)
	}

	// JWT NumericDate has second precision.
	now := c.now().UTC().Truncate(time.Second)
	cred := Credential{
		Subject:   subject,
		Issuer:    c.issuer,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	claims := jwt.RegisteredClaims{
		Issuer:    cred.Issuer,
		Subject:   cred.Subject,
		IssuedAt:  jwt.NewNumericDate(cred.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(cred.ExpiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", Credential{}, fmt.Errorf("issue credential: %w", err)
	}

	return signed, cred, nil
}

// Verify checks signature, algorithm, format and issuer, and returns the
// decoded claims. It does not check expiry.
func (c *CredentialCodec) Verify(raw string) (Credential, error) {
	if raw == "" {
		return Credential{}, fmt.Errorf("verify credential: %w: empty", ErrInvalidCredential)
	}

	var claims jwt.RegisteredClaims
	_, err := c.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return Credential{}, fmt.Errorf("verify credential: %w: bad signature", ErrInvalidCredential)
		}
		return Credential{}, fmt.Errorf("verify credential: %w: %w", ErrInvalidCredential, err)
	}

	if claims.Issuer != c.issuer {
		return Credential{}, fmt.Errorf("verify credential: %w: unexpected issuer %q", ErrInvalidCredential, claims.Issuer)
	}
	if claims.Subject == "" || claims.ExpiresAt == nil {
		return Credential{}, fmt.Errorf("verify credential: %w: missing sub or exp", ErrInvalidCredential)
	}

	cred := Credential{
		Subject:   claims.Subject,
		Issuer:    claims.Issuer,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		cred.IssuedAt = claims.IssuedAt.Time
	}

	return cred, nil
}

// Expired reports whether cred is past its expiry at the codec's current time.
func (c *CredentialCodec) Expired(cred Credential) bool {
	return !c.now().Before(cred.ExpiresAt)
}
