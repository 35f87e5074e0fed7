package filesystem

import (
	"crypto/hmac"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	stowry "github.com/sagarc03/stowry-go"
)

// MaxExpires is the longest validity, in seconds, a signed URL may claim.
const MaxExpires = 7 * 24 * 60 * 60

// maxClockSkew bounds how far in the future a signature date may be.
const maxClockSkew = 5 * time.Minute

// ErrInvalidSignature is returned by Verifier for any rejected URL.
var ErrInvalidSignature = errors.New("invalid signature")

// Presigner issues stowry-signed URLs for objects served by ObjectHandler.
type Presigner struct {
	baseURL   string
	accessKey string
	secretKey string
	now       func() time.Time
}

// NewPresigner creates a Presigner. baseURL is the externally reachable
// origin of the server, e.g. https://share.example.com.
func NewPresigner(baseURL, accessKey, secretKey string) *Presigner {
	return &Presigner{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		accessKey: accessKey,
		secretKey: secretKey,
		now:       time.Now,
	}
}

// URL returns a signed URL for method on key, valid for ttl. The ttl is
// rounded down to whole seconds and clamped to 1..MaxExpires.
func (p *Presigner) URL(method, key string, ttl time.Duration) string {
	expires := min(max(int64(ttl/time.Second), 1), MaxExpires)
	timestamp := p.now().Unix()
	path := "/" + key

	sig := stowry.Sign(p.secretKey, method, path, timestamp, expires)

	query := url.Values{}
	query.Set(stowry.StowryCredentialParam, p.accessKey)
	query.Set(stowry.StowryDateParam, strconv.FormatInt(timestamp, 10))
	query.Set(stowry.StowryExpiresParam, strconv.FormatInt(expires, 10))
	query.Set(stowry.StowrySignatureParam, sig)

	u := url.URL{Path: path}
	return p.baseURL + u.EscapedPath() + "?" + query.Encode()
}

// Verifier checks stowry-signed URLs against a KeyRing.
type Verifier struct {
	keys *KeyRing
	now  func() time.Time
}

// NewVerifier creates a Verifier that accepts any key in keys.
func NewVerifier(keys *KeyRing) *Verifier {
	return &Verifier{keys: keys, now: time.Now}
}

// Verify checks the signature parameters in query for method on path.
// HEAD requests are verified as GET. All failures wrap ErrInvalidSignature.
func (v *Verifier) Verify(method, path string, query url.Values) error {
	if method == http.MethodHead {
		method = http.MethodGet
	}

	credential := query.Get(stowry.StowryCredentialParam)
	date := query.Get(stowry.StowryDateParam)
	expiresStr := query.Get(stowry.StowryExpiresParam)
	signature := query.Get(stowry.StowrySignatureParam)

	if credential == "" || date == "" || expiresStr == "" || signature == "" {
		return fmt.Errorf("%w: missing required signature parameters", ErrInvalidSignature)
	}

	timestamp, err := strconv.ParseInt(date, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid date", ErrInvalidSignature)
	}

	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil || expires < 1 || expires > MaxExpires {
		return fmt.Errorf("%w: invalid expires", ErrInvalidSignature)
	}

	signedAt := time.Unix(timestamp, 0)
	now := v.now()

	if signedAt.After(now.Add(maxClockSkew)) {
		return fmt.Errorf("%w: signature date in the future", ErrInvalidSignature)
	}

	if now.After(signedAt.Add(time.Duration(expires) * time.Second)) {
		return fmt.Errorf("%w: signature expired", ErrInvalidSignature)
	}

	secret, err := v.keys.Lookup(credential)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	expected := stowry.Sign(secret, method, path, timestamp, expires)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("%w: signature mismatch", ErrInvalidSignature)
	}

	return nil
}
