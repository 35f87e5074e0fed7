package filesystem_test

import (
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sagarc03/datashare/filesystem"
	stowry "github.com/sagarc03/stowry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessKey = "LOCALTEST"
	testSecretKey = "testsecret123"
)

func newTestVerifier(t *testing.T) *filesystem.Verifier {
	t.Helper()
	ring, err := filesystem.NewKeyRing(filesystem.KeysConfig{
		Inline: []filesystem.KeyPair{{AccessKey: testAccessKey, SecretKey: testSecretKey}},
	})
	require.NoError(t, err)
	return filesystem.NewVerifier(ring)
}

func signedQuery(t *testing.T, rawURL string) (string, url.Values) {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	return u.Path, u.Query()
}

func TestPresigner_URL(t *testing.T) {
	p := filesystem.NewPresigner("http://localhost:8080/", testAccessKey, testSecretKey)

	raw := p.URL("PUT", "uploads/abc-report.pdf", 15*time.Minute)

	assert.True(t, strings.HasPrefix(raw, "http://localhost:8080/uploads/abc-report.pdf?"))
	_, q := signedQuery(t, raw)
	assert.Equal(t, testAccessKey, q.Get(stowry.StowryCredentialParam))
	assert.Equal(t, "900", q.Get(stowry.StowryExpiresParam))
	assert.NotEmpty(t, q.Get(stowry.StowryDateParam))
	assert.NotEmpty(t, q.Get(stowry.StowrySignatureParam))
}

func TestPresigner_URL_ClampsExpires(t *testing.T) {
	p := filesystem.NewPresigner("http://localhost", testAccessKey, testSecretKey)

	_, q := signedQuery(t, p.URL("GET", "uploads/a.txt", 30*24*time.Hour))
	assert.Equal(t, strconv.Itoa(filesystem.MaxExpires), q.Get(stowry.StowryExpiresParam))

	_, q = signedQuery(t, p.URL("GET", "uploads/a.txt", 0))
	assert.Equal(t, "1", q.Get(stowry.StowryExpiresParam))
}

func TestPresigner_URL_EscapesPath(t *testing.T) {
	p := filesystem.NewPresigner("http://localhost", testAccessKey, testSecretKey)
	verifier := newTestVerifier(t)

	raw := p.URL("GET", "uploads/abc-my report.pdf", time.Minute)
	assert.Contains(t, raw, "/uploads/abc-my%20report.pdf?")

	path, q := signedQuery(t, raw)
	assert.Equal(t, "/uploads/abc-my report.pdf", path)
	assert.NoError(t, verifier.Verify("GET", path, q))
}

func TestVerifier_RoundTrip(t *testing.T) {
	p := filesystem.NewPresigner("http://localhost", testAccessKey, testSecretKey)
	verifier := newTestVerifier(t)

	path, q := signedQuery(t, p.URL("PUT", "uploads/a.txt", time.Minute))
	assert.NoError(t, verifier.Verify("PUT", path, q))

	err := verifier.Verify("GET", path, q)
	assert.ErrorIs(t, err, filesystem.ErrInvalidSignature, "method is signed")

	err = verifier.Verify("PUT", "/uploads/b.txt", q)
	assert.ErrorIs(t, err, filesystem.ErrInvalidSignature, "path is signed")

	path, q = signedQuery(t, p.URL("GET", "uploads/a.txt", time.Minute))
	assert.NoError(t, verifier.Verify("HEAD", path, q), "HEAD verifies as GET")
}

func TestVerifier_Verify(t *testing.T) {
	verifier := newTestVerifier(t)

	validTimestamp := time.Now().Unix()
	validExpires := int64(900)
	validSignature := stowry.Sign(testSecretKey, "GET", "/uploads/test.txt", validTimestamp, validExpires)

	expiredTimestamp := time.Now().Add(-2 * time.Hour).Unix()
	expiredSignature := stowry.Sign(testSecretKey, "GET", "/uploads/test.txt", expiredTimestamp, validExpires)

	futureTimestamp := time.Now().Add(time.Hour).Unix()
	futureSignature := stowry.Sign(testSecretKey, "GET", "/uploads/test.txt", futureTimestamp, validExpires)

	query := func(credential string, ts, expires int64, sig string) url.Values {
		return url.Values{
			stowry.StowryCredentialParam: []string{credential},
			stowry.StowryDateParam:       []string{strconv.FormatInt(ts, 10)},
			stowry.StowryExpiresParam:    []string{strconv.FormatInt(expires, 10)},
			stowry.StowrySignatureParam:  []string{sig},
		}
	}

	tests := []struct {
		name      string
		query     url.Values
		wantError string
	}{
		{
			name:      "empty query",
			query:     url.Values{},
			wantError: "missing required signature parameters",
		},
		{
			name: "missing signature",
			query: url.Values{
				stowry.StowryCredentialParam: []string{testAccessKey},
				stowry.StowryDateParam:       []string{strconv.FormatInt(validTimestamp, 10)},
				stowry.StowryExpiresParam:    []string{"900"},
			},
			wantError: "missing required signature parameters",
		},
		{
			name: "invalid date",
			query: url.Values{
				stowry.StowryCredentialParam: []string{testAccessKey},
				stowry.StowryDateParam:       []string{"yesterday"},
				stowry.StowryExpiresParam:    []string{"900"},
				stowry.StowrySignatureParam:  []string{validSignature},
			},
			wantError: "invalid date",
		},
		{
			name:      "expires zero",
			query:     query(testAccessKey, validTimestamp, 0, validSignature),
			wantError: "invalid expires",
		},
		{
			name:      "expires over a week",
			query:     query(testAccessKey, validTimestamp, filesystem.MaxExpires+1, validSignature),
			wantError: "invalid expires",
		},
		{
			name:      "expired",
			query:     query(testAccessKey, expiredTimestamp, validExpires, expiredSignature),
			wantError: "signature expired",
		},
		{
			name:      "future date",
			query:     query(testAccessKey, futureTimestamp, validExpires, futureSignature),
			wantError: "signature date in the future",
		},
		{
			name:      "unknown access key",
			query:     query("UNKNOWN", validTimestamp, validExpires, validSignature),
			wantError: "access key not found",
		},
		{
			name:      "wrong signature",
			query:     query(testAccessKey, validTimestamp, validExpires, strings.Repeat("0", 64)),
			wantError: "signature mismatch",
		},
		{
			name:  "valid",
			query: query(testAccessKey, validTimestamp, validExpires, validSignature),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifier.Verify("GET", "/uploads/test.txt", tt.query)

			if tt.wantError == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, filesystem.ErrInvalidSignature)
				assert.Contains(t, err.Error(), tt.wantError)
			}
		})
	}
}

func TestVerifier_KeyRotation(t *testing.T) {
	ring, err := filesystem.NewKeyRing(filesystem.KeysConfig{})
	require.NoError(t, err)
	ring.Add("OLDKEY", "old-secret")
	ring.Add("NEWKEY", "new-secret")
	verifier := filesystem.NewVerifier(ring)

	for _, k := range []struct{ access, secret string }{{"OLDKEY", "old-secret"}, {"NEWKEY", "new-secret"}} {
		p := filesystem.NewPresigner("http://localhost", k.access, k.secret)
		path, q := signedQuery(t, p.URL("GET", "uploads/a.txt", time.Minute))
		assert.NoError(t, verifier.Verify("GET", path, q), k.access)
	}
}
