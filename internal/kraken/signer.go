// Package kraken implements an authenticated Kraken Futures REST client:
// request signing, nonce generation, and the endpoint surface the bot uses.
package kraken

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// derivativesPrefix is stripped from endpoint paths before signing; the
// exchange signs the logical path, not the physical one.
const derivativesPrefix = "/derivatives"

// SecretEncoding declares how the API secret is encoded. It is fixed per
// credential at configuration time; the signature is emitted in the same
// encoding. Guessing the encoding from string length is deliberately not
// supported.
type SecretEncoding string

const (
	// EncodingBase64 is what Kraken issues by default.
	EncodingBase64 SecretEncoding = "base64"
	// EncodingHex supports deployments that store the secret hex-encoded.
	EncodingHex SecretEncoding = "hex"
)

// ParseSecretEncoding validates a configured encoding name, defaulting the
// empty string to base64.
func ParseSecretEncoding(s string) (SecretEncoding, error) {
	switch SecretEncoding(strings.ToLower(strings.TrimSpace(s))) {
	case "", EncodingBase64:
		return EncodingBase64, nil
	case EncodingHex:
		return EncodingHex, nil
	default:
		return "", fmt.Errorf("%w: unknown secret encoding %q", ErrConfiguration, s)
	}
}

// Signer produces the Authent header value for private API requests and owns
// the nonce counter shared by every signing caller.
type Signer struct {
	apiKey   string
	secret   []byte
	encoding SecretEncoding
	nonces   nonceSource
}

// NewSigner decodes the secret once up front so a malformed credential fails
// fast with ErrConfiguration instead of on the first request.
func NewSigner(apiKey, apiSecret string, encoding SecretEncoding) (*Signer, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("%w: api key and secret are required", ErrConfiguration)
	}
	var secret []byte
	var err error
	switch encoding {
	case EncodingBase64:
		secret, err = base64.StdEncoding.DecodeString(apiSecret)
	case EncodingHex:
		secret, err = hex.DecodeString(apiSecret)
	default:
		return nil, fmt.Errorf("%w: unknown secret encoding %q", ErrConfiguration, encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s secret: %v", ErrConfiguration, encoding, err)
	}
	return &Signer{apiKey: apiKey, secret: secret, encoding: encoding}, nil
}

// APIKey returns the credential's public identifier for the APIKey header.
func (s *Signer) APIKey() string { return s.apiKey }

// Nonce issues the next strictly increasing nonce.
func (s *Signer) Nonce() string { return s.nonces.Next() }

// Sign computes the Authent value for a request: SHA-256 over
// postData+nonce+path (path with the /derivatives prefix stripped), then
// HMAC-SHA-512 keyed with the decoded secret, emitted in the secret's own
// text encoding. postData must be byte-identical to the transmitted body.
func (s *Signer) Sign(endpointPath, nonce, postData string) string {
	path := strings.TrimPrefix(endpointPath, derivativesPrefix)
	digest := sha256.Sum256([]byte(postData + nonce + path))
	mac := hmac.New(sha512.New, s.secret)
	mac.Write(digest[:])
	sum := mac.Sum(nil)
	if s.encoding == EncodingHex {
		return hex.EncodeToString(sum)
	}
	return base64.StdEncoding.EncodeToString(sum)
}
