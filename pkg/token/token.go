// Package token issues and verifies the JWT credentials guard accepts.
//
// A Manager signs and parses tokens using the algorithms configured in
// pkg/options/jwt (HMAC, RSA, and ECDSA families). Parsing yields a
// Principal whose subject and roles feed authorization queries: policy
// records name subjects and role names in the same principal namespace,
// so a record for "admin" applies to every caller carrying that role.
//
// Usage:
//
//	mgr, err := token.New(jwtOpts)
//	raw, err := mgr.Sign("user-123", token.WithRoles("admin"))
//	principal, err := mgr.Parse(raw)
package token

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/guard/pkg/errors"
	jwtopts "github.com/kart-io/guard/pkg/options/jwt"
	"github.com/kart-io/guard/pkg/utils/id"
)

// Principal is the authenticated caller extracted from a verified token.
type Principal struct {
	// Subject is the unique caller identity (sub claim).
	Subject string `json:"subject"`

	// Roles are the role names granted to the caller (roles claim).
	Roles []string `json:"roles,omitempty"`

	// Extra carries any additional claims from the token.
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// Principals returns the subject and roles as decision query principals,
// subject first. Authorization treats roles as principals in their own
// right, so a permit for a role name covers every caller holding it.
func (p *Principal) Principals() []any {
	if p == nil {
		return nil
	}
	out := make([]any, 0, len(p.Roles)+1)
	if p.Subject != "" {
		out = append(out, p.Subject)
	}
	for _, r := range p.Roles {
		if r != "" {
			out = append(out, r)
		}
	}
	return out
}

// claims extends the registered claim set with guard's role list.
type claims struct {
	jwt.RegisteredClaims
	Roles []string               `json:"roles,omitempty"`
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// Manager signs and verifies tokens with a fixed algorithm and key pair.
type Manager struct {
	opts   *jwtopts.Options
	method jwt.SigningMethod
}

// New creates a Manager from the options. The configured signing method
// is resolved once; tokens presented with any other algorithm are
// rejected during parsing.
func New(opts *jwtopts.Options) (*Manager, error) {
	if opts == nil {
		opts = jwtopts.NewOptions()
	}
	if err := opts.Complete(); err != nil {
		return nil, err
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, utilerrors.NewAggregate(errs)
	}

	method := jwt.GetSigningMethod(opts.SigningMethod)
	if method == nil {
		return nil, errors.ErrConfig.WithMessagef("unsupported signing method: %s", opts.SigningMethod)
	}
	return &Manager{opts: opts, method: method}, nil
}

// Disabled reports whether authentication is switched off in the options.
// The middleware lets requests through unauthenticated when it is.
func (m *Manager) Disabled() bool {
	return m == nil || m.opts.DisableAuth
}

// SignOption customizes a single token.
type SignOption func(*signOptions)

type signOptions struct {
	roles []string
	extra map[string]interface{}
	ttl   time.Duration
}

// WithRoles sets the roles claim.
func WithRoles(roles ...string) SignOption {
	return func(o *signOptions) {
		o.roles = roles
	}
}

// WithExtra sets additional claims.
func WithExtra(extra map[string]interface{}) SignOption {
	return func(o *signOptions) {
		o.extra = extra
	}
}

// WithTTL overrides the configured expiration for this token.
func WithTTL(ttl time.Duration) SignOption {
	return func(o *signOptions) {
		o.ttl = ttl
	}
}

// Sign creates a signed token for the subject.
func (m *Manager) Sign(subject string, opts ...SignOption) (string, error) {
	if subject == "" {
		return "", errors.ErrInvalidParam.WithMessage("token subject is required")
	}

	so := &signOptions{ttl: m.opts.Expired}
	for _, opt := range opts {
		opt(so)
	}

	now := time.Now()
	c := &claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.opts.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(so.ttl)),
			NotBefore: jwt.NewNumericDate(now),
			ID:        id.NewULID(),
		},
		Roles: so.roles,
		Extra: so.extra,
	}
	if len(m.opts.Audience) > 0 {
		c.Audience = m.opts.Audience
	}

	tok := jwt.NewWithClaims(m.method, c)
	if m.opts.KeyID != "" {
		tok.Header["kid"] = m.opts.KeyID
	}

	key, err := m.signingKey()
	if err != nil {
		return "", err
	}
	raw, err := tok.SignedString(key)
	if err != nil {
		return "", errors.ErrInternal.WithCause(err).WithMessage("failed to sign token")
	}
	return raw, nil
}

// Parse verifies the token and extracts the principal.
func (m *Manager) Parse(tokenString string) (*Principal, error) {
	if tokenString == "" {
		return nil, errors.ErrInvalidToken.WithMessage("token is empty")
	}

	tok, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != m.method.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.verifyingKey()
	})
	if err != nil {
		return nil, mapParseError(err)
	}
	if !tok.Valid {
		return nil, errors.ErrInvalidToken
	}

	c, ok := tok.Claims.(*claims)
	if !ok {
		return nil, errors.ErrInvalidToken.WithMessage("invalid claims type")
	}
	if c.Subject == "" {
		return nil, errors.ErrInvalidToken.WithMessage("missing subject claim")
	}

	return &Principal{Subject: c.Subject, Roles: c.Roles, Extra: c.Extra}, nil
}

// signingKey returns the private key material for the configured method.
func (m *Manager) signingKey() (interface{}, error) {
	if strings.HasPrefix(m.opts.SigningMethod, "HS") {
		return []byte(m.opts.Key), nil
	}

	block, _ := pem.Decode([]byte(m.opts.Key))
	if block == nil {
		return nil, errors.ErrConfig.WithMessage("invalid private key PEM format")
	}

	if strings.HasPrefix(m.opts.SigningMethod, "RS") {
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err == nil {
			return key, nil
		}
		pkcs8, err8 := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err8 != nil {
			return nil, errors.ErrConfig.WithCause(err).WithMessage("failed to parse RSA private key")
		}
		return pkcs8, nil
	}

	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err == nil {
		return key, nil
	}
	pkcs8, err8 := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err8 != nil {
		return nil, errors.ErrConfig.WithCause(err).WithMessage("failed to parse ECDSA private key")
	}
	return pkcs8, nil
}

// verifyingKey returns the key material used to check signatures.
func (m *Manager) verifyingKey() (interface{}, error) {
	if strings.HasPrefix(m.opts.SigningMethod, "HS") {
		return []byte(m.opts.Key), nil
	}

	if m.opts.PublicKey == "" {
		return nil, errors.ErrConfig.WithMessage("public key required for RSA/ECDSA verification")
	}
	block, _ := pem.Decode([]byte(m.opts.PublicKey))
	if block == nil {
		return nil, errors.ErrConfig.WithMessage("invalid public key PEM format")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, errors.ErrConfig.WithCause(err).WithMessage("failed to parse public key")
	}
	return key, nil
}

// mapParseError maps jwt parse failures onto guard's error codes.
func mapParseError(err error) *errors.Errno {
	switch {
	case strings.Contains(err.Error(), "token is expired"):
		return errors.ErrTokenExpired
	case strings.Contains(err.Error(), "signature is invalid"):
		return errors.ErrInvalidToken.WithMessage("invalid signature")
	case strings.Contains(err.Error(), "token is malformed"):
		return errors.ErrInvalidToken.WithMessage("malformed token")
	case strings.Contains(err.Error(), "token is not valid yet"):
		return errors.ErrInvalidToken.WithMessage("token not valid yet")
	default:
		return errors.ErrInvalidToken.WithCause(err)
	}
}
