package token

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/cleanhq/cleaner/scopes"
)

// Kind discriminates the two token variants the service mints. A token is
// resolved into Claims exactly once; callers branch on Claims.Kind instead of
// re-parsing the raw string.
type Kind string

const (
	KindAccess  Kind = "access_token"
	KindRefresh Kind = "refresh_token"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrWrongTokenKind = errors.New("wrong token kind")
)

// Claims is the decoded payload of a signed token.
type Claims struct {
	Subject   string // user ID, or client ID for client-credentials tokens
	ClientID  string
	Scopes    scopes.Set
	Kind      Kind
	IssuedAt  time.Time
	ExpiresAt time.Time
	JTI       string
}

const minSecretLength = 32

// Codec signs and verifies bearer tokens with HMAC-SHA256. The signing secret
// is injected at construction; there is no package-level key material.
type Codec struct {
	secret  []byte
	nowFunc func() time.Time
}

type CodecOption func(*Codec)

// WithCodecNowFunc sets the clock used for iat/exp claims (for testing).
func WithCodecNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

// NewCodec creates a Codec from the signing secret.
func NewCodec(secret []byte, options ...CodecOption) (*Codec, error) {
	if len(secret) < minSecretLength {
		return nil, errors.Errorf("[NewCodec] secret must be at least %d bytes", minSecretLength)
	}
	c := &Codec{
		secret:  secret,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Issue mints a signed token of the given kind. The returned jti is the
// token's unique ID; persist HashID(jti), never the raw token.
func (c *Codec) Issue(subject, clientID string, scps scopes.Set, kind Kind, ttl time.Duration) (raw string, jti string, err error) {
	jti, err = newJTI()
	if err != nil {
		return "", "", errors.Wrap(err, "[Codec.Issue] newJTI")
	}

	now := c.nowFunc()
	claims := jwt.MapClaims{
		"sub":        subject,
		"client_id":  clientID,
		"scopes":     scps.Slice(),
		"token_type": string(kind),
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
		"jti":        jti,
	}

	raw, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", "", errors.Wrap(err, "[Codec.Issue] SignedString")
	}
	return raw, jti, nil
}

// Verify checks the signature and expiry of raw and confirms it is of the
// wanted kind. A valid signature with the wrong token_type claim fails with
// ErrWrongTokenKind.
func (c *Codec) Verify(raw string, want Kind) (*Claims, error) {
	claims, err := c.decode(raw)
	if err != nil {
		return nil, err
	}
	if claims.Kind != want {
		return nil, ErrWrongTokenKind
	}
	return claims, nil
}

// VerifyAny checks the signature and expiry of raw and resolves its kind from
// the token itself. Used by introspection and revocation, which accept either
// variant.
func (c *Codec) VerifyAny(raw string) (*Claims, error) {
	return c.decode(raw)
}

func (c *Codec) decode(raw string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.nowFunc),
	)

	parsed, err := parser.Parse(raw, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, _ := mapClaims["sub"].(string)
	clientID, _ := mapClaims["client_id"].(string)
	kindStr, _ := mapClaims["token_type"].(string)
	jti, _ := mapClaims["jti"].(string)
	iat, _ := mapClaims["iat"].(float64)
	exp, _ := mapClaims["exp"].(float64)

	kind := Kind(kindStr)
	if kind != KindAccess && kind != KindRefresh {
		return nil, ErrInvalidToken
	}
	if jti == "" {
		return nil, ErrInvalidToken
	}

	scps, err := scopes.ParseSlice(claimStrings(mapClaims["scopes"]))
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Claims{
		Subject:   sub,
		ClientID:  clientID,
		Scopes:    scps,
		Kind:      kind,
		IssuedAt:  time.Unix(int64(iat), 0),
		ExpiresAt: time.Unix(int64(exp), 0),
		JTI:       jti,
	}, nil
}

func claimStrings(claim any) []string {
	values, ok := claim.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

const jtiLength = 32 // 256 bits

func newJTI() (string, error) {
	bytes := make([]byte, jtiLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
