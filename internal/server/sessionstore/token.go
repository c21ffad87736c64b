package sessionstore

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carry the serialized session inside an HS256 JWT.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Token  string `json:"tok"`
}

// TokenStore is stateless: the signed session lives in the carrier.
type TokenStore struct {
	carrier Carrier
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
}

func NewTokenStore(c Carrier, secret []byte, ttl time.Duration) *TokenStore {
	return &TokenStore{carrier: c, secret: secret, ttl: ttl, now: time.Now}
}

func (s *TokenStore) Read(ctx context.Context) (*Serialized, error) {
	raw := s.carrier.Get(keyName())
	if raw == "" {
		return nil, nil
	}
	return ParseToken(raw, s.secret)
}

func (s *TokenStore) Write(ctx context.Context, ser *Serialized) error {
	tok, err := GenerateToken(*ser, s.secret, s.now(), s.ttl)
	if err != nil {
		return err
	}
	s.carrier.Set(keyName(), tok)
	return nil
}

func (s *TokenStore) Clear(ctx context.Context) error {
	s.carrier.Del(keyName())
	return nil
}

// GenerateToken signs ser. A zero ttl produces a token without expiry.
func GenerateToken(ser Serialized, secret []byte, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  ser.UserID,
			IssuedAt: jwt.NewNumericDate(now),
		},
		UserID: ser.UserID,
		Token:  ser.Token,
	}
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken verifies raw and returns the session it carries.
func ParseToken(raw string, secret []byte) (*Serialized, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid || claims.UserID == "" || claims.Token == "" {
		return nil, common.ErrInvalidToken
	}

	return &Serialized{UserID: claims.UserID, Token: claims.Token}, nil
}
