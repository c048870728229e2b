package tokens

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultAccessTTL  = 24 * time.Hour
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

var (
	ErrSigning      = errors.New("token signing failed")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// Kind selects the secret a token is signed or verified with.
type Kind int

const (
	Access Kind = iota
	Refresh
)

func (k Kind) String() string {
	if k == Refresh {
		return "refresh"
	}
	return "access"
}

// Service signs and verifies HS256 tokens. The two kinds never share a secret.
type Service struct {
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

func NewService(accessSecret, refreshSecret []byte) (*Service, error) {
	if len(accessSecret) == 0 || len(refreshSecret) == 0 {
		return nil, fmt.Errorf("%w: empty secret", ErrSigning)
	}
	if string(accessSecret) == string(refreshSecret) {
		return nil, fmt.Errorf("%w: access and refresh secrets must differ", ErrSigning)
	}
	return &Service{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		now:           time.Now,
	}, nil
}

func (s *Service) IssueAccessToken(sub Subject, ttl time.Duration) (string, error) {
	return s.issue(sub, ttl, s.accessSecret)
}

func (s *Service) IssueRefreshToken(sub Subject, ttl time.Duration) (string, error) {
	return s.issue(sub, ttl, s.refreshSecret)
}

func (s *Service) issue(sub Subject, ttl time.Duration, secret []byte) (string, error) {
	now := s.now()
	claims := Claims{
		Name:  sub.Name,
		Email: sub.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(sub.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return signed, nil
}

// Verify checks signature and expiry against the secret of the given kind. An expired
// but otherwise valid token yields ErrTokenExpired; everything else ErrTokenInvalid.
func (s *Service) Verify(raw string, kind Kind) (*Claims, error) {
	secret := s.accessSecret
	if kind == Refresh {
		secret = s.refreshSecret
	}

	var claims Claims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !tkn.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}
