package mockserver

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "ticketsync-mock"

type Claims struct {
	PassengerID string `json:"passengerId"`
	jwt.RegisteredClaims
}

// JWTTokens signs passenger tokens with HS256, like the real passenger
// service does.
type JWTTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTTokens(secret string, ttl time.Duration) JWTTokens {
	if secret == "" {
		panic("empty JWT secret")
	}

	return JWTTokens{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (j JWTTokens) Issue(passengerID string) (string, error) {
	now := j.now()

	claims := Claims{
		PassengerID: passengerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   passengerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("could not sign token: %w", err)
	}

	return signed, nil
}

func (j JWTTokens) Verify(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return j.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(j.now))
	if err != nil {
		return "", fmt.Errorf("could not parse token: %w", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.PassengerID == "" {
		return "", errors.New("invalid token")
	}

	return claims.PassengerID, nil
}
