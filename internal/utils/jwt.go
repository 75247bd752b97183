// internal/utils/jwt.go
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/nppdirect/pricing-backend/internal/models"
)

// JWTClaims carries the typed principal data; the auth middleware resolves
// it into a models.Principal exactly once per request.
type JWTClaims struct {
	UserID          string   `json:"user_id"`
	Username        string   `json:"username"`
	Capability      string   `json:"capability"`
	ManufacturerIDs []string `json:"manufacturer_ids,omitempty"`
	jwt.RegisteredClaims
}

var jwtSecret = []byte("your-secret-key-change-in-production")

func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

func GenerateJWT(p models.Principal, ttlHours int) (string, error) {
	manufacturerIDs := make([]string, 0, len(p.ManufacturerIDs))
	for _, id := range p.ManufacturerIDs {
		manufacturerIDs = append(manufacturerIDs, id.String())
	}

	claims := JWTClaims{
		UserID:          p.UserID.String(),
		Username:        p.Username,
		Capability:      string(p.Capability),
		ManufacturerIDs: manufacturerIDs,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(ttlHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "pricing-backend",
			Subject:   p.UserID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateJWT(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// PrincipalFromClaims converts validated claims into the typed principal.
func PrincipalFromClaims(claims *JWTClaims) (models.Principal, error) {
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return models.Principal{}, errors.New("invalid subject in token")
	}

	manufacturerIDs := make([]uuid.UUID, 0, len(claims.ManufacturerIDs))
	for _, raw := range claims.ManufacturerIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		manufacturerIDs = append(manufacturerIDs, id)
	}

	return models.Principal{
		UserID:          userID,
		Username:        claims.Username,
		Capability:      models.Capability(claims.Capability),
		ManufacturerIDs: manufacturerIDs,
	}, nil
}

func GenerateRefreshToken(userID uuid.UUID, ttlHours int) (string, error) {
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(ttlHours) * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		NotBefore: jwt.NewNumericDate(time.Now()),
		Issuer:    "pricing-backend",
		Subject:   userID.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateRefreshToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})

	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(*jwt.RegisteredClaims); ok && token.Valid {
		return claims.Subject, nil
	}

	return "", errors.New("invalid refresh token")
}
