// Package auth issues and verifies session tokens and provides the
// HTTP middleware that enforces them.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/incidia/backend/internal/models"
)

// TokenTTL is the session token validity window.
const TokenTTL = 8 * time.Hour

// Claims is the identity a verified token asserts: who, which role,
// and which tenant. CompanyID is nil for global admins.
type Claims struct {
	UserID    uuid.UUID
	Role      models.Role
	CompanyID *uuid.UUID
}

// IssueToken signs an HS256 JWT for the user with the standard 8 hour
// expiry. The claim set carries the subject, role and company.
func IssueToken(secret string, user *models.User) (string, time.Time, error) {
	exp := time.Now().UTC().Add(TokenTTL)
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": string(user.Role),
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	if user.CompanyID != nil {
		claims["company_id"] = user.CompanyID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// VerifyToken parses and validates a token string and returns the
// claims it asserts. It is a pure function: no storage lookups.
func VerifyToken(secret, raw string) (*Claims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims")
	}
	sub, _ := mc["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("invalid subject")
	}
	role, _ := mc["role"].(string)
	if role == "" {
		return nil, fmt.Errorf("missing role")
	}

	claims := &Claims{UserID: userID, Role: models.Role(role)}
	if raw, ok := mc["company_id"].(string); ok && raw != "" {
		companyID, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid company claim")
		}
		claims.CompanyID = &companyID
	}
	return claims, nil
}
