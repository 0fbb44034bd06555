package model

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are JWT claims scoping a bearer to one survey session
type SessionClaims struct {
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}
