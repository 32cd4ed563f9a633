package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims carries the authenticated admin identity.
type JWTClaims struct {
	UserID int64  `json:"uid"`
	Nick   string `json:"nick"`
	jwt.RegisteredClaims
}
