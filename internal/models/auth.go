package models

import "github.com/golang-jwt/jwt/v5"

// UserRole gates which routes an operator may call.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	// RoleOperator may submit and edit requests but not manage batches.
	RoleOperator UserRole = "OPERATOR"
)

// JWTClaims is the access token payload. Tokens come from the identity
// provider; this service only needs to know who the operator is.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Role     UserRole `json:"role"`
	jwt.RegisteredClaims
}
