package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the only supported session token shape: {id, email, iat} plus the
// registered exp/jti. Nothing authorization-related is carried in the token;
// roles are re-read from the store on every request.
type Claims struct {
	jwt.RegisteredClaims

	UserID string `json:"id"`
	Email  string `json:"email"`
}
