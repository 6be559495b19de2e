package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sellspay/settlements-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	SellerID *uuid.UUID
	Role     enums.MemberRole
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID   uuid.UUID        `json:"user_id"`
	SellerID *uuid.UUID       `json:"seller_id,omitempty"`
	Role     enums.MemberRole `json:"role"`
	jwt.RegisteredClaims
}
