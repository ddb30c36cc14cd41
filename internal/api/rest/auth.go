package rest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"kind-match/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// Claims carries the caller identity. Subject is the numeric user id.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for userID.
func IssueToken(secret string, userID int64, role models.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// JWTAuth rejects requests without a valid HMAC-signed bearer token.
func JWTAuth(secret string) gin.HandlerFunc {
	key := []byte(secret)

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abort(c, fmt.Errorf("no bearer token: %w", models.ErrNotAuthenticated))
			return
		}

		var claims Claims
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), &claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			abort(c, fmt.Errorf("invalid token: %w", models.ErrNotAuthenticated))
			return
		}

		userID, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil || userID == 0 {
			abort(c, fmt.Errorf("invalid subject: %w", models.ErrNotAuthenticated))
			return
		}
		if !claims.Role.Valid() {
			abort(c, fmt.Errorf("invalid role: %w", models.ErrNotAuthenticated))
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// RequireRole lets only the given roles through.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := roleOf(c)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		abort(c, fmt.Errorf("role %q: %w", role, errForbidden))
	}
}

func userOf(c *gin.Context) int64 {
	return c.GetInt64(ctxUserID)
}

func roleOf(c *gin.Context) models.Role {
	role, _ := c.Get(ctxRole)
	r, _ := role.(models.Role)
	return r
}
