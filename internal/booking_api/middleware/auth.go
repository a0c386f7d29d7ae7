package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/artisan-escrow-ledger/internal/domain/shared"
)

const (
	// PartyKey is the key used to store the authenticated party in the context
	PartyKey = "party"
)

// PartyClaims is the JWT payload issued by the identity collaborator
type PartyClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth verifies the bearer token and injects the authenticated party into
// the request context. The party id comes from the token subject; the role
// is re-validated against the known set, never trusted as-is.
func Auth(tokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Missing Authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "Invalid Authorization header")
			return
		}

		claims := &PartyClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(tokenSecret), nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "Invalid token")
			return
		}

		role, err := shared.ParseRole(claims.Role)
		if err != nil || claims.Subject == "" {
			abortUnauthorized(c, "Invalid token claims")
			return
		}

		c.Set(PartyKey, shared.Party{ID: claims.Subject, Role: role})
		c.Next()
	}
}

// GetParty retrieves the authenticated party from the gin context
func GetParty(c *gin.Context) (shared.Party, bool) {
	v, exists := c.Get(PartyKey)
	if !exists {
		return shared.Party{}, false
	}
	party, ok := v.(shared.Party)
	return party, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}
