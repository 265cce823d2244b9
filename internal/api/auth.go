package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ctxPlayerID = "player_id"

type claims struct {
	jwt.RegisteredClaims
}

// MintToken issues a bearer token for playerID. Session issuance proper lives
// outside this service; this is the minimal dev-mode issuer.
func MintToken(secret, playerID string, ttl time.Duration) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})

	return t.SignedString([]byte(secret))
}

// authMiddleware resolves the calling player from a Bearer header or, for
// websocket upgrades where headers are awkward, a token query parameter.
func authMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if h := c.GetHeader("Authorization"); h != "" {
			parts := strings.SplitN(h, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
				return
			}
			tokenString = parts[1]
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		var cl claims
		t, err := jwt.ParseWithClaims(tokenString, &cl, func(*jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !t.Valid || cl.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ctxPlayerID, cl.Subject)
		c.Next()
	}
}

func playerID(c *gin.Context) string {
	return c.GetString(ctxPlayerID)
}
