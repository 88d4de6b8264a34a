// Package auth resolves the acting account from a bearer token. The
// listing engine trusts the resolved account id unconditionally;
// session handling itself is an external concern.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const accountKey = "account_id"

// RequireAccount verifies the bearer token and stores the account id
// in the request context.
func RequireAccount(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseClaims(c, secret)
		if !ok {
			return
		}

		sub, _ := claims["sub"].(string)
		if sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no subject"})
			return
		}

		c.Set(accountKey, sub)
		c.Next()
	}
}

// RequireReviewer verifies the bearer token and additionally requires
// the reviewer role. Reviewers act on other accounts' listings.
func RequireReviewer(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseClaims(c, secret)
		if !ok {
			return
		}

		if !hasRole(claims, "reviewer") && !hasRole(claims, "admin") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "reviewer access only"})
			return
		}

		sub, _ := claims["sub"].(string)
		c.Set(accountKey, sub)
		c.Next()
	}
}

// CurrentAccount returns the account id resolved by the middleware.
func CurrentAccount(c *gin.Context) string {
	return c.GetString(accountKey)
}

func parseClaims(c *gin.Context, secret string) (jwt.MapClaims, bool) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no bearer token"})
		return nil, false
	}
	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid claims"})
		return nil, false
	}
	return claims, true
}

func hasRole(claims jwt.MapClaims, role string) bool {
	switch roles := claims["roles"].(type) {
	case []interface{}:
		for _, r := range roles {
			if s, ok := r.(string); ok && s == role {
				return true
			}
		}
	case []string:
		for _, s := range roles {
			if s == role {
				return true
			}
		}
	case string:
		return roles == role
	}
	return false
}
