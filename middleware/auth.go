package middleware

import (
	"errors"
	"net/http"
	"strings"

	"qpgen/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type authClaims struct {
	UserID   uint   `json:"user_id"`
	UserType string `json:"user_type"`
	jwt.RegisteredClaims
}

// ParseToken validates a raw token string and returns the user id and role
// it carries. WebSocket upgrades pass the token as a query parameter, so
// they cannot go through AuthMiddleware.
func ParseToken(jwtSecret, tokenString string) (uint, string, error) {
	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return 0, "", err
	}
	if !token.Valid {
		return 0, "", errors.New("invalid token")
	}
	return claims.UserID, claims.UserType, nil
}

// AuthMiddleware validates the bearer token and stores the user's id and
// role on the request context.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
			return
		}

		userID, userType, err := ParseToken(jwtSecret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set("user_id", userID)
		c.Set("user_type", userType)
		c.Next()
	}
}

// RequireAdmin allows only admin users past this point.
func RequireAdmin() gin.HandlerFunc {
	return requireUserType(models.UserTypeAdmin)
}

// RequireFaculty allows only faculty users past this point.
func RequireFaculty() gin.HandlerFunc {
	return requireUserType(models.UserTypeFaculty)
}

func requireUserType(userType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("user_type")
		if !exists || value.(string) != userType {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}
