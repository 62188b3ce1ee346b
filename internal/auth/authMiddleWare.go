package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"sharednotes/internal/notes"
)

const identityKey = "identity"

// MiddleWare validates the provider-signed token and attaches the verified
// (id, email) pair to the request context. The domain trusts this pair
// completely and performs no further credential checks.
func MiddleWare(jwtKey []byte) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := ctx.GetHeader("Authorization")
		if tokenString == "" {
			ctx.JSON(http.StatusUnauthorized, gin.H{
				"message": "Authorization token is missing",
			})
			ctx.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(
			tokenString,
			claims,
			func(t *jwt.Token) (interface{}, error) {
				return jwtKey, nil
			},
		)
		if err != nil || !token.Valid || claims.ID == "" || claims.Email == "" {
			ctx.JSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid Authorization Token",
			})
			ctx.Abort()
			return
		}

		ctx.Set(identityKey, notes.Identity{ID: claims.ID, Email: claims.Email})
		ctx.Next()
	}
}

// CurrentIdentity returns the verified identity placed by MiddleWare.
func CurrentIdentity(ctx *gin.Context) notes.Identity {
	identity, _ := ctx.Get(identityKey)
	id, _ := identity.(notes.Identity)
	return id
}
