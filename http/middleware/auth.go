package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/cutroom/cutroom-media-service/config"
	"github.com/cutroom/cutroom-media-service/utils"
)

// AuthMiddleware verifies the access token and injects tenant_id and user_id
// into the request context for the controllers.
func AuthMiddleware(cfg *config.EnvConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := utils.ExtractToken(c)
		if tokenString == "" {
			utils.JSON401(c, "Unauthorized: missing access token")
			c.Abort()
			return
		}

		token, err := utils.ParseToken(tokenString, cfg)
		if err != nil || !token.Valid {
			utils.JSON401(c, "Unauthorized: invalid access token")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			utils.JSON401(c, "Unauthorized: invalid token claims")
			c.Abort()
			return
		}

		if err := utils.InjectClaimsToContext(c, claims); err != nil {
			utils.JSON401(c, "Unauthorized: "+err.Error())
			c.Abort()
			return
		}

		c.Next()
	}
}
