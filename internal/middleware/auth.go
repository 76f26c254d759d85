package middleware

import (
	"strings"

	"github.com/shroukgbr89/parallel/api"
	"github.com/shroukgbr89/parallel/pkg/jwt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	tokenPrefix = "Bearer "

	CtxKeyClient = "client" // 调用方上下文 key
)

// TokenParser 校验令牌，由 *jwt.JWT 实现
type TokenParser interface {
	ParseToken(tokenString string) (*jwt.CustomClaims, error)
}

// Auth 校验 Authorization: Bearer <token>
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		authorizationValue := c.GetHeader("Authorization")
		if len(authorizationValue) == 0 {
			api.ResponseError(c, api.CodeNeedLogin)
			c.Abort()
			return
		}
		if !strings.HasPrefix(authorizationValue, tokenPrefix) || len(authorizationValue) <= len(tokenPrefix) {
			api.ResponseError(c, api.CodeInvalidToken)
			c.Abort()
			return
		}
		tokenString := strings.TrimPrefix(authorizationValue, tokenPrefix)
		claims, err := parser.ParseToken(tokenString)
		if err != nil {
			zap.L().Sugar().Debugf("parse token error: %v", err)
			api.ResponseError(c, api.CodeInvalidToken)
			c.Abort()
			return
		}
		c.Set(CtxKeyClient, claims.Client)
		c.Next()
	}
}
