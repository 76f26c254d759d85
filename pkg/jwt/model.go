package jwt

import "github.com/golang-jwt/jwt/v5"

// CustomClaims 调用方身份，内嵌 jwt.RegisteredClaims
// Client 记录签发给哪个前端或脚本，用于日志追踪
type CustomClaims struct {
	Client string `json:"client"`
	jwt.RegisteredClaims
}
