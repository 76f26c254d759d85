package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const defaultIssuer = "parallel-bench"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySecret  = errors.New("jwt secret is empty")
)

type JWT struct {
	secret []byte        // 签名密钥
	expire time.Duration // 令牌有效期
	issuer string
}

// NewJWT 创建签发/校验器
func NewJWT(secret string, expire time.Duration) (*JWT, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if expire <= 0 {
		expire = 24 * time.Hour
	}
	return &JWT{secret: []byte(secret), expire: expire, issuer: defaultIssuer}, nil
}

// GenToken 签发令牌
func (j *JWT) GenToken(client string) (string, error) {
	now := time.Now()
	expiresAt := now.Add(j.expire)
	zap.L().Sugar().Debugf("-->签发 token，client: %s，过期时间：%v", client, expiresAt)
	claims := &CustomClaims{
		Client: client,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   client,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt), // 有效期
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret) // 签名
}

// ParseToken 解析并校验令牌
func (j *JWT) ParseToken(tokenString string) (*CustomClaims, error) {
	var claim CustomClaims
	token, err := jwt.ParseWithClaims(tokenString, &claim,
		func(token *jwt.Token) (interface{}, error) {
			return j.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.issuer),
	)
	if err != nil {
		return nil, err
	}

	if token.Valid { // 校验token
		return &claim, nil
	}
	return nil, ErrInvalidToken
}
