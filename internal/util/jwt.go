package util

import (
	"errors"
	"time"

	"crowdfund-backend/config"

	"github.com/dgrijalva/jwt-go"
)

// GenerateToken 签发携带 user_id 与 role 的访问令牌
func GenerateToken(userID int, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour * 24 * 7).Unix(),
	})

	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// ValidateToken 校验令牌并解析出 user_id 与 role
func ValidateToken(tokenString string) (int, string, error) {
	if tokenString == "" {
		return 0, "", errors.New("令牌为空")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil {
		return 0, "", err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		userID, ok := claims["user_id"].(float64)
		if !ok {
			return 0, "", errors.New("无效的用户ID")
		}
		role, ok := claims["role"].(string)
		if !ok {
			return 0, "", errors.New("无效的用户角色")
		}
		return int(userID), role, nil
	}

	return 0, "", errors.New("无效的令牌")
}
