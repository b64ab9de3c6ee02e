package util

import (
	"errors"
	"time"

	"github.com/D3stinn3/HC/config"
	"github.com/dgrijalva/jwt-go"
)

func GenerateToken(userID int, isStaff bool) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  userID,
		"is_staff": isStaff,
		"exp":      time.Now().Add(time.Hour * 24).Unix(),
	})

	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// ValidateToken 解析令牌，返回用户ID和是否为员工
func ValidateToken(tokenString string) (int, bool, error) {
	if tokenString == "" {
		return 0, false, errors.New("令牌为空")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil {
		return 0, false, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		userID, ok := claims["user_id"].(float64)
		if !ok {
			return 0, false, errors.New("无效的用户ID")
		}
		isStaff, _ := claims["is_staff"].(bool)
		return int(userID), isStaff, nil
	}

	return 0, false, errors.New("无效的令牌")
}

// TokenRemainingLife 返回令牌剩余有效期，用于拉黑时设置 TTL
func TokenRemainingLife(tokenString string) time.Duration {
	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return 0
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return 0
	}
	remaining := time.Until(time.Unix(int64(exp), 0))
	if remaining < 0 {
		return 0
	}
	return remaining
}
