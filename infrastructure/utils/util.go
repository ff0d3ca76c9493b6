package utils

import (
	"time"

	"github.com/golang-jwt/jwt"
	"social-hub/infrastructure/logger"
)

// GetCurrentTime is the single clock used for token issuance so the iat/exp
// pair always comes from the same instant.
func GetCurrentTime() time.Time {
	return time.Now().UTC()
}

// GenerateToken signs the payload as an HS256 JWT.
func GenerateToken(payload map[string]interface{}, secretKey string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims(payload))
	signed, err := token.SignedString([]byte(secretKey))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("signing token failed")
		return "", err
	}
	return signed, nil
}
