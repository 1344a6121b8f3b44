package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims — структура утверждений, которая включает стандартные утверждения и
// одно пользовательское SubjectID
type Claims struct {
	jwt.RegisteredClaims
	SubjectID string
}

func GenerateToken(subjectID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		SubjectID: subjectID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetSubjectIDFromToken verifies a bearer token and returns the subject id it
// carries. Expired tokens yield common.ErrTokenExpired; everything else that
// fails verification yields common.ErrInvalidToken.
func GetSubjectIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.SubjectID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.SubjectID, nil
}
