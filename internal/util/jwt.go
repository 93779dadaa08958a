package util

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ferdian3456/kinfeed/internal/constant"
	"github.com/ferdian3456/kinfeed/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	BearerPrefix        = "Bearer "
	TokenIssuer         = "github.com/ferdian3456/kinfeed"
	AccessTokenDuration = 15 * time.Minute
)

// GenerateAccessToken signs a token for userId. A zero ttl means AccessTokenDuration.
func GenerateAccessToken(userId uuid.UUID, jwtSecretKey string, ttl time.Duration) (string, error) {
	if jwtSecretKey == "" {
		return "", errors.New("jwt secret key is not configured")
	}

	if ttl <= 0 {
		ttl = AccessTokenDuration
	}

	now := time.Now().UTC()
	claims := &model.Claims{
		UserId: userId,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    TokenIssuer,
			Subject:   fmt.Sprintf("user:%s", userId.String()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(jwtSecretKey))
	if err != nil {
		return "", err
	}

	return signedToken, nil
}

var tokenParseErrors = []struct {
	err     error
	message string
}{
	{jwt.ErrTokenMalformed, "Authentication token is malformed"},
	{jwt.ErrTokenExpired, "Authentication token is expired"},
	{jwt.ErrTokenNotValidYet, "Authentication token is not valid yet"},
	{jwt.ErrTokenInvalidIssuer, "Authentication token has an unknown issuer"},
}

func unauthorized(message string) error {
	return model.NewValidationError(constant.ERR_UNATHORIZED_ERROR, message, "accessToken")
}

// ValidateAccessToken checks the Authorization header value and returns the raw token and its user.
// Only HS256 tokens issued by TokenIssuer with an expiry are accepted.
func ValidateAccessToken(authorization string, log *zap.Logger, jwtSecretKey string) (string, uuid.UUID, error) {
	if jwtSecretKey == "" {
		return "", uuid.Nil, errors.New("jwt secret key is not configured")
	}

	tokenString, err := extractBearerToken(authorization)
	if err != nil {
		return "", uuid.Nil, err
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
	)

	claims := &model.Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(jwtSecretKey), nil
	})
	if err != nil {
		log.Debug("access token rejected", zap.Error(err))
		return "", uuid.Nil, tokenParseError(err)
	}

	if !token.Valid || claims.UserId == uuid.Nil {
		return "", uuid.Nil, unauthorized("Authentication token is invalid")
	}

	return tokenString, claims.UserId, nil
}

func extractBearerToken(authorization string) (string, error) {
	if authorization == "" {
		return "", unauthorized("No authentication token is provided")
	}

	tokenString, found := strings.CutPrefix(authorization, BearerPrefix)
	if !found {
		return "", unauthorized("Authentication token format is not match")
	}

	if strings.TrimSpace(tokenString) == "" {
		return "", unauthorized("Authentication token is empty")
	}

	return tokenString, nil
}

func tokenParseError(err error) error {
	for _, candidate := range tokenParseErrors {
		if errors.Is(err, candidate.err) {
			return unauthorized(candidate.message)
		}
	}

	return unauthorized("Authentication token is invalid")
}

// HashToken hashes a token so it can be kept in redis without the raw value.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// TokenExpiresAt reads the exp claim of a token that was already validated.
func TokenExpiresAt(tokenString string) (time.Time, error) {
	claims := &model.Claims{}
	_, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
	if err != nil {
		return time.Time{}, err
	}

	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("token has no expiry")
	}

	return claims.ExpiresAt.Time, nil
}
