package jwt

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/itchan-dev/postfeed/shared/domain"
	internal_errors "github.com/itchan-dev/postfeed/shared/errors"
	"github.com/itchan-dev/postfeed/shared/logger"
)

type JwtService interface {
	NewToken(userId domain.UserId, role domain.Role) (string, error)
	DecodeSession(jwtStr string) (domain.Session, error)
}

// Claims mirror the tokens issued by the post service: subject is the user
// id, role is the account role.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type Jwt struct {
	secretKey string
	ttl       time.Duration
}

func New(secretKey string, ttl time.Duration) JwtService {
	return &Jwt{secretKey, ttl}
}

func (j *Jwt) NewToken(userId domain.UserId, role domain.Role) (string, error) {
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userId, 10),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(j.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		logger.Log.Error("cannot sign token", "error", err)
		return "", errors.New("Can't create token")
	}
	return tokenString, nil
}

// DecodeSession verifies jwtStr and turns its claims into a Session that
// carries the raw token for forwarding to the post service.
func (j *Jwt) DecodeSession(jwtStr string) (domain.Session, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(jwtStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		logger.Log.Debug("token rejected", "error", err)
		return domain.Session{}, &internal_errors.ErrorWithStatusCode{Message: "Invalid token signature", StatusCode: http.StatusUnauthorized}
	}
	if !token.Valid {
		return domain.Session{}, &internal_errors.ErrorWithStatusCode{Message: "Invalid access token", StatusCode: http.StatusUnauthorized}
	}

	uid, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return domain.Session{}, &internal_errors.ErrorWithStatusCode{Message: "Invalid token subject", StatusCode: http.StatusUnauthorized}
	}

	return domain.Session{Token: jwtStr, UserId: uid, Role: claims.Role}, nil
}
