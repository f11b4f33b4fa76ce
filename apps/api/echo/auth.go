package echoapi

import (
	"crypto/subtle"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/sheleads/intake/core"
)

const jwtContextKey = "adminToken"

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
	IsAdmin  bool   `json:"is_admin,omitempty"`
}

// appJWTConfig is the JWT auth middleware config for the admin console.
func appJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    jwtContextKey,
		Claims:        new(Claims),
	}
}

// GetAdminClaims builds the claims for an authenticated console session.
func GetAdminClaims(conf *core.Config) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   conf.Admin.Username,
			Audience:  "Admin Console",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: conf.Admin.Username,
		IsAdmin:  true,
	}
}

// authenticate compares the submitted credentials against the configured
// console account.
func authenticate(username, password string, conf *core.Config) (*Claims, error) {
	if conf.Admin.Username == "" || conf.Admin.Password == "" {
		return nil, errAuthenticationFailed
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(conf.Admin.Username)) == 1
	pwdOK := subtle.ConstantTimeCompare([]byte(password), []byte(conf.Admin.Password)) == 1
	if !(userOK && pwdOK) {
		return nil, errAuthenticationFailed
	}
	return GetAdminClaims(conf), nil
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims, conf *core.Config) (string, error) {
	cfg := appJWTConfig(conf)
	method := jwt.GetSigningMethod(cfg.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(cfg.SigningKey.([]byte))
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(jwtContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}
