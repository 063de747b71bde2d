package middleware

import (
	"net/http"
	"strings"
	"time"

	"vestibox/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ClaimsKey = "claims"

// Roles accepted in tokens.
const (
	RolAdmin   = "admin"
	RolLectura = "lectura"
)

// JWTClaims are the custom claims embedded in every access token.
type JWTClaims struct {
	Operador string `json:"operador"`
	Rol      string `json:"rol"`
	jwt.RegisteredClaims
}

// GenerarToken signs an HS256 token for operador, valid for ttl.
func GenerarToken(secret, operador, rol string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Operador: operador,
		Rol:      rol,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operador,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// JWTAuth validates the Bearer token on every protected route.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.NewConCodigo(apierror.CodigoNoAutorizado, "Autenticacion requerida"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.NewConCodigo(apierror.CodigoNoAutorizado, "Token invalido o expirado"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// SoloLecturaGET lets "lectura" tokens through on GET/HEAD only.
func SoloLecturaGET() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || claims.Rol != RolLectura {
			c.Next()
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.NewConCodigo(apierror.CodigoNoAutorizado, "Permisos insuficientes"))
			return
		}
		c.Next()
	}
}

// GetClaims returns the typed claims, or nil when auth is disabled.
func GetClaims(c *gin.Context) *JWTClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*JWTClaims)
	return claims
}
