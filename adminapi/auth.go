// Package adminapi is the ambient HTTP/WebSocket operational surface:
// authenticated REST endpoints to resize and inspect a cluster.Controller,
// plus a WebSocket hub broadcasting its lifecycle and sensor events.
// Grounded throughout on the teacher's pkg/api and pkg/auth packages.
package adminapi

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Predefined roles, grounded on pkg/auth/jwt.go's RoleAdmin/RoleOperator/...
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleReadonly = "readonly"
)

// Predefined permissions, narrowed from pkg/auth/jwt.go's permission set to
// the ones this API actually checks.
const (
	PermissionClusterManage = "cluster:manage"
	PermissionClusterRead   = "cluster:read"
)

// RolePermissions returns the default permission set for a role.
func RolePermissions(role string) []string {
	switch role {
	case RoleAdmin:
		return []string{PermissionClusterManage, PermissionClusterRead}
	case RoleOperator:
		return []string{PermissionClusterRead}
	case RoleReadonly:
		return []string{PermissionClusterRead}
	default:
		return nil
	}
}

// Claims is the JWT claims structure issued for admin API sessions.
type Claims struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// HasPermission reports whether the claims grant permission.
func (c *Claims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// TokenPair is the pair of tokens returned at login.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"`
}

// JWTService issues and validates RS256 admin API tokens. Grounded on
// pkg/auth/jwt.go's JWTService: same RSA keypair, same RegisteredClaims
// embedding, same access/refresh pair shape.
type JWTService struct {
	privateKey    *rsa.PrivateKey
	publicKey     *rsa.PublicKey
	issuer        string
	expiration    time.Duration
	refreshExpiry time.Duration
}

// NewJWTService generates a fresh RSA keypair and builds a service issuing
// tokens with the given expiry (defaulted to 1h/7d when zero).
func NewJWTService(issuer string, expiration, refreshExpiry time.Duration) (*JWTService, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("adminapi: generate RSA key: %w", err)
	}
	if expiration <= 0 {
		expiration = time.Hour
	}
	if refreshExpiry <= 0 {
		refreshExpiry = 7 * 24 * time.Hour
	}
	if issuer == "" {
		issuer = "dynacluster"
	}
	return &JWTService{
		privateKey:    privateKey,
		publicKey:     &privateKey.PublicKey,
		issuer:        issuer,
		expiration:    expiration,
		refreshExpiry: refreshExpiry,
	}, nil
}

// GenerateToken issues a new access/refresh token pair for username/role.
func (j *JWTService) GenerateToken(username, role string) (*TokenPair, error) {
	now := time.Now()
	expiresAt := now.Add(j.expiration)

	claims := &Claims{
		Username:    username,
		Role:        role,
		Permissions: RolePermissions(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   username,
			Audience:  []string{"dynacluster"},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        fmt.Sprintf("%s_%d", username, now.Unix()),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(j.privateKey)
	if err != nil {
		return nil, fmt.Errorf("adminapi: sign access token: %w", err)
	}

	refreshClaims := &Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   username,
			Audience:  []string{"dynacluster-refresh"},
			ExpiresAt: jwt.NewNumericDate(now.Add(j.refreshExpiry)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        fmt.Sprintf("%s_refresh_%d", username, now.Unix()),
		},
	}
	refresh, err := jwt.NewWithClaims(jwt.SigningMethodRS256, refreshClaims).SignedString(j.privateKey)
	if err != nil {
		return nil, fmt.Errorf("adminapi: sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
	}, nil
}

// ValidateToken parses and validates an access or refresh token.
func (j *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("adminapi: parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("adminapi: invalid token claims")
	}
	return claims, nil
}

// RefreshToken mints a fresh access/refresh pair from a valid refresh token.
func (j *JWTService) RefreshToken(refreshTokenString string) (*TokenPair, error) {
	claims, err := j.ValidateToken(refreshTokenString)
	if err != nil {
		return nil, fmt.Errorf("adminapi: invalid refresh token: %w", err)
	}
	if len(claims.Audience) == 0 || claims.Audience[0] != "dynacluster-refresh" {
		return nil, errors.New("adminapi: not a refresh token")
	}
	return j.GenerateToken(claims.Username, claims.Role)
}

// HashPassword hashes an admin API key/password with bcrypt. Grounded on
// pkg/security/security.go's HashPassword.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("adminapi: password cannot be empty")
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("adminapi: hash password: %w", err)
	}
	return string(bytes), nil
}

// VerifyPassword checks password against its bcrypt hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
