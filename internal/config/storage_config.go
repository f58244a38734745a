package config

import "fmt"

// TokenStorageMode decides how issued tokens travel to the browser. A deployment
// picks exactly one.
type TokenStorageMode string

const (
	TokenStorageBody   TokenStorageMode = "body"
	TokenStorageCookie TokenStorageMode = "cookie"
)

type StorageConfig interface {
	GetTokenStorageMode() TokenStorageMode
	GetDatabasePath() string
	GetRedisURL() string
}

type Storage struct {
	TokenStorage string `env:"TOKEN_STORAGE" envDefault:"cookie"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/smartbill.db"`
	RedisURL     string `env:"REDIS_URL"`
}

var _ StorageConfig = Storage{}

func (s Storage) GetTokenStorageMode() TokenStorageMode {
	return TokenStorageMode(s.TokenStorage)
}

func (s Storage) GetDatabasePath() string {
	return s.DatabasePath
}

// GetRedisURL is optional; when empty the in-memory mark store is used
func (s Storage) GetRedisURL() string {
	return s.RedisURL
}

func (s Storage) validate() error {
	switch s.GetTokenStorageMode() {
	case TokenStorageBody, TokenStorageCookie:
		return nil
	}
	return fmt.Errorf("TOKEN_STORAGE must be %q or %q, got %q", TokenStorageBody, TokenStorageCookie, s.TokenStorage)
}
