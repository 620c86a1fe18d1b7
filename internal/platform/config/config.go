package config

import (
	"net/netip"
	"os"
	"strings"
	"time"
)

// StoreBackend selects the registry persistence implementation.
type StoreBackend string

const (
	StoreFile     StoreBackend = "file"
	StoreMemory   StoreBackend = "memory"
	StorePostgres StoreBackend = "postgres"
	StoreRedis    StoreBackend = "redis"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	Environment   string
	RegistryPath  string
	AdminsPath    string
	StoreBackend  StoreBackend
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string

	JWTSigningKey string
	AdminTokenTTL time.Duration

	// Bootstrap admin seeded into an empty roster at startup.
	BootstrapAdminName     string
	BootstrapAdminID       string
	BootstrapAdminPassword string

	TrustedProxies []netip.Prefix
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:          envOr("SIGIL_ADDR", ":3000"),
		Environment:   envOr("SIGIL_ENV", "development"),
		RegistryPath:  envOr("SIGIL_REGISTRY_PATH", "registry.json"),
		AdminsPath:    envOr("SIGIL_ADMINS_PATH", "admins.json"),
		StoreBackend:  StoreBackend(envOr("SIGIL_STORE", string(StoreFile))),
		DatabaseURL:   os.Getenv("SIGIL_DATABASE_URL"),
		RedisAddr:     envOr("SIGIL_REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("SIGIL_REDIS_PASSWORD"),
		JWTSigningKey: envOr("SIGIL_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AdminTokenTTL: 1 * time.Hour,

		BootstrapAdminName:     envOr("SIGIL_BOOTSTRAP_ADMIN_NAME", "Institution Admin"),
		BootstrapAdminID:       envOr("SIGIL_BOOTSTRAP_ADMIN_ID", "admin"),
		BootstrapAdminPassword: os.Getenv("SIGIL_BOOTSTRAP_ADMIN_PASSWORD"),
	}

	if ttl := os.Getenv("SIGIL_ADMIN_TOKEN_TTL"); ttl != "" {
		if duration, err := time.ParseDuration(ttl); err == nil {
			cfg.AdminTokenTTL = duration
		}
	}

	if proxies := os.Getenv("SIGIL_TRUSTED_PROXIES"); proxies != "" {
		for _, raw := range strings.Split(proxies, ",") {
			prefix, err := netip.ParsePrefix(strings.TrimSpace(raw))
			if err != nil {
				continue
			}
			cfg.TrustedProxies = append(cfg.TrustedProxies, prefix)
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
