package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// lookupEnvFunc matches os.LookupEnv so tests can supply a map.
type lookupEnvFunc func(key string) (string, bool)

// parseEnv overlays values from environment variables. Variable names follow
// the deployment the service grew out of (FASTAPI_*, LDAP_*, POSTGRES_*).
// Malformed numeric values panic, as malformed config files do.
func parseEnv(config *Config, lookup lookupEnvFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	minutes := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				panic(fmt.Errorf("%s: %w", key, err))
			}
			*dst = time.Duration(n) * time.Minute
		}
	}

	str("HTTP_ADDR", &config.EndpointAddrHTTP)
	str("LOG_LEVEL", &config.LogLevel)
	if v, ok := lookup("CORS_ALLOWED_ORIGINS"); ok {
		config.CORSAllowedOrigins = splitList(v)
	}
	if v, ok := lookup("TRUST_PROXY_HEADERS"); ok {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			panic(fmt.Errorf("TRUST_PROXY_HEADERS: %w", err))
		}
		config.TrustProxyHeaders = trust
	}

	str("DATABASE_DSN", &config.DatabaseDSN)
	if dsn, ok := postgresDSN(lookup); ok {
		config.DatabaseDSN = dsn
	}

	str("FASTAPI_TOKEN_SECRET", &config.SecretKey)
	str("FASTAPI_TOKEN_ALGORITHM", &config.SigningAlgorithm)
	minutes("FASTAPI_TOKEN_EXPIRY_MINUTES", &config.AccessTokenValidityDuration)

	str("LDAP_HOST", &config.LDAPHost)
	if v, ok := lookup("LDAP_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			panic(fmt.Errorf("LDAP_PORT: %w", err))
		}
		config.LDAPPort = port
	}
	str("FASTAPI_LDAP_CERTS", &config.LDAPCertDir)
	str("FASTAPI_LDAP_CERT_NAME", &config.LDAPCertName)
	str("LDAP_CA_FILE", &config.LDAPCAFile)
	str("LDAP_ADMIN_DN", &config.LDAPAdminDN)
	str("LDAP_ADMIN_PASSWORD", &config.LDAPAdminPassword)
	str("LDAP_BASE_DN", &config.LDAPBaseDN)
	str("LDAP_USERS_OU", &config.LDAPUsersOU)

	str("IPINFO_URL", &config.GeoBaseURL)
	str("IPINFO_TOKEN", &config.GeoToken)
	str("REDIS_URL", &config.RedisURL)

	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
}

// postgresDSN assembles a DSN from the POSTGRES_* variables when
// POSTGRES_HOST is present.
func postgresDSN(lookup lookupEnvFunc) (string, bool) {
	host, ok := lookup("POSTGRES_HOST")
	if !ok {
		return "", false
	}
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(get("POSTGRES_USER", "postgres"), get("POSTGRES_PASSWORD", "")),
		Host:     net.JoinHostPort(host, get("POSTGRES_PORT", "5432")),
		Path:     "/" + get("POSTGRES_DB", "registrar"),
		RawQuery: "sslmode=" + get("POSTGRES_SSLMODE", "disable"),
	}
	return u.String(), true
}

func splitList(v string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
