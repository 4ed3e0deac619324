package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) lookupEnvFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestParseEnv(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	parseEnv(cfg, mapLookup(map[string]string{
		"FASTAPI_TOKEN_SECRET":         "s3cr3t",
		"FASTAPI_TOKEN_ALGORITHM":      "HS384",
		"FASTAPI_TOKEN_EXPIRY_MINUTES": "60",
		"LDAP_HOST":                    "openldap",
		"LDAP_PORT":                    "1636",
		"LDAP_BASE_DN":                 "dc=acme,dc=io",
		"FASTAPI_LDAP_CERTS":           "/run/certs",
		"FASTAPI_LDAP_CERT_NAME":       "backend",
		"IPINFO_TOKEN":                 "abc",
		"CORS_ALLOWED_ORIGINS":         "https://a.example, ,https://b.example",
		"POSTGRES_HOST":                "db",
		"POSTGRES_USER":                "reg",
		"POSTGRES_PASSWORD":            "p@ss",
		"POSTGRES_DB":                  "users",
		"TRUST_PROXY_HEADERS":          "true",
	}))

	assert.Equal(t, "s3cr3t", cfg.SecretKey)
	assert.Equal(t, "HS384", cfg.SigningAlgorithm)
	assert.Equal(t, time.Hour, cfg.AccessTokenValidityDuration)
	assert.Equal(t, "openldap", cfg.LDAPHost)
	assert.Equal(t, 1636, cfg.LDAPPort)
	assert.Equal(t, "dc=acme,dc=io", cfg.LDAPBaseDN)
	assert.Equal(t, "/run/certs", cfg.LDAPCertDir)
	assert.Equal(t, "backend", cfg.LDAPCertName)
	assert.Equal(t, "abc", cfg.GeoToken)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "postgres://reg:p%40ss@db:5432/users?sslmode=disable", cfg.DatabaseDSN)
	assert.True(t, cfg.TrustProxyHeaders)
}

func TestParseEnv_BadTrustProxyHeadersPanics(t *testing.T) {
	cfg := &Config{}
	require.Panics(t, func() {
		parseEnv(cfg, mapLookup(map[string]string{"TRUST_PROXY_HEADERS": "sometimes"}))
	})
}

func TestParseEnv_NothingSet(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg, mapLookup(nil))

	var d Config
	d.LoadDefaults()
	assert.Equal(t, d, *cfg)
}

func TestParseEnv_BadMinutesPanics(t *testing.T) {
	require.Panics(t, func() {
		parseEnv(&Config{}, mapLookup(map[string]string{"FASTAPI_TOKEN_EXPIRY_MINUTES": "thirty"}))
	})
}
