package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{
			"-a", "0.0.0.0:8000", "-d", "db", "-s", "secret", "-t", "15", "-L", "debug", "-P",
			"-H", "ldap.local", "-D", "cn=admin", "-W", "pw", "-B", "dc=x",
			"-i", "tok", "-r", "redis://r:6379/0",
			"-u", "user", "-p", "password", "-b", "bucket", "-g", "us-west-1", "-e", "http://endpoint",
		}, expected: &Config{
			EndpointAddrHTTP:            "0.0.0.0:8000",
			DatabaseDSN:                 "db",
			SecretKey:                   "secret",
			AccessTokenValidityDuration: 15 * time.Minute,
			LogLevel:                    "debug",
			TrustProxyHeaders:           true,
			LDAPHost:                    "ldap.local",
			LDAPAdminDN:                 "cn=admin",
			LDAPAdminPassword:           "pw",
			LDAPBaseDN:                  "dc=x",
			GeoToken:                    "tok",
			RedisURL:                    "redis://r:6379/0",
			S3RootUser:                  "user",
			S3RootPassword:              "password",
			S3Bucket:                    "bucket",
			S3Region:                    "us-west-1",
			S3BaseEndpoint:              "http://endpoint",
		}},
		{name: "config flag is ignored", args: []string{"-c", "cfg.yaml", "-a", ":9000"},
			expected: &Config{EndpointAddrHTTP: ":9000"}},
		{name: "bad int panics", args: []string{"-t", "soon"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config, tt.args) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config, tt.args) })
			}
		})
	}
}

func TestParseFlags_KeepsSubMinuteTTLWithoutFlag(t *testing.T) {
	config := &Config{AccessTokenValidityDuration: 90 * time.Second}
	parseFlags(config, []string{"-a", ":1"})
	assert.Equal(t, 90*time.Second, config.AccessTokenValidityDuration)
}
