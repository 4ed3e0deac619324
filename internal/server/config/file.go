package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/registrar/internal/flagx"
	"github.com/dmitrijs2005/registrar/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted. Pointer
// fields distinguish "absent" from "zero" so a partial file only overrides
// what it names.
type FileConfig struct {
	EndpointAddrHTTP   *string  `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	CORSAllowedOrigins []string `json:"cors_allowed_origins" yaml:"cors_allowed_origins"`
	TrustProxyHeaders  *bool    `json:"trust_proxy_headers" yaml:"trust_proxy_headers"`
	LogLevel           *string  `json:"log_level" yaml:"log_level"`
	DatabaseDSN        *string  `json:"database_dsn" yaml:"database_dsn"`

	SecretKey                   *string         `json:"secret_key" yaml:"secret_key"`
	SigningAlgorithm            *string         `json:"signing_algorithm" yaml:"signing_algorithm"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`

	LDAPHost          *string         `json:"ldap_host" yaml:"ldap_host"`
	LDAPPort          *int            `json:"ldap_port" yaml:"ldap_port"`
	LDAPCertDir       *string         `json:"ldap_cert_dir" yaml:"ldap_cert_dir"`
	LDAPCertName      *string         `json:"ldap_cert_name" yaml:"ldap_cert_name"`
	LDAPCAFile        *string         `json:"ldap_ca_file" yaml:"ldap_ca_file"`
	LDAPAdminDN       *string         `json:"ldap_admin_dn" yaml:"ldap_admin_dn"`
	LDAPAdminPassword *string         `json:"ldap_admin_password" yaml:"ldap_admin_password"`
	LDAPBaseDN        *string         `json:"ldap_base_dn" yaml:"ldap_base_dn"`
	LDAPUsersOU       *string         `json:"ldap_users_ou" yaml:"ldap_users_ou"`
	LDAPTimeout       *timex.Duration `json:"ldap_timeout" yaml:"ldap_timeout"`

	GeoBaseURL  *string         `json:"geo_base_url" yaml:"geo_base_url"`
	GeoToken    *string         `json:"geo_token" yaml:"geo_token"`
	GeoTimeout  *timex.Duration `json:"geo_timeout" yaml:"geo_timeout"`
	GeoCacheTTL *timex.Duration `json:"geo_cache_ttl" yaml:"geo_cache_ttl"`
	RedisURL    *string         `json:"redis_url" yaml:"redis_url"`

	S3RootUser     *string `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword *string `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket       *string `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region       *string `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint *string `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
}

// parseFile loads the file named by -c/-config (if any) into config.
// Files ending in .yaml or .yml are decoded as YAML, everything else as JSON.
// An unreadable or malformed file panics: the server must not start on a
// half-applied configuration.
func parseFile(config *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(config)
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	if fc.CORSAllowedOrigins != nil {
		c.CORSAllowedOrigins = fc.CORSAllowedOrigins
	}
	if fc.TrustProxyHeaders != nil {
		c.TrustProxyHeaders = *fc.TrustProxyHeaders
	}
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)

	setString(&c.SecretKey, fc.SecretKey)
	setString(&c.SigningAlgorithm, fc.SigningAlgorithm)
	setDuration(&c.AccessTokenValidityDuration, fc.AccessTokenValidityDuration)

	setString(&c.LDAPHost, fc.LDAPHost)
	if fc.LDAPPort != nil {
		c.LDAPPort = *fc.LDAPPort
	}
	setString(&c.LDAPCertDir, fc.LDAPCertDir)
	setString(&c.LDAPCertName, fc.LDAPCertName)
	setString(&c.LDAPCAFile, fc.LDAPCAFile)
	setString(&c.LDAPAdminDN, fc.LDAPAdminDN)
	setString(&c.LDAPAdminPassword, fc.LDAPAdminPassword)
	setString(&c.LDAPBaseDN, fc.LDAPBaseDN)
	setString(&c.LDAPUsersOU, fc.LDAPUsersOU)
	setDuration(&c.LDAPTimeout, fc.LDAPTimeout)

	setString(&c.GeoBaseURL, fc.GeoBaseURL)
	setString(&c.GeoToken, fc.GeoToken)
	setDuration(&c.GeoTimeout, fc.GeoTimeout)
	setDuration(&c.GeoCacheTTL, fc.GeoCacheTTL)
	setString(&c.RedisURL, fc.RedisURL)

	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
