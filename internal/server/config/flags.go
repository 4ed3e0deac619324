package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/registrar/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., "127.0.0.1:5000")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-L string   log level
//	-P          trust proxy headers for the client IP (-P=false turns it off)
//	-H string   directory host
//	-D string   directory administrative bind DN
//	-W string   directory administrative bind password
//	-B string   directory base DN
//	-i string   geolocation access token
//	-r string   redis URL for the geolocation cache
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Notes:
//   - args are first filtered to the flags recognized here using
//     flagx.FilterArgs, so -c/-config does not trip the parser.
//   - The token validity is given as an integer in minutes, matching
//     FASTAPI_TOKEN_EXPIRY_MINUTES.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{
		"-a", "-d", "-s", "-t", "-L", "-P", "-H", "-D", "-W", "-B", "-i", "-r", "-u", "-p", "-b", "-g", "-e",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	fs.StringVar(&config.LogLevel, "L", config.LogLevel, "log level")
	fs.BoolVar(&config.TrustProxyHeaders, "P", config.TrustProxyHeaders, "trust X-Forwarded-For and X-Real-IP")

	fs.StringVar(&config.LDAPHost, "H", config.LDAPHost, "directory host")
	fs.StringVar(&config.LDAPAdminDN, "D", config.LDAPAdminDN, "directory admin bind DN")
	fs.StringVar(&config.LDAPAdminPassword, "W", config.LDAPAdminPassword, "directory admin bind password")
	fs.StringVar(&config.LDAPBaseDN, "B", config.LDAPBaseDN, "directory base DN")

	fs.StringVar(&config.GeoToken, "i", config.GeoToken, "geolocation access token")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Only an explicit -t overrides; a file may carry sub-minute precision.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		}
	})
}
