// Package config provides configuration loading and validation for datashare.
//
// The package handles YAML configuration files, a .env file, environment
// variables, and CLI flags with automatic merging and validation using
// go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. .env in the working directory (never overrides a variable already set)
//  4. Environment variables (DATASHARE_ prefix)
//  5. CLI flags that were explicitly set
//
// # Usage
//
//	cfg, err := config.Load([]string{"config.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with DATASHARE_ prefix:
//   - server.port → DATASHARE_SERVER_PORT
//   - auth.jwt_secret → DATASHARE_AUTH_JWT_SECRET
//   - storage.secret_key → DATASHARE_STORAGE_SECRET_KEY
//
// # Configuration Structure
//
// The Config struct contains:
//   - Env: dev (colored logs) or prod (JSON logs)
//   - Server: port, public_url, timeouts, access_log
//   - Service: upload limit, presigned URL lifetimes, default share lifetime, cleanup timeout
//   - Database: type, DSN, and table names
//   - Storage: driver (s3, minio, local), bucket settings, local path and keys
//   - Auth: JWT secret, issuer and lifetime, cookie name and Secure flag, bcrypt cost
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
//
// Durations accept Go duration strings such as 30s or 10m.
package config
