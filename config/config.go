// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	configPath = pflag.String("config", ".", "Directory containing config.toml")

	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validStorageTypes = []string{"local", "s3", "r2"}
	validDBDrivers    = []string{"sqlite", "postgres"}
	validCacheTypes   = []string{"memory", "redis"}

	// Secrets shipped in example configs. Refused in production.
	knownSecrets = []string{"changeme", "secret", "dev-secret"}
)

const maxCodeTTL = 15 * time.Minute

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(*configPath)

	v.AutomaticEnv()

	bindEnvs()
	setDefaults()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); ok {
			return errors.New("config.toml file is missing")
		}

		return fmt.Errorf("failed to read config file, %w", err)
	}

	if err := validate(); err != nil {
		return err
	}

	v.Set("storage.max_avatar_size", v.GetInt64("storage.max_avatar_size")<<20)
	return nil
}

func bindEnvs() {
	v.BindEnv("app.name", "app_name")
	v.BindEnv("app.env", "app_env")
	v.BindEnv("app.log_level", "app_log_level")
	v.BindEnv("app.log_file", "app_log_file")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.domain", "host_domain")
	v.BindEnv("host.cors", "host_cors")

	v.BindEnv("host.ssl.enabled", "host_ssl_enabled")
	v.BindEnv("host.ssl.certificate_path", "host_ssl_certificate_path")
	v.BindEnv("host.ssl.certificate_key_path", "host_ssl_certificate_key_path")

	v.BindEnv("jwt.secret", "jwt_secret")
	v.BindEnv("jwt.session_ttl", "jwt_session_ttl")
	v.BindEnv("jwt.remember_ttl", "jwt_remember_ttl")

	v.BindEnv("auth.code_ttl", "auth_code_ttl")
	v.BindEnv("auth.max_attempts", "auth_max_attempts")
	v.BindEnv("auth.resend_cooldown", "auth_resend_cooldown")
	v.BindEnv("auth.max_resends", "auth_max_resends")
	v.BindEnv("auth.require_verified", "auth_require_verified")
	v.BindEnv("auth.unverified_ttl", "auth_unverified_ttl")
	v.BindEnv("auth.hash_concurrency", "auth_hash_concurrency")

	v.BindEnv("db.driver", "db_driver")
	v.BindEnv("db.dsn", "db_dsn")

	v.BindEnv("mail.enabled", "mail_enabled")
	v.BindEnv("mail.host", "mail_host")
	v.BindEnv("mail.port", "mail_port")
	v.BindEnv("mail.username", "mail_username")
	v.BindEnv("mail.password", "mail_password")
	v.BindEnv("mail.from", "mail_from")
	v.BindEnv("mail.queue_size", "mail_queue_size")
	v.BindEnv("mail.workers", "mail_workers")

	v.BindEnv("storage.type", "storage_type")
	v.BindEnv("storage.local_path", "storage_local_path")
	v.BindEnv("storage.max_avatar_size", "storage_max_avatar_size")

	v.BindEnv("aws.access_key_id", "aws_access_key_id")
	v.BindEnv("aws.secret_access_key", "aws_secret_access_key")
	v.BindEnv("aws.region", "aws_region")
	v.BindEnv("aws.bucket", "aws_bucket")
	v.BindEnv("aws.endpoint", "aws_endpoint")
	v.BindEnv("aws.public_url", "aws_public_url")

	v.BindEnv("cloudflare.account_id", "cloudflare_account_id")
	v.BindEnv("cloudflare.access_key_id", "cloudflare_access_key_id")
	v.BindEnv("cloudflare.secret_access_key", "cloudflare_secret_access_key")
	v.BindEnv("cloudflare.bucket", "cloudflare_bucket")
	v.BindEnv("cloudflare.public_url", "cloudflare_public_url")

	v.BindEnv("cloudflare.turnstile.enabled", "cloudflare_turnstile_enabled")
	v.BindEnv("cloudflare.turnstile.secret_token", "cloudflare_turnstile_secret_token")

	v.BindEnv("cache.type", "cache_type")
	v.BindEnv("redis.addr", "redis_addr")
	v.BindEnv("redis.password", "redis_password")
	v.BindEnv("redis.db", "redis_db")

	v.BindEnv("security.rate_limit", "security_rate_limit")

	v.BindEnv("cleanup.ledger_schedule", "cleanup_ledger_schedule")
	v.BindEnv("cleanup.account_schedule", "cleanup_account_schedule")

	v.BindEnv("metrics.enabled", "metrics_enabled")
}

func setDefaults() {
	v.SetDefault("app.name", "auth-api")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.cors", "http://localhost:3000")

	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("jwt.session_ttl", "24h")
	v.SetDefault("jwt.remember_ttl", "720h")

	v.SetDefault("auth.code_ttl", "10m")
	v.SetDefault("auth.max_attempts", 5)
	v.SetDefault("auth.resend_cooldown", "1m")
	v.SetDefault("auth.max_resends", 5)
	v.SetDefault("auth.require_verified", true)
	v.SetDefault("auth.unverified_ttl", "720h")
	v.SetDefault("auth.hash_concurrency", 4)

	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "auth.db")

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.queue_size", 100)
	v.SetDefault("mail.workers", 2)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "data")
	v.SetDefault("storage.max_avatar_size", 5)

	v.SetDefault("aws.region", "us-east-1")

	v.SetDefault("cloudflare.turnstile.enabled", false)

	v.SetDefault("cache.type", "memory")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("security.rate_limit", 10)

	v.SetDefault("cleanup.ledger_schedule", "@every 1h")
	v.SetDefault("cleanup.account_schedule", "@daily")

	v.SetDefault("metrics.enabled", true)
}

func validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetBool("host.ssl.enabled") {
		if v.GetString("host.ssl.certificate_path") == "" {
			return errors.New("no ssl certificate path provided")
		}

		if v.GetString("host.ssl.certificate_key_path") == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	secret := v.GetString("jwt.secret")
	if secret == "" {
		fmt.Println("WARNING: You haven't set a JWT secret. Please set it as an environment variable or in the config.toml file.\nA random one you can use:\n\n" + genSecret() + "\n")
		return errors.New("jwt.secret is missing")
	}

	if v.GetString("app.env") == "production" && (slices.Contains(knownSecrets, secret) || len(secret) < 32) {
		return errors.New("jwt.secret is too weak for production")
	}

	if v.GetDuration("jwt.session_ttl") <= 0 || v.GetDuration("jwt.remember_ttl") <= 0 {
		return errors.New("jwt token lifetimes must be positive")
	}

	if ttl := v.GetDuration("auth.code_ttl"); ttl <= 0 || ttl > maxCodeTTL {
		return fmt.Errorf("auth.code_ttl must be between 0 and %s", maxCodeTTL)
	}

	if v.GetInt("auth.max_attempts") <= 0 {
		return errors.New("auth.max_attempts must be bigger than 0")
	}

	if v.GetInt("auth.hash_concurrency") <= 0 {
		return errors.New("auth.hash_concurrency must be bigger than 0")
	}

	if !slices.Contains(validDBDrivers, v.GetString("db.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("db.dsn") == "" {
		return errors.New("db.dsn can't be empty")
	}

	if v.GetBool("mail.enabled") {
		if v.GetString("mail.host") == "" {
			return errors.New("mail host can't be empty")
		}
		if v.GetString("mail.from") == "" {
			return errors.New("mail sender address can't be empty")
		}
	} else if v.GetString("app.env") == "production" {
		return errors.New("mail.enabled must be true in production, codes would only reach the log")
	} else {
		fmt.Println("[WARNING]: Mail delivery is disabled. Verification codes will only be written to the log")
	}

	if v.GetInt("mail.queue_size") <= 0 || v.GetInt("mail.workers") <= 0 {
		return errors.New("mail queue size and workers must be bigger than 0")
	}

	switch v.GetString("storage.type") {
	case "local":
		if v.GetString("storage.local_path") == "" {
			return errors.New("local storage path can't be empty")
		}
	case "s3":
		if v.GetString("aws.bucket") == "" {
			return errors.New("bucket can't be empty")
		}
		if v.GetString("aws.region") == "" {
			return errors.New("region can't be empty")
		}
	case "r2":
		if v.GetString("cloudflare.account_id") == "" {
			return errors.New("account id can't be empty")
		}
		if v.GetString("cloudflare.access_key_id") == "" {
			return errors.New("account access id can't be empty")
		}
		if v.GetString("cloudflare.secret_access_key") == "" {
			return errors.New("secret access key can't be empty")
		}
		if v.GetString("cloudflare.bucket") == "" {
			return errors.New("bucket can't be empty")
		}
	}

	if !slices.Contains(validStorageTypes, v.GetString("storage.type")) {
		return errors.New("invalid storage type provided")
	}

	if v.GetInt("storage.max_avatar_size") <= 0 {
		return errors.New("max avatar size must be bigger than 0")
	}

	if !slices.Contains(validCacheTypes, v.GetString("cache.type")) {
		return errors.New("invalid cache type provided")
	}

	if v.GetInt("security.rate_limit") <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	if !v.GetBool("cloudflare.turnstile.enabled") {
		fmt.Println("[WARNING]: Cloudflare's turnstile is disabled. Some public endpoints won't be guarded against bots")
	} else {
		if v.GetString("cloudflare.turnstile.secret_token") == "" {
			return errors.New("turnstile secret token is missing")
		}
	}

	return nil
}
