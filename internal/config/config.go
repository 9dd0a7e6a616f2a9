// Package config assembles the service configuration from defaults, an
// optional JSON file, the environment (with .env support) and command-line
// flags, in increasing order of priority, and validates the result.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	RunAddr             string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	LogLevel            string        `env:"LOG_LEVEL" validate:"loglevel"`
	DatabaseDSN         string        `env:"DATABASE_DSN"`
	DBFileName          string        `env:"FILE_STORAGE_PATH" validate:"omitempty,filepath"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT" validate:"gt=0"`
	MigrationsDir       string        `env:"MIGRATIONS_DIR"`
	JWTSecret           string        `env:"JWT_SECRET" validate:"required,min=32"`
	TokenLifetime       time.Duration `env:"TOKEN_LIFETIME" validate:"gt=0"`
	AuthCookieName      string        `env:"AUTH_COOKIE_NAME" validate:"required"`
	PasswordHashCost    int           `env:"PASSWORD_HASH_COST" validate:"min=4,max=31"`
	TrustedSubnet       string        `env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
	TrustProxyHeaders   bool          `env:"TRUST_PROXY_HEADERS"`
	ConfigFile          string        `env:"CONFIG"`
}

// fileConfig is the layout of the JSON configuration file.
type fileConfig struct {
	RunAddr             string `json:"server_address"`
	LogLevel            string `json:"log_level"`
	DatabaseDSN         string `json:"database_dsn"`
	DBFileName          string `json:"file_storage_path"`
	DBConnectionTimeout string `json:"db_connection_timeout"`
	MigrationsDir       string `json:"migrations_dir"`
	JWTSecret           string `json:"jwt_secret"`
	TokenLifetime       string `json:"token_lifetime"`
	AuthCookieName      string `json:"auth_cookie_name"`
	PasswordHashCost    int    `json:"password_hash_cost"`
	TrustedSubnet       string `json:"trusted_subnet"`
	TrustProxyHeaders   bool   `json:"trust_proxy_headers"`
}

var defaultConfig = Config{
	RunAddr:             ":8080",
	LogLevel:            "info",
	DatabaseDSN:         "",
	DBFileName:          "",
	DBConnectionTimeout: 10 * time.Second,
	MigrationsDir:       "cmd/bookmarks/migrations",
	TokenLifetime:       15 * time.Minute,
	AuthCookieName:      "access_token",
	PasswordHashCost:    6,
	TrustedSubnet:       "",
}

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("filepath", validateFilePath)
	if err != nil {
		return err
	}

	return validate.Struct(c)
}

func applyDefaults(values *Config, defaults Config) {
	*values = defaults
}

// merge copies every non-zero field of src over dst.
func merge(dst *Config, src Config) {
	if src.RunAddr != "" {
		dst.RunAddr = src.RunAddr
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.DatabaseDSN != "" {
		dst.DatabaseDSN = src.DatabaseDSN
	}
	if src.DBFileName != "" {
		dst.DBFileName = src.DBFileName
	}
	if src.DBConnectionTimeout != 0 {
		dst.DBConnectionTimeout = src.DBConnectionTimeout
	}
	if src.MigrationsDir != "" {
		dst.MigrationsDir = src.MigrationsDir
	}
	if src.JWTSecret != "" {
		dst.JWTSecret = src.JWTSecret
	}
	if src.TokenLifetime != 0 {
		dst.TokenLifetime = src.TokenLifetime
	}
	if src.AuthCookieName != "" {
		dst.AuthCookieName = src.AuthCookieName
	}
	if src.PasswordHashCost != 0 {
		dst.PasswordHashCost = src.PasswordHashCost
	}
	if src.TrustedSubnet != "" {
		dst.TrustedSubnet = src.TrustedSubnet
	}
	if src.TrustProxyHeaders {
		dst.TrustProxyHeaders = true
	}
	if src.ConfigFile != "" {
		dst.ConfigFile = src.ConfigFile
	}
}

func parseFlags() (Config, error) {
	var values Config

	flags := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flags.StringVar(&values.RunAddr, "a", "", "address and port to run server")
	flags.StringVar(&values.LogLevel, "l", "", "logger level")
	flags.StringVar(&values.DatabaseDSN, "d", "", "a string with the database connection details")
	flags.StringVar(&values.DBFileName, "f", "", "JSON file name with database")
	flags.StringVar(&values.MigrationsDir, "m", "", "directory with the database migrations")
	flags.StringVar(&values.JWTSecret, "s", "", "secret used to sign access tokens")
	flags.DurationVar(&values.TokenLifetime, "token-lifetime", 0, "lifetime of issued access tokens")
	flags.IntVar(&values.PasswordHashCost, "hash-cost", 0, "bcrypt cost for password hashes")
	flags.StringVar(&values.TrustedSubnet, "t", "", "trusted subnet (CIDR) allowed to read internal stats")
	flags.BoolVar(&values.TrustProxyHeaders, "trust-proxy", false, "take the client address from X-Real-IP / X-Forwarded-For")
	flags.StringVar(&values.ConfigFile, "c", "", "path to the JSON configuration file")
	flags.StringVar(&values.ConfigFile, "config", "", "path to the JSON configuration file")

	err := flags.Parse(os.Args[1:])

	return values, err
}

func parseJSONFile(fileName string) (Config, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return Config{}, err
	}

	var fromFile fileConfig
	if err := json.Unmarshal(data, &fromFile); err != nil {
		return Config{}, err
	}

	values := Config{
		RunAddr:          fromFile.RunAddr,
		LogLevel:         fromFile.LogLevel,
		DatabaseDSN:      fromFile.DatabaseDSN,
		DBFileName:       fromFile.DBFileName,
		MigrationsDir:    fromFile.MigrationsDir,
		JWTSecret:        fromFile.JWTSecret,
		AuthCookieName:   fromFile.AuthCookieName,
		PasswordHashCost: fromFile.PasswordHashCost,
		TrustedSubnet:    fromFile.TrustedSubnet,

		TrustProxyHeaders: fromFile.TrustProxyHeaders,
	}

	if fromFile.DBConnectionTimeout != "" {
		values.DBConnectionTimeout, err = time.ParseDuration(fromFile.DBConnectionTimeout)
		if err != nil {
			return Config{}, fmt.Errorf("db_connection_timeout: %w", err)
		}
	}

	if fromFile.TokenLifetime != "" {
		values.TokenLifetime, err = time.ParseDuration(fromFile.TokenLifetime)
		if err != nil {
			return Config{}, fmt.Errorf("token_lifetime: %w", err)
		}
	}

	return values, nil
}

// New builds the configuration. Priority, highest first:
// command-line flags, environment, JSON file, defaults.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Unable to load .env file: %v", err)
	}

	var valuesFromFlags Config
	if !options.disableFlagsParsing {
		valuesFromFlags, err = parseFlags()
		if err != nil {
			return nil, err
		}
	}

	var valuesFromEnv Config
	err = env.Parse(&valuesFromEnv)
	if err != nil {
		return nil, err
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	configFile := valuesFromFlags.ConfigFile
	if configFile == "" {
		configFile = valuesFromEnv.ConfigFile
	}
	if configFile != "" {
		valuesFromFile, err := parseJSONFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("in internal/config/config.go/New(): error while `parseJSONFile()` calling: %w", err)
		}
		merge(values, valuesFromFile)
	}

	merge(values, valuesFromEnv)
	merge(values, valuesFromFlags)

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}
