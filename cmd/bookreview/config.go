package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/vmaleev/bookreview/internal/logger"
)

const (
	defaultListenAddr          = "localhost:8000"
	defaultLoggingLevel        = logger.LevelInfo
	defaultEnvironment         = logger.EnvProduction
	defaultAccessTokenMinutes  = 15
	defaultRefreshTokenDays    = 7
	defaultMailPort            = 587
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secret key
	// Signing JWT tokens uses symmetric encryption, so this key is used for that purpose
	SecretKey string

	// Environment
	Environment string

	// Token lifetimes
	AccessTokenMinutes int
	RefreshTokenDays   int

	// Outgoing mail. Empty host disables sending
	MailHost      string
	MailPort      int
	MailUsername  string
	MailPassword  string
	MailFrom      string
	MailAdminAddr string

	// Object storage for cover images. Empty endpoint disables uploads
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:           defaultLoggingLevel,
		ListenAddr:         defaultListenAddr,
		Environment:        defaultEnvironment,
		AccessTokenMinutes: defaultAccessTokenMinutes,
		RefreshTokenDays:   defaultRefreshTokenDays,
		MailPort:           defaultMailPort,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setInt := func(o *int) func(value string) {
		return func(value string) {
			if parsed, err := strconv.Atoi(value); err == nil {
				*o = parsed
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":          setString(&c.ListenAddr),
		"DATABASE_URI":         setString(&c.DatabaseDSN),
		"SECRET_KEY":           setString(&c.SecretKey),
		"LOG_LEVEL":            setString(&c.LogLevel),
		"ENVIRONMENT":          setString(&c.Environment),
		"ACCESS_TOKEN_MINUTES": setInt(&c.AccessTokenMinutes),
		"REFRESH_TOKEN_DAYS":   setInt(&c.RefreshTokenDays),
		"MAIL_HOST":            setString(&c.MailHost),
		"MAIL_PORT":            setInt(&c.MailPort),
		"MAIL_USERNAME":        setString(&c.MailUsername),
		"MAIL_PASSWORD":        setString(&c.MailPassword),
		"MAIL_FROM":            setString(&c.MailFrom),
		"MAIL_ADMIN_ADDRESS":   setString(&c.MailAdminAddr),
		"S3_ENDPOINT":          setString(&c.S3Endpoint),
		"S3_REGION":            setString(&c.S3Region),
		"S3_BUCKET":            setString(&c.S3Bucket),
		"S3_ACCESS_KEY":        setString(&c.S3AccessKey),
		"S3_SECRET_KEY":        setString(&c.S3SecretKey),
		"S3_PUBLIC_URL":        setString(&c.S3PublicURL),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("bookreview", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.IntVar(&c.AccessTokenMinutes, "access-token-minutes", c.AccessTokenMinutes, "Access token lifetime in minutes")
	fs.IntVar(&c.RefreshTokenDays, "refresh-token-days", c.RefreshTokenDays, "Refresh token lifetime in days")

	return fs.Parse(args)
}

// Validate checks options that the service can't run without
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}
	if c.DatabaseDSN == "" {
		return errors.New("DATABASE_URI is required")
	}
	return nil
}
