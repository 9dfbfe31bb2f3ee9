package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/microblog/internal/logger"
)

const (
	defaultListenAddr   = "localhost:5000"
	defaultDatabaseDSN  = "sqlite://app.db"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
	defaultPostsPerPage = 25
	defaultMailPort     = 25
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the microblog will be run
	ListenAddr string

	// Database to connect to: 'postgres://...' or 'sqlite://<path>'
	DatabaseDSN string

	// Secret key
	// Session cookie is signed with it
	SecretKey string

	// Environment
	Environment string

	PostsPerPage int

	// Server errors are mailed to admins if mail server set
	MailServer   string
	MailPort     int
	MailUsername string
	MailPassword string
	Admins       []string

	// Server errors are sent to sentry if set
	SentryDSN string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:     defaultLoggingLevel,
		ListenAddr:   defaultListenAddr,
		DatabaseDSN:  defaultDatabaseDSN,
		Environment:  defaultEnvironment,
		PostsPerPage: defaultPostsPerPage,
		MailPort:     defaultMailPort,
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
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setInt := func(o *int) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			n, err := strconv.Atoi(value)
			if err != nil {
				return err
			}
			*o = n
			return nil
		}
	}
	setList := func(o *[]string) func(value string) error {
		return func(value string) error {
			if list := splitList(value); len(list) > 0 {
				*o = list
			}
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"RUN_ADDRESS":    setString(&c.ListenAddr),
		"DATABASE_URL":   setString(&c.DatabaseDSN),
		"SECRET_KEY":     setString(&c.SecretKey),
		"LOG_LEVEL":      setString(&c.LogLevel),
		"ENVIRONMENT":    setString(&c.Environment),
		"POSTS_PER_PAGE": setInt(&c.PostsPerPage),
		"MAIL_SERVER":    setString(&c.MailServer),
		"MAIL_PORT":      setInt(&c.MailPort),
		"MAIL_USERNAME":  setString(&c.MailUsername),
		"MAIL_PASSWORD":  setString(&c.MailPassword),
		"ADMINS":         setList(&c.Admins),
		"SENTRY_DSN":     setString(&c.SentryDSN),
	}

	var errs []error
	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}

	return errors.Join(errs...)
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("microblog", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string (postgres:// or sqlite://)")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.IntVarP(&c.PostsPerPage, "posts-per-page", "p", c.PostsPerPage, "Posts per page")
	fs.StringVar(&c.MailServer, "mail-server", c.MailServer, "SMTP server to mail errors to admins")
	fs.IntVar(&c.MailPort, "mail-port", c.MailPort, "SMTP server port")
	fs.StringSliceVar(&c.Admins, "admins", c.Admins, "Admin emails, comma separated")
	fs.StringVar(&c.SentryDSN, "sentry-dsn", c.SentryDSN, "Sentry DSN to send errors to")

	return fs.Parse(args)
}

func (c *Config) Validate() error {
	var errs []error

	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key must be set"))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database dsn must be set"))
	}
	if c.PostsPerPage < 1 {
		errs = append(errs, errors.New("posts per page must be positive"))
	}

	return errors.Join(errs...)
}

func splitList(value string) []string {
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}
