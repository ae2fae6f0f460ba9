package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
	}

	// CMSConfig holds the settings of the headless CMS every record lives in.
	CMSConfig struct {
		URL        string
		APIToken   string
		JWTSecret  string // verifies CMS-issued session tokens locally when set
		Timeout    time.Duration
		RetryCount int
	}

	SessionConfig struct {
		CookieName string
		MaxAge     time.Duration
	}

	Config struct {
		Debug            bool
		TestMode         bool
		Env              string
		AppName          string
		Build            string
		WorkDir          string
		TimeZone         *time.Location
		FrontendBaseURL  string
		DefaultFromEmail string
		SendgridApiKey   string
		RollbarToken     string
		ResolverCacheTTL time.Duration

		Server  ServerConfig
		CMS     CMSConfig
		Session SessionConfig
	}
)

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Study Tracker")
	conf.SetDefault("build", "develop")
	conf.SetDefault("timezone", "UTC")
	conf.SetDefault("frontendBaseURL", "http://localhost:3000")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("resolver.cacheTTL", 5*time.Minute)

	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.address", ":8000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.readTimeout", 5*time.Second)
	conf.SetDefault("server.writeTimeout", 15*time.Second)
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)

	conf.SetDefault("cms.url", "http://localhost:1337")
	conf.SetDefault("cms.apiToken", "")
	conf.SetDefault("cms.jwtSecret", "")
	conf.SetDefault("cms.timeout", 10*time.Second)
	conf.SetDefault("cms.retryCount", 2)

	conf.SetDefault("session.cookieName", "jwt")
	conf.SetDefault("session.maxAge", 7*24*time.Hour)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	tz, err := time.LoadLocation(conf.GetString("timezone"))
	if err != nil {
		log.Fatalf("config.time.LoadLocation(%s): %v", conf.GetString("timezone"), err)
	}

	return &Config{
		Debug:            conf.GetBool("debug"),
		TestMode:         conf.GetBool("testMode"),
		Env:              env,
		AppName:          conf.GetString("appName"),
		Build:            conf.GetString("build"),
		WorkDir:          wd,
		TimeZone:         tz,
		FrontendBaseURL:  strings.TrimRight(conf.GetString("frontendBaseURL"), "/"),
		DefaultFromEmail: conf.GetString("defaultFromEmail"),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		RollbarToken:     conf.GetString("rollbarToken"),
		ResolverCacheTTL: conf.GetDuration("resolver.cacheTTL"),
		Server: ServerConfig{
			Host:            conf.GetString("server.host"),
			Address:         conf.GetString("server.address"),
			DebugHost:       conf.GetString("server.debugHost"),
			ReadTimeout:     conf.GetDuration("server.readTimeout"),
			WriteTimeout:    conf.GetDuration("server.writeTimeout"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
		},
		CMS: CMSConfig{
			URL:        strings.TrimRight(conf.GetString("cms.url"), "/"),
			APIToken:   conf.GetString("cms.apiToken"),
			JWTSecret:  conf.GetString("cms.jwtSecret"),
			Timeout:    conf.GetDuration("cms.timeout"),
			RetryCount: conf.GetInt("cms.retryCount"),
		},
		Session: SessionConfig{
			CookieName: conf.GetString("session.cookieName"),
			MaxAge:     conf.GetDuration("session.maxAge"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests: no .env lookup, no real services.
func NewTestConfig() *Config {
	return &Config{
		Debug:            false,
		TestMode:         true,
		Env:              "TEST",
		AppName:          "Study Tracker",
		Build:            "test",
		TimeZone:         time.UTC,
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: "noreply@studytracker.test",
		ResolverCacheTTL: 5 * time.Minute,
		Server: ServerConfig{
			Host:            "localhost",
			ShutdownTimeout: time.Second,
		},
		CMS: CMSConfig{
			JWTSecret: "test-secret",
			Timeout:   5 * time.Second,
		},
		Session: SessionConfig{
			CookieName: "jwt",
			MaxAge:     7 * 24 * time.Hour,
		},
	}
}

// DefaultFrom parses DefaultFromEmail, falling back to a bare address.
func (c *Config) DefaultFrom() mail.Address {
	if addr, err := mail.ParseAddress(c.DefaultFromEmail); err == nil {
		return *addr
	}
	return mail.Address{Name: c.AppName, Address: c.DefaultFromEmail}
}

// CMSConfigured reports whether a CMS base URL is set.
func (c *Config) CMSConfigured() bool {
	return c.CMS.URL != ""
}
