package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env          string
	Debug        bool
	TestMode     bool
	AppName      string
	Build        string
	RollbarToken string

	API struct {
		BaseURL string
		Timeout time.Duration
	}

	Session struct {
		StorePath string
		Key       string
	}

	Server struct {
		Host            string
		Address         string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	Dashboard struct {
		RecentLimit int
	}

	Audit struct {
		PageSize int
	}
}

// NewConfig reads the configuration from the environment, after loading `config/.env.<env>` if it exists.
// ENV selects the environment (DEV (local; default), TEST, QA, PROD) and is used as the env var prefix.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "Tododesk")
	conf.SetDefault("build", "develop")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("api.baseURL", "http://localhost:8840")
	conf.SetDefault("api.timeout", time.Duration(0))
	conf.SetDefault("session.storePath", filepath.Join("data", "session.db"))
	conf.SetDefault("session.key", "auth-storage")
	conf.SetDefault("server.address", "127.0.0.1:8080")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.disableReqLogs", false)
	conf.SetDefault("dashboard.recentLimit", 5)
	conf.SetDefault("audit.pageSize", 50)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	c := &Config{
		Env:          env,
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		AppName:      conf.GetString("appName"),
		Build:        conf.GetString("build"),
		RollbarToken: conf.GetString("rollbarToken"),
	}
	c.API.BaseURL = strings.TrimRight(conf.GetString("api.baseURL"), "/")
	c.API.Timeout = conf.GetDuration("api.timeout")
	c.Session.StorePath = conf.GetString("session.storePath")
	c.Session.Key = conf.GetString("session.key")
	c.Server.Address = conf.GetString("server.address")
	c.Server.ShutdownTimeout = conf.GetDuration("server.shutdownTimeout")
	c.Server.DisableReqLogs = conf.GetBool("server.disableReqLogs")
	c.Dashboard.RecentLimit = conf.GetInt("dashboard.recentLimit")
	c.Audit.PageSize = conf.GetInt("audit.pageSize")

	if host, err := os.Hostname(); err == nil {
		c.Server.Host = host
	}
	return c
}
