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
		Host                      string
		Addr                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	AdminConfig struct {
		Username string
		Password string
	}

	GoogleConfig struct {
		CredentialsFile string
		SheetID         string
		SheetRange      string
		DriveFolderID   string
	}

	SubmissionConfig struct {
		StageTimeout  time.Duration
		MaxUploadSize int64
	}

	Config struct {
		AppName         string
		Env             string
		Debug           bool
		TestMode        bool
		Build           string
		SecretKey       string
		FrontendBaseURL string
		WorkDir         string
		SupportEmail    string
		SendgridApiKey  string
		RollbarToken    string

		defaultFromEmail string

		Server     ServerConfig
		Database   DatabaseConfig
		Admin      AdminConfig
		Google     GoogleConfig
		Submission SubmissionConfig
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
}

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "She Leads Africa")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "x3p(vn$a8u+qvy#_h&0-e^2m4=wz9!c5j7r1s6t@dk*fgl%b)o")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@sheleadsafrica.org")
	v.SetDefault("supportEmail", "support@sheleadsafrica.org")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddr", ":8000")
	v.SetDefault("serverDebugHost", "localhost:4000")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 24*time.Hour)
	v.SetDefault("jwtRefreshExpirationDelta", 4*time.Hour)
	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbName", "intake")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("googleSheetRange", "Sheet1!A:AH")
	v.SetDefault("stageTimeout", 15*time.Second)
	v.SetDefault("maxUploadSize", int64(5<<20))

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		AppName:          v.GetString("appName"),
		Env:              env,
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Build:            v.GetString("build"),
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		WorkDir:          wd,
		SupportEmail:     v.GetString("supportEmail"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		defaultFromEmail: v.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Host:                      v.GetString("serverHost"),
			Addr:                      v.GetString("serverAddr"),
			DebugHost:                 v.GetString("serverDebugHost"),
			ShutdownTimeout:           v.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Name:          v.GetString("dbName"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetString("dbPort"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
		},
		Admin: AdminConfig{
			Username: v.GetString("adminUsername"),
			Password: v.GetString("adminPassword"),
		},
		Google: GoogleConfig{
			CredentialsFile: v.GetString("googleCredentialsFile"),
			SheetID:         v.GetString("googleSheetID"),
			SheetRange:      v.GetString("googleSheetRange"),
			DriveFolderID:   v.GetString("googleDriveFolderID"),
		},
		Submission: SubmissionConfig{
			StageTimeout:  v.GetDuration("stageTimeout"),
			MaxUploadSize: v.GetInt64("maxUploadSize"),
		},
	}
}
