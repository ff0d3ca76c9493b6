package configuration

import (
	"fmt"
	"os"
	"strconv"

	"social-hub/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	Database    Database    `json:"database"`
	App         App         `json:"app"`
	Pubsub      Pubsub      `json:"pubsub"`
	ServiceBus  ServiceBus  `json:"serviceBus"`
	RedisClient RedisClient `json:"redisClient"`
	OAuth       OAuth       `json:"oauth"`
	Publish     Publish     `json:"publish"`
	Engagement  Engagement  `json:"engagement"`
	Reddit      Reddit      `json:"reddit"`
}

type App struct {
	Port      int    `json:"port"`
	SecretKey string `json:"secretKey"`
}

type Database struct {
	Psql  Db `json:"psql"`
	Mssql Db `json:"mssql"`
	Mysql Db `json:"mysql"`
	Mongo Db `json:"mongo"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	Queue     string `json:"queue"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// OAuth holds third-party platform app credentials used for token refresh.
type OAuth struct {
	Twitter   OAuthClient `json:"twitter"`
	LinkedIn  OAuthClient `json:"linkedin"`
	Facebook  OAuthClient `json:"facebook"`
	Instagram OAuthClient `json:"instagram"`
	Reddit    OAuthClient `json:"reddit"`
}

type OAuthClient struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
	RedirectURI  string `json:"redirectURI"`
}

// Publish tunes the orchestrator: per-platform call timeout and the window
// before expiry in which a token is considered stale.
type Publish struct {
	TimeoutSeconds       int `json:"timeoutSeconds"`
	RefreshWindowMinutes int `json:"refreshWindowMinutes"`
}

// Engagement tunes the sync scheduler throttling. Tests shrink the delays
// to zero; production defaults respect third-party rate limits.
type Engagement struct {
	BatchSize           int `json:"batchSize"`
	CallDelayMs         int `json:"callDelayMs"`
	BatchDelayMs        int `json:"batchDelayMs"`
	SyncIntervalMinutes int `json:"syncIntervalMinutes"`
}

type Reddit struct {
	UserAgent        string `json:"userAgent"`
	DefaultSubreddit string `json:"defaultSubreddit"`
}

var C Config

func init() {
	LoadConfig()
	initDatabase(&C)
	initApp(&C)
	initDefaults(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	if C.Database.Psql.Name == "" {
		C.Database.Psql.Name = os.Getenv("DB_NAME")
	}
	if C.Database.Psql.Host == "" {
		C.Database.Psql.Host = os.Getenv("DB_HOST")
	}
	if C.Database.Psql.Password == "" {
		C.Database.Psql.Password = os.Getenv("DB_PASSWORD")
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = os.Getenv("DB_PORT")
	}
	if C.Database.Psql.User == "" {
		C.Database.Psql.User = os.Getenv("DB_USER")
	}

	// Optional MSSQL config via environment variables (for Azure SQL in production)
	if v := os.Getenv("MSSQL_DB_NAME"); v != "" && C.Database.Mssql.Name == "" {
		C.Database.Mssql.Name = v
	}
	if v := os.Getenv("MSSQL_HOST"); v != "" && C.Database.Mssql.Host == "" {
		C.Database.Mssql.Host = v
	}
	if v := os.Getenv("MSSQL_PASSWORD"); v != "" && C.Database.Mssql.Password == "" {
		C.Database.Mssql.Password = v
	}
	if v := os.Getenv("MSSQL_USER"); v != "" && C.Database.Mssql.User == "" {
		C.Database.Mssql.User = v
	}
	if C.Database.Mssql.Port == "" {
		if v := os.Getenv("MSSQL_PORT"); v != "" {
			C.Database.Mssql.Port = v
		} else {
			C.Database.Mssql.Port = "1433"
		}
	}
}

func initApp(C *Config) {
	// Prefer SECRET_KEY from environment for JWT verification; overrides config file when provided
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	// Port resolution order (env overrides config): APP_PORT -> PORT -> config -> default 10001
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; JWT authentication will fail. Provide SECRET_KEY via environment.")
	}
}

func initDefaults(C *Config) {
	if C.Publish.TimeoutSeconds == 0 {
		C.Publish.TimeoutSeconds = 30
	}
	if C.Publish.RefreshWindowMinutes == 0 {
		C.Publish.RefreshWindowMinutes = 5
	}
	if C.Engagement.BatchSize == 0 {
		C.Engagement.BatchSize = 3
	}
	if C.Engagement.CallDelayMs == 0 {
		C.Engagement.CallDelayMs = 500
	}
	if C.Engagement.BatchDelayMs == 0 {
		C.Engagement.BatchDelayMs = 2000
	}
	if C.Engagement.SyncIntervalMinutes == 0 {
		C.Engagement.SyncIntervalMinutes = 60
	}
	if C.Reddit.UserAgent == "" {
		C.Reddit.UserAgent = "social-hub/1.0 (multi-platform publisher)"
	}
	if C.Reddit.DefaultSubreddit == "" {
		C.Reddit.DefaultSubreddit = "test"
	}
}
