package config

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Configuration struct {
	Logs     LogsSettings     `mapstructure:"logs"`
	App      Application      `mapstructure:"app"`
	Database Database         `mapstructure:"database"`
	Queue    QueueConfig      `mapstructure:"queue"`
	Redis    Redis            `mapstructure:"redis"`
	Security SecuritySettings `mapstructure:"security"`
	Server   ServerSettings   `mapstructure:"server"`
	Session  SessionConfig    `mapstructure:"session"`
	Invite   InviteConfig     `mapstructure:"invite"`
	Geo      GeoConfig        `mapstructure:"geo"`
	Cache    CacheConfig      `mapstructure:"cache"`
}

type LogsSettings struct {
	Level            string `mapstructure:"level"`
	Path             string `mapstructure:"log-path"`
	EnableJSONOutput bool   `mapstructure:"enable-json-output"`
}

type Application struct {
	Name    string `mapstructure:"name"`
	Timeout int    `mapstructure:"timeout"`
	Version string `mapstructure:"version"`
}

type Database struct {
	Url              string `mapstructure:"url"`
	DbName           string `mapstructure:"dbname"`
	UserCollection   string `mapstructure:"user-collection"`
	InviteCollection string `mapstructure:"invite-collection"`
	Timeout          int    `mapstructure:"timeout"`
}

type QueueConfig struct {
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
}

type RabbitMQConfig struct {
	Url          string `mapstructure:"url"`
	Exchange     string `mapstructure:"exchange"`
	ExchangeType string `mapstructure:"exchange-type"`
	EmailQueue   string `mapstructure:"email-queue"`
	RoutingKey   string `mapstructure:"routing-key"`
	Timeout      int    `mapstructure:"timeout"`
	Durable      bool   `mapstructure:"durable"`
	AutoDelete   bool   `mapstructure:"auto-delete"`
	Internal     bool   `mapstructure:"internal"`
	NoWait       bool   `mapstructure:"no-wait"`
}

type Redis struct {
	Url          string `mapstructure:"url"`
	Password     string `mapstructure:"password"`
	Db           int    `mapstructure:"db"`
	DialTimeout  int    `mapstructure:"dial-timeout"`
	ReadTimeout  int    `mapstructure:"read-timeout"`
	WriteTimeout int    `mapstructure:"write-timeout"`
}

type SecuritySettings struct {
	JwtKey                string `mapstructure:"jwt-key"`
	BcryptCost            int    `mapstructure:"bcrypt-cost"`
	AccessTokenTTLMinutes int    `mapstructure:"access-token-ttl-minutes"`
}

type ServerSettings struct {
	Port         string `mapstructure:"port"`
	Mode         string `mapstructure:"mode"`
	ReadTimeout  int    `mapstructure:"read-timeout"`
	WriteTimeout int    `mapstructure:"write-timeout"`
	IdleTimeout  int    `mapstructure:"idle-timeout"`
}

type SessionConfig struct {
	TTLHours int `mapstructure:"ttl-hours"`
}

type InviteConfig struct {
	ExpiryHours    int    `mapstructure:"expiry-hours"`
	ActivationBase string `mapstructure:"activation-base"`
}

type GeoConfig struct {
	Url     string `mapstructure:"url"`
	Timeout int    `mapstructure:"timeout"`
	Enabled bool   `mapstructure:"enabled"`
}

type CacheConfig struct {
	StatsKey               string `mapstructure:"stats-key"`
	StatsExpirationMinutes int    `mapstructure:"stats-expiration-minutes"`
}

func Load() *Configuration {
	cfg := read()
	logrus.Info("Configuration loaded")

	// Override with environment variables
	mongoUri := os.Getenv("MONGODB_URL")
	if mongoUri != "" {
		cfg.Database.Url = mongoUri
	}

	dbName := os.Getenv("DB_NAME")
	if dbName != "" {
		cfg.Database.DbName = dbName
	}

	redisUrl := os.Getenv("REDIS_URL")
	if redisUrl != "" {
		cfg.Redis.Url = redisUrl
	}

	redisDB := os.Getenv("REDIS_DB")
	if redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			cfg.Redis.Db = db
		}
	}

	rabbitmqUrl := os.Getenv("RABBITMQ_URL")
	if rabbitmqUrl != "" {
		cfg.Queue.RabbitMQ.Url = rabbitmqUrl
	}

	jwtKey := os.Getenv("JWT_KEY")
	if jwtKey != "" {
		cfg.Security.JwtKey = jwtKey
	}

	activationBase := os.Getenv("ACTIVATION_BASE_URL")
	if activationBase != "" {
		cfg.Invite.ActivationBase = activationBase
	}

	return cfg
}

func read() *Configuration {
	viper.SetConfigFile("src/internal/config/cfg.yml")
	viper.AutomaticEnv()
	viper.SetConfigType("yml")

	var config Configuration

	err := viper.ReadInConfig()
	if err != nil {
		logrus.Panicf("Error reading config file, %s", err)
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		logrus.Panicf("Error unmarshalling config file, %s", err)
	}

	return &config
}
