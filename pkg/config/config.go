package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	AdminDatabase DatabaseConfig
	SiteDatabase  DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Storage       StorageConfig
	Ingest        IngestConfig
	Deploy        DeployConfig
	Schedule      ScheduleConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig maps mimetype main classes to on-disk bucket directories and
// tunes derived-artifact generation.
type StorageConfig struct {
	BaseDir       string
	Buckets       map[string]string
	ThumbSubDir   string
	ThumbSize     int
	ThumbFormat   string
	SiteImageSize int
}

// IngestConfig holds the ingest endpoint pre-shared key.
type IngestConfig struct {
	PresharedKey string
}

// DeployConfig describes the single remote deployment target.
type DeployConfig struct {
	Host           string
	Port           int
	User           string
	SSHHomeDir     string
	PrivateKeyPath string
	WebRoot        string
	ConnectTimeout time.Duration
}

// ScheduleConfig drives the cron triggers.
type ScheduleConfig struct {
	Enabled             bool
	PublishInterval     time.Duration
	ConsistencyInterval time.Duration
	ThumbSweepInterval  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.AdminDatabase = databaseConfig(v, "ADMIN_DB")
	cfg.SiteDatabase = databaseConfig(v, "SITE_DB")

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Storage = StorageConfig{
		BaseDir:       v.GetString("STORAGE_BASE_DIR"),
		Buckets:       bucketMap(v.GetString("STORAGE_BUCKETS")),
		ThumbSubDir:   v.GetString("STORAGE_THUMB_SUBDIR"),
		ThumbSize:     v.GetInt("STORAGE_THUMB_SIZE"),
		ThumbFormat:   v.GetString("STORAGE_THUMB_FORMAT"),
		SiteImageSize: v.GetInt("STORAGE_SITE_IMAGE_SIZE"),
	}

	cfg.Ingest = IngestConfig{
		PresharedKey: v.GetString("INGEST_PRESHARED_KEY"),
	}

	cfg.Deploy = DeployConfig{
		Host:           v.GetString("DEPLOY_SSH_HOST"),
		Port:           v.GetInt("DEPLOY_SSH_PORT"),
		User:           v.GetString("DEPLOY_SSH_USER"),
		SSHHomeDir:     v.GetString("DEPLOY_SSH_HOME_DIR"),
		PrivateKeyPath: v.GetString("DEPLOY_SSH_PRIVATE_KEY"),
		WebRoot:        v.GetString("DEPLOY_WEB_ROOT"),
		ConnectTimeout: parseDuration(v.GetString("DEPLOY_CONNECT_TIMEOUT"), 25*time.Second),
	}

	cfg.Schedule = ScheduleConfig{
		Enabled:             v.GetBool("ENABLE_SCHEDULES"),
		PublishInterval:     parseDuration(v.GetString("SCHEDULE_PUBLISH_INTERVAL"), 5*time.Minute),
		ConsistencyInterval: parseDuration(v.GetString("SCHEDULE_CONSISTENCY_INTERVAL"), time.Hour),
		ThumbSweepInterval:  parseDuration(v.GetString("SCHEDULE_THUMB_SWEEP_INTERVAL"), 6*time.Hour),
	}

	return cfg, nil
}

func databaseConfig(v *viper.Viper, prefix string) DatabaseConfig {
	return DatabaseConfig{
		Host:         v.GetString(prefix + "_HOST"),
		Port:         v.GetInt(prefix + "_PORT"),
		User:         v.GetString(prefix + "_USER"),
		Password:     v.GetString(prefix + "_PASSWORD"),
		Name:         v.GetString(prefix + "_NAME"),
		SSLMode:      v.GetString(prefix + "_SSL_MODE"),
		MaxOpenConns: v.GetInt(prefix + "_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt(prefix + "_MAX_IDLE_CONNS"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	for _, prefix := range []string{"ADMIN_DB", "SITE_DB"} {
		v.SetDefault(prefix+"_HOST", "localhost")
		v.SetDefault(prefix+"_PORT", 5432)
		v.SetDefault(prefix+"_USER", "postgres")
		v.SetDefault(prefix+"_PASSWORD", "postgres")
		v.SetDefault(prefix+"_SSL_MODE", "disable")
		v.SetDefault(prefix+"_MAX_OPEN_CONNS", 10)
		v.SetDefault(prefix+"_MAX_IDLE_CONNS", 5)
	}
	v.SetDefault("ADMIN_DB_NAME", "cms_admin")
	v.SetDefault("SITE_DB_NAME", "cms_site")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("STORAGE_BASE_DIR", "./files")
	v.SetDefault("STORAGE_BUCKETS", "image=image,video=video,audio=audio,application=document,other=other")
	v.SetDefault("STORAGE_THUMB_SUBDIR", ".thumb")
	v.SetDefault("STORAGE_THUMB_SIZE", 250)
	v.SetDefault("STORAGE_THUMB_FORMAT", "jpeg")
	v.SetDefault("STORAGE_SITE_IMAGE_SIZE", 1200)

	v.SetDefault("INGEST_PRESHARED_KEY", "")

	v.SetDefault("DEPLOY_SSH_HOST", "localhost")
	v.SetDefault("DEPLOY_SSH_PORT", 22)
	v.SetDefault("DEPLOY_SSH_USER", "deploy")
	v.SetDefault("DEPLOY_SSH_HOME_DIR", "")
	v.SetDefault("DEPLOY_SSH_PRIVATE_KEY", "")
	v.SetDefault("DEPLOY_WEB_ROOT", "/var/www/site")
	v.SetDefault("DEPLOY_CONNECT_TIMEOUT", "25s")

	v.SetDefault("ENABLE_SCHEDULES", false)
	v.SetDefault("SCHEDULE_PUBLISH_INTERVAL", "5m")
	v.SetDefault("SCHEDULE_CONSISTENCY_INTERVAL", "1h")
	v.SetDefault("SCHEDULE_THUMB_SWEEP_INTERVAL", "6h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// bucketMap parses "class=dir,class=dir" pairs into the storage bucket map.
func bucketMap(raw string) map[string]string {
	result := make(map[string]string)
	for _, pair := range splitAndTrim(raw) {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key != "" && value != "" {
			result[key] = value
		}
	}
	return result
}
