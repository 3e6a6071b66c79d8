package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	envPort                  = "PORT"
	envServerReadTimeout     = "SERVER_READ_TIMEOUT"
	envServerWriteTimeout    = "SERVER_WRITE_TIMEOUT"
	envServerShutdownTimeout = "SERVER_SHUTDOWN_TIMEOUT"
	envDBHost                = "DB_HOST"
	envDBPort                = "DB_PORT"
	envDBName                = "DB_NAME"
	envDBUser                = "DB_USER"
	envDBPassword            = "DB_PASSWORD"
	envDBSSLMode             = "DB_SSL_MODE"
	envDBMaxConns            = "DB_MAX_CONNS"
	envDBMinConns            = "DB_MIN_CONNS"
	envAWSRegion             = "REGION"
	envAWSAccessKeyID        = "AWS_ACCESS_KEY_ID"
	envAWSSecretAccessKey    = "AWS_SECRET_ACCESS_KEY"
	envS3Bucket              = "S3_BUCKET"
	envS3Endpoint            = "S3_ENDPOINT"
	envS3ForcePathStyle      = "S3_FORCE_PATH_STYLE"
	envJWTSecret             = "JWT_SECRET"
	envJWTAccessTTL          = "JWT_ACCESS_TTL_SECONDS"
	envJWTRefreshTTL         = "JWT_REFRESH_TTL_SECONDS"
	envJWTIssuer             = "JWT_ISSUER"
	envBcryptCost            = "BCRYPT_COST"
	envDownloadURLTimeLimit  = "DOWNLOAD_URL_TIME_LIMIT"
	envUploadChunkSize       = "UPLOAD_CHUNK_SIZE_BYTES"
	envMaxUploadSize         = "MAX_UPLOAD_SIZE"
	envPaginationPageSize    = "PAGINATION_PAGE_SIZE"
	envPaginationMaxPageSize = "PAGINATION_MAX_PAGE_SIZE"
	envLogLevel              = "LOG_LEVEL"
	envLogFormat             = "LOG_FORMAT"
	envEnablePprof           = "ENABLE_PPROF"
)

const (
	defaultServerPort         = "8080"
	defaultServerReadTimeout  = 30 * time.Second
	defaultServerWriteTimeout = 30 * time.Second
	defaultServerShutdown     = 10 * time.Second
	defaultDBHost             = "localhost"
	defaultDBPort             = 5432
	defaultDBName             = "board"
	defaultDBUser             = "board_app"
	defaultDBSSLMode          = "disable"
	defaultDBMaxConns         = 25
	defaultDBMinConns         = 5
	defaultJWTAccessTTL       = 86400 * time.Second
	defaultJWTRefreshTTL      = 604800 * time.Second
	defaultJWTIssuer          = "board-service"
	defaultBcryptCost         = 12
	defaultPresignedURLExpiry = 15 * time.Minute
	defaultUploadChunkSize    = int64(8 * 1024 * 1024)
	defaultMaxUploadSize      = int64(5 * 1024 * 1024 * 1024)
	defaultPageSize           = 20
	defaultMaxPageSize        = 100
	defaultLogLevel           = "info"
	defaultLogFormat          = "json"

	minJWTSecretLength       = 32
	minUniqueCharsInSecret   = 16
	minRepeatedCharThreshold = 4
	maxRepeatedChars         = 2
	minBcryptCost            = 4
	maxBcryptCost            = 31
	minUploadChunkSize       = int64(5 * 1024 * 1024)
	maxUploadChunkSize       = int64(5 * 1024 * 1024 * 1024)
)

const (
	errRequiredEnvNotSetFmt    = "required environment variable %s is not set"
	errJWTSecretMinLengthFmt   = "JWT_SECRET must be at least %d characters"
	errJWTSecretLowEntropy     = "JWT_SECRET has insufficient entropy (appears non-random). Use a cryptographically secure random string."
	errTTLNotPositiveFmt       = "%s must be a positive number of seconds"
	errBcryptCostRangeFmt      = "BCRYPT_COST must be between %d and %d"
	errChunkSizeRangeFmt       = "UPLOAD_CHUNK_SIZE_BYTES must be between %d and %d"
	errMaxUploadBelowChunk     = "MAX_UPLOAD_SIZE must not be smaller than UPLOAD_CHUNK_SIZE_BYTES"
	errPageSizeRange           = "PAGINATION_PAGE_SIZE must be positive and not exceed PAGINATION_MAX_PAGE_SIZE"
	errInvalidConfigurationFmt = "invalid configuration: %w"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	AWS           AWSConfig
	JWT           JWTConfig
	Auth          AuthConfig
	Upload        UploadConfig
	App           AppConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	MaxConns int
	MinConns int
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Endpoint        string
	ForcePathStyle  bool
}

type JWTConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
}

type AuthConfig struct {
	BcryptCost int
}

type UploadConfig struct {
	ChunkSize          int64
	MaxFileSize        int64
	PresignedURLExpiry time.Duration
}

type AppConfig struct {
	PageSize    int
	MaxPageSize int
}

type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	EnablePprof bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv(envPort, defaultServerPort),
			ReadTimeout:     getDurationEnv(envServerReadTimeout, defaultServerReadTimeout),
			WriteTimeout:    getDurationEnv(envServerWriteTimeout, defaultServerWriteTimeout),
			ShutdownTimeout: getDurationEnv(envServerShutdownTimeout, defaultServerShutdown),
		},
		Database: LoadDatabase(),
		AWS: AWSConfig{
			Region:          os.Getenv(envAWSRegion),
			AccessKeyID:     os.Getenv(envAWSAccessKeyID),
			SecretAccessKey: os.Getenv(envAWSSecretAccessKey),
			Bucket:          os.Getenv(envS3Bucket),
			Endpoint:        os.Getenv(envS3Endpoint),
			ForcePathStyle:  getBoolEnv(envS3ForcePathStyle, false),
		},
		JWT: JWTConfig{
			Secret:     os.Getenv(envJWTSecret),
			AccessTTL:  getSecondsEnv(envJWTAccessTTL, defaultJWTAccessTTL),
			RefreshTTL: getSecondsEnv(envJWTRefreshTTL, defaultJWTRefreshTTL),
			Issuer:     getEnv(envJWTIssuer, defaultJWTIssuer),
		},
		Auth: AuthConfig{
			BcryptCost: getIntEnv(envBcryptCost, defaultBcryptCost),
		},
		Upload: UploadConfig{
			ChunkSize:          getInt64Env(envUploadChunkSize, defaultUploadChunkSize),
			MaxFileSize:        getInt64Env(envMaxUploadSize, defaultMaxUploadSize),
			PresignedURLExpiry: getDurationEnv(envDownloadURLTimeLimit, defaultPresignedURLExpiry),
		},
		App: AppConfig{
			PageSize:    getIntEnv(envPaginationPageSize, defaultPageSize),
			MaxPageSize: getIntEnv(envPaginationMaxPageSize, defaultMaxPageSize),
		},
		Observability: ObservabilityConfig{
			LogLevel:    getEnv(envLogLevel, defaultLogLevel),
			LogFormat:   getEnv(envLogFormat, defaultLogFormat),
			EnablePprof: getBoolEnv(envEnablePprof, false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf(errInvalidConfigurationFmt, err)
	}

	return cfg, nil
}

// Validate reports the first problem found. Static AWS keys are optional; without
// them the SDK's default credential chain is used.
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{envPort, c.Server.Port},
		{envDBPassword, c.Database.Password},
		{envAWSRegion, c.AWS.Region},
		{envS3Bucket, c.AWS.Bucket},
		{envJWTSecret, c.JWT.Secret},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf(errRequiredEnvNotSetFmt, r.key)
		}
	}

	if len(c.JWT.Secret) < minJWTSecretLength {
		return fmt.Errorf(errJWTSecretMinLengthFmt, minJWTSecretLength)
	}

	if !hasMinimumEntropy(c.JWT.Secret) {
		return errors.New(errJWTSecretLowEntropy)
	}

	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf(errTTLNotPositiveFmt, envJWTAccessTTL)
	}

	if c.JWT.RefreshTTL <= 0 {
		return fmt.Errorf(errTTLNotPositiveFmt, envJWTRefreshTTL)
	}

	if c.Auth.BcryptCost < minBcryptCost || c.Auth.BcryptCost > maxBcryptCost {
		return fmt.Errorf(errBcryptCostRangeFmt, minBcryptCost, maxBcryptCost)
	}

	if c.Upload.ChunkSize < minUploadChunkSize || c.Upload.ChunkSize > maxUploadChunkSize {
		return fmt.Errorf(errChunkSizeRangeFmt, minUploadChunkSize, maxUploadChunkSize)
	}

	if c.Upload.MaxFileSize < c.Upload.ChunkSize {
		return errors.New(errMaxUploadBelowChunk)
	}

	if c.App.PageSize <= 0 || c.App.PageSize > c.App.MaxPageSize {
		return errors.New(errPageSizeRange)
	}

	return nil
}

func hasMinimumEntropy(secret string) bool {
	if len(secret) < minJWTSecretLength {
		return false
	}

	charCounts := make(map[rune]int)
	for _, char := range secret {
		charCounts[char]++
	}

	uniqueChars := len(charCounts)
	if uniqueChars < minUniqueCharsInSecret {
		return false
	}

	repeatedChars := 0
	for _, count := range charCounts {
		if count > len(secret)/minRepeatedCharThreshold {
			repeatedChars++
		}
	}

	return repeatedChars <= maxRepeatedChars
}

// LoadDatabase reads only the database section. Tools that need nothing else
// use it to avoid the full validation.
func LoadDatabase() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv(envDBHost, defaultDBHost),
		Port:     getIntEnv(envDBPort, defaultDBPort),
		Database: getEnv(envDBName, defaultDBName),
		User:     getEnv(envDBUser, defaultDBUser),
		Password: os.Getenv(envDBPassword),
		SSLMode:  getEnv(envDBSSLMode, defaultDBSSLMode),
		MaxConns: getIntEnv(envDBMaxConns, defaultDBMaxConns),
		MinConns: getIntEnv(envDBMinConns, defaultDBMinConns),
	}
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

// getSecondsEnv reads a whole number of seconds.
func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}
