package common

import (
	"fmt"
	"os"
	"time"

	"github.com/wildobs/submission-services/constants"
	"github.com/wildobs/submission-services/util"
	"github.com/op/go-logging"
	"github.com/spf13/viper"
)

type S3Credentials struct {
	Host      string
	KeyID     string
	SecretKey string
}

type Config struct {
	ArchiveBucket    string
	BaseWorkingDir   string
	ConfigName       string
	LogDir           string
	LogLevel         logging.Level
	MaxFileSize      int64
	NsqLookupd       string
	NsqURL           string
	PostgresDSN      string
	QueueInterval    time.Duration
	QueueMaxAge      time.Duration
	RedisDefaultDB   int
	RedisPassword    string
	RedisRetries     int
	RedisRetryMs     time.Duration
	RedisURL         string
	S3Credentials    map[string]S3Credentials
	SubmissionBucket string
}

var logLevels = map[string]logging.Level{
	"CRITICAL": logging.CRITICAL,
	"ERROR":    logging.ERROR,
	"WARNING":  logging.WARNING,
	"NOTICE":   logging.NOTICE,
	"INFO":     logging.INFO,
	"DEBUG":    logging.DEBUG,
}

// NewConfig returns a new config based on env vars WILDOBS_CONFIG_DIR
// and WILDOBS_ENV.
func NewConfig() *Config {
	config := loadConfig()
	config.expandPaths()
	config.makeDirs()
	return config
}

func loadConfig() *Config {
	configDir, envName := getEnvVars()
	v := viper.New()
	v.AddConfigPath(configDir)
	v.SetConfigName(".env." + envName)
	v.SetConfigType("env")
	err := v.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("Fatal error config file: %s \n", err))
	}
	return &Config{
		ArchiveBucket:    v.GetString("ARCHIVE_BUCKET"),
		BaseWorkingDir:   v.GetString("BASE_WORKING_DIR"),
		ConfigName:       envName,
		LogDir:           v.GetString("LOG_DIR"),
		LogLevel:         logLevels[v.GetString("LOG_LEVEL")],
		MaxFileSize:      v.GetInt64("MAX_FILE_SIZE"),
		NsqLookupd:       v.GetString("NSQ_LOOKUPD"),
		NsqURL:           v.GetString("NSQ_URL"),
		PostgresDSN:      v.GetString("POSTGRES_DSN"),
		QueueInterval:    v.GetDuration("QUEUE_INTERVAL"),
		QueueMaxAge:      v.GetDuration("QUEUE_MAX_AGE"),
		RedisDefaultDB:   v.GetInt("REDIS_DEFAULT_DB"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisRetries:     v.GetInt("REDIS_RETRIES"),
		RedisRetryMs:     v.GetDuration("REDIS_RETRY_MS"),
		RedisURL:         v.GetString("REDIS_URL"),
		SubmissionBucket: v.GetString("SUBMISSION_BUCKET"),
		S3Credentials: map[string]S3Credentials{
			constants.S3ClientAWS: {
				Host:      v.GetString("S3_AWS_HOST"),
				KeyID:     v.GetString("S3_AWS_KEY"),
				SecretKey: v.GetString("S3_AWS_SECRET"),
			},
			constants.S3ClientLocal: {
				Host:      v.GetString("S3_LOCAL_HOST"),
				KeyID:     v.GetString("S3_LOCAL_KEY"),
				SecretKey: v.GetString("S3_LOCAL_SECRET"),
			},
		},
	}
}

func getEnvVars() (string, string) {
	configDir := getRequiredEnvVar("WILDOBS_CONFIG_DIR")
	envName := getRequiredEnvVar("WILDOBS_ENV")
	return configDir, envName
}

func getRequiredEnvVar(varName string) string {
	value := os.Getenv(varName)
	if value == "" {
		panic(fmt.Sprintf("Required env var %s not set", varName))
	}
	return value
}

// Expand ~ to home dir in path settings.
func (c *Config) expandPaths() {
	c.BaseWorkingDir = expandPath(c.BaseWorkingDir)
	c.LogDir = expandPath(c.LogDir)
}

func expandPath(dirName string) string {
	dir, err := util.ExpandTilde(dirName)
	if err != nil {
		panic(err)
	}
	return dir
}

func (c *Config) makeDirs() {
	dirs := []string{
		c.BaseWorkingDir,
		c.LogDir,
	}
	for _, dir := range dirs {
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			panic(err)
		}
	}
}
