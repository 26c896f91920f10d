package common

import (
	ctx "context"
	"database/sql"
	"fmt"
	"io"

	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/op/go-logging"
	"github.com/wildobs/submission-services/network"
	"github.com/wildobs/submission-services/util/logger"
)

// Context is the dependency bundle handed to every pipeline component
// and worker: config, logger, and connections to Postgres, Redis, NSQ
// and S3. Build it once per process and pass it down; nothing in this
// codebase reaches for a global.
type Context struct {
	Config      *Config
	DB          *sql.DB
	Logger      *logging.Logger
	NSQClient   *network.NSQClient
	RedisClient *network.RedisClient
	S3Clients   map[string]*minio.Client
}

func NewContext() *Context {
	config := NewConfig()
	_logger := getLogger(config)
	return &Context{
		Config:      config,
		DB:          getDBConn(config),
		Logger:      _logger,
		NSQClient:   getNsqClient(config),
		RedisClient: getRedisClient(config),
		S3Clients:   getS3Clients(config),
	}
}

func getLogger(config *Config) *logging.Logger {
	log, _ := logger.InitLogger(config.LogDir, config.LogLevel)
	return log
}

func getDBConn(config *Config) *sql.DB {
	db, err := sql.Open("postgres", config.PostgresDSN)
	if err != nil {
		panic(fmt.Sprintf("Could not open postgres connection: %v", err))
	}
	if err = db.Ping(); err != nil {
		panic(fmt.Sprintf("Could not reach postgres: %v", err))
	}
	return db
}

func getNsqClient(config *Config) *network.NSQClient {
	return network.NewNSQClient(config.NsqURL)
}

func getRedisClient(config *Config) *network.RedisClient {
	return network.NewRedisClient(
		config.RedisURL,
		config.RedisPassword,
		config.RedisDefaultDB)
}

func getS3Clients(config *Config) map[string]*minio.Client {
	s3Clients := make(map[string]*minio.Client, len(config.S3Credentials))
	useSSL := true
	if config.ConfigName == "dev" || config.ConfigName == "test" {
		useSSL = false // talking to localhost in dev and test
	}
	for provider, creds := range config.S3Credentials {
		client, err := minio.New(
			creds.Host,
			&minio.Options{
				Creds:  credentials.NewStaticV4(creds.KeyID, creds.SecretKey, ""),
				Secure: useSSL,
			})
		if err != nil {
			panic(err)
		}
		s3Clients[provider] = client
	}
	return s3Clients
}

func (context *Context) S3StatObject(provider, bucket, key string) (minio.ObjectInfo, error) {
	emptyInfo := minio.ObjectInfo{}
	client := context.S3Clients[provider]
	if client == nil {
		return emptyInfo, fmt.Errorf("No S3 client for provider %s", provider)
	}
	return client.StatObject(ctx.Background(), bucket, key, minio.StatObjectOptions{})
}

func (context *Context) S3GetObject(provider, bucket, key string) (*minio.Object, error) {
	client := context.S3Clients[provider]
	if client == nil {
		return nil, fmt.Errorf("No S3 client for provider %s", provider)
	}
	return client.GetObject(ctx.Background(), bucket, key, minio.GetObjectOptions{})
}

func (context *Context) S3PutObject(provider, bucket, key string, reader io.Reader, size int64) (minio.UploadInfo, error) {
	client := context.S3Clients[provider]
	if client == nil {
		return minio.UploadInfo{}, fmt.Errorf("No S3 client for provider %s", provider)
	}
	return client.PutObject(ctx.Background(), bucket, key, reader, size,
		minio.PutObjectOptions{ContentType: "application/zip"})
}
