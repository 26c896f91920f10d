package pipeline

import (
	"bytes"
	"io"

	"github.com/wildobs/submission-services/constants"
	"github.com/wildobs/submission-services/models/common"
)

// S3Store is the minio-backed ObjectStore used in production.
type S3Store struct {
	Context  *common.Context
	Provider string
}

func NewS3Store(ctx *common.Context) *S3Store {
	return &S3Store{Context: ctx, Provider: constants.S3ClientAWS}
}

func (s *S3Store) GetObject(bucket, key string) ([]byte, error) {
	obj, err := s.Context.S3GetObject(s.Provider, bucket, key)
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

func (s *S3Store) PutObject(bucket, key string, data []byte) error {
	_, err := s.Context.S3PutObject(s.Provider, bucket, key,
		bytes.NewReader(data), int64(len(data)))
	return err
}
