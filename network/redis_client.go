package network

import (
	"fmt"

	"github.com/go-redis/redis/v7"
	"github.com/wildobs/submission-services/models/service"
)

// RedisClient stores interim processing state: the working copy of a
// Submission and the ProcessingResult for each pipeline attempt. All
// state for one submission lives in a single hash keyed by the
// submission UUID, so cleanup is one DEL.
type RedisClient struct {
	client *redis.Client
}

func NewRedisClient(address, password string, db int) *RedisClient {
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr:     address,
			Password: password,
			DB:       db,
		}),
	}
}

func (c *RedisClient) Ping() (string, error) {
	return c.client.Ping().Result()
}

func (c *RedisClient) SubmissionGet(submissionID string) (*service.Submission, error) {
	data, err := c.client.HGet(submissionID, "submission").Result()
	if err != nil {
		return nil, fmt.Errorf("SubmissionGet (%s): %s", submissionID, err.Error())
	}
	return service.SubmissionFromJSON(data)
}

func (c *RedisClient) SubmissionSave(sub *service.Submission) error {
	jsonData, err := sub.ToJSON()
	if err != nil {
		return err
	}
	_, err = c.client.HSet(sub.ID, "submission", jsonData).Result()
	return err
}

func (c *RedisClient) ProcessingResultGet(submissionID, operation string) (*service.ProcessingResult, error) {
	field := fmt.Sprintf("result:%s", operation)
	data, err := c.client.HGet(submissionID, field).Result()
	if err != nil {
		return nil, fmt.Errorf("ProcessingResultGet (%s, %s): %s",
			submissionID, operation, err.Error())
	}
	return service.ProcessingResultFromJSON(data)
}

func (c *RedisClient) ProcessingResultSave(submissionID string, result *service.ProcessingResult) error {
	field := fmt.Sprintf("result:%s", result.Operation)
	jsonData, err := result.ToJSON()
	if err != nil {
		return err
	}
	_, err = c.client.HSet(submissionID, field, jsonData).Result()
	return err
}

// SubmissionDelete deletes all interim state for a submission,
// including the working copy and every stage result. Returns the
// number of keys deleted, which will be zero or one.
func (c *RedisClient) SubmissionDelete(submissionID string) (int64, error) {
	return c.client.Del(submissionID).Result()
}
