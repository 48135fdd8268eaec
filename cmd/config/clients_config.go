package config

import (
	"context"
	"time"

	"Cooki-Backend/internal/utils"
	"Cooki-Backend/internal/utils/awsutil"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"
)

func ConnectDynamoDB(ctx context.Context) (*dynamodb.Client, error) {
	cfg, err := awsutil.Load(ctx)
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(cfg), nil
}

func ConnectRedis(ctx context.Context) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     utils.GetConfigDefault("REDIS_ADDR", "localhost:6379"),
		Password: utils.GetConfig("REDIS_PASSWORD"),
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
