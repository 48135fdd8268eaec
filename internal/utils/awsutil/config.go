// Package awsutil loads the shared AWS configuration used by S3 and DynamoDB.
package awsutil

import (
	"context"

	"Cooki-Backend/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Load builds an aws.Config from the static keys in config, pointing every
// client at AWS_ENDPOINT_URL when it is set (localstack).
func Load(ctx context.Context) (aws.Config, error) {
	opts := []func(*awsCfg.LoadOptions) error{
		awsCfg.WithRegion(utils.GetConfigDefault("AWS_S3_REGION", "ap-southeast-1")),
	}

	accessKey := utils.GetConfig("AWS_ACCESS_KEY")
	secretKey := utils.GetConfig("AWS_SECRET_KEY")
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsCfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	if endpoint := utils.GetConfig("AWS_ENDPOINT_URL"); endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...any) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               endpoint,
				HostnameImmutable: true,
				PartitionID:       "aws",
			}, nil
		})
		opts = append(opts, awsCfg.WithEndpointResolverWithOptions(resolver))
	}

	return awsCfg.LoadDefaultConfig(ctx, opts...)
}
