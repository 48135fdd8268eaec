package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"strings"

	"Cooki-Backend/internal/utils"
	"Cooki-Backend/internal/utils/awsutil"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"
	"github.com/pkg/errors"
)

var (
	AllowImage   = []string{".jpg", ".jpeg", ".png", ".webp"}
	AllowReceipt = []string{".jpg", ".jpeg", ".png", ".pdf"}

	ErrExtensionNotAllowed = errors.New("file extension not allowed")
)

type (
	AwsS3 interface {
		UploadFile(name string, file *multipart.FileHeader, folder string, allowed ...string) (string, error)
		PutObject(ctx context.Context, key string, body io.Reader, contentType string) error
		GetObject(ctx context.Context, key string) (io.ReadCloser, error)
		DeleteFile(key string) error
		GetObjectKeyFromLink(link string) string
		GetPublicLinkKey(key string) string
	}

	awsS3 struct {
		client   *s3.Client
		bucket   string
		region   string
		endpoint string
	}
)

func NewAwsS3() AwsS3 {
	cfg, err := awsutil.Load(context.Background())
	if err != nil {
		log.Fatalf("error loading aws config: %v", err)
	}

	endpoint := utils.GetConfig("AWS_ENDPOINT_URL")
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = endpoint != ""
	})

	return &awsS3{
		client:   client,
		bucket:   utils.GetConfig("AWS_S3_BUCKET"),
		region:   cfg.Region,
		endpoint: endpoint,
	}
}

func (a *awsS3) UploadFile(name string, file *multipart.FileHeader, folder string, allowed ...string) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if len(allowed) > 0 && !contains(allowed, ext) {
		return "", errors.Wrapf(ErrExtensionNotAllowed, "upload %s", file.Filename)
	}

	src, err := file.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer src.Close()

	key := fmt.Sprintf("%s/%s%s", folder, name, ext)
	contentType := file.Header.Get("Content-Type")
	if err := a.PutObject(context.Background(), key, src, contentType); err != nil {
		return "", err
	}
	return key, nil
}

func (a *awsS3) PutObject(ctx context.Context, key string, body io.Reader, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := a.client.PutObject(ctx, input); err != nil {
		return errors.Wrapf(err, "put object %s", key)
	}
	return nil
}

func (a *awsS3) GetObject(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "get object %s", key)
	}
	return out.Body, nil
}

func (a *awsS3) DeleteFile(key string) error {
	_, err := a.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	return errors.Wrapf(err, "delete object %s", key)
}

func (a *awsS3) GetPublicLinkKey(key string) string {
	if a.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(a.endpoint, "/"), a.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", a.bucket, a.region, key)
}

func (a *awsS3) GetObjectKeyFromLink(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	path := strings.TrimPrefix(u.Path, "/")
	if a.endpoint != "" {
		path = strings.TrimPrefix(path, a.bucket+"/")
	}
	return path
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
