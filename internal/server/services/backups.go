package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/daylog/internal/logging"
	sc "github.com/dmitrijs2005/daylog/internal/server/config"
)

// Seams over the AWS SDK so tests never reach a real bucket.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// backupURLValidity bounds how long a download link stays usable.
const backupURLValidity = 15 * time.Minute

// BackupService stores export documents in an S3-compatible bucket.
type BackupService struct {
	config *sc.Config
	logger logging.Logger
	now    func() time.Time
}

func NewBackupService(config *sc.Config, logger logging.Logger) *BackupService {
	return &BackupService{config: config, logger: logger.With("module", "backup_service"), now: time.Now}
}

// BackupKey names the object for one backup of userID taken at t.
func BackupKey(userID string, t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("backups/%s/%d/%02d/%02d/%s.json", userID, t.Year(), t.Month(), t.Day(), uuid.New())
}

func (s *BackupService) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Upload writes data under a fresh key and returns the key with a presigned
// GET URL the client can import from.
func (s *BackupService) Upload(ctx context.Context, userID string, data []byte) (string, string, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return "", "", fmt.Errorf("s3 config: %w", err)
	}

	bucket := s.config.S3Bucket
	key := BackupKey(userID, s.now())

	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return "", "", fmt.Errorf("upload backup: %w", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(backupURLValidity))
	if err != nil {
		return "", "", fmt.Errorf("presign backup: %w", err)
	}

	s.logger.Info(ctx, "Backup stored", "user_id", userID, "key", key, "bytes", len(data))
	return key, req.URL, nil
}
