package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rnbmx/bmxshop/internal/common"
	"github.com/rnbmx/bmxshop/internal/logging"
	sc "github.com/rnbmx/bmxshop/internal/server/config"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// Upload is a presigned PUT target for one object.
type Upload struct {
	Key       string
	URL       string
	ExpiresAt time.Time
}

// MediaService hands out presigned upload URLs for profile images.
type MediaService struct {
	config *sc.Config
	logger logging.Logger
	now    func() time.Time
}

func NewMediaService(config *sc.Config, logger logging.Logger) *MediaService {
	return &MediaService{config: config, logger: logger.With("module", "media_service"), now: time.Now}
}

// Enabled reports whether object storage is configured.
func (s *MediaService) Enabled() bool {
	return s.config.S3Bucket != "" && s.config.S3BaseEndpoint != ""
}

func (s *MediaService) storageKey(userID int64) string {
	d := s.now().UTC()
	return fmt.Sprintf("users/%d/%d/%d/%d/%v", userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *MediaService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// ProfileImageUpload presigns a PUT for a new image owned by userID.
func (s *MediaService) ProfileImageUpload(ctx context.Context, userID int64) (*Upload, error) {
	if !s.Enabled() {
		return nil, common.ErrMediaUnavailable
	}

	pc, err := s.getPresignClient(ctx)
	if err != nil {
		s.logger.Error(ctx, "s3 client setup failed", "error", err)
		return nil, common.ErrMediaUnavailable
	}

	bucket := s.config.S3Bucket
	key := s.storageKey(userID)
	ttl := s.config.S3PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		s.logger.Error(ctx, "presign failed", "key", key, "error", err)
		return nil, common.ErrorInternal
	}

	return &Upload{Key: key, URL: req.URL, ExpiresAt: s.now().Add(ttl)}, nil
}
