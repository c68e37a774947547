package ingest

import (
	"context"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	appconfig "talentmatch/internal/config"
	"talentmatch/internal/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3API is the subset of the S3 client the source uses.
type s3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads resumes stored under s3://bucket/prefix/<job_id>/.
type S3Source struct {
	client s3API
	bucket string
	prefix string
	kinds  []string
	logger *errors.Logger
}

// NewS3Source builds an S3 client from cfg. Static credentials are used
// when configured, the default AWS chain otherwise. A custom endpoint
// selects path-style addressing for S3-compatible stores.
func NewS3Source(ctx context.Context, cfg appconfig.IngestConfig, logger *errors.Logger) (*S3Source, error) {
	s3cfg := cfg.S3
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(s3cfg.Region)}
	if s3cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3cfg.AccessKeyID, s3cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to load AWS configuration", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s3cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Source(client, s3cfg.Bucket, s3cfg.Prefix, cfg.AllowedKinds, logger), nil
}

func newS3Source(client s3API, bucket, prefix string, kinds []string, logger *errors.Logger) *S3Source {
	normalized := make([]string, 0, len(kinds))
	for _, k := range kinds {
		normalized = append(normalized, strings.TrimPrefix(strings.ToLower(k), "."))
	}
	return &S3Source{client: client, bucket: bucket, prefix: prefix, kinds: normalized, logger: logger}
}

// jobPrefix is the key prefix holding a job's resumes, with a trailing slash.
func (s *S3Source) jobPrefix(jobID string) string {
	return path.Join(strings.Trim(s.prefix, "/"), jobID) + "/"
}

// Documents downloads every accepted object under the job prefix.
func (s *S3Source) Documents(ctx context.Context, jobID string) ([]Document, error) {
	prefix := s.jobPrefix(jobID)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var docs []Document
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.NewUpstreamError(errors.ErrCodeFileNotReadable, "failed to list S3 resumes", err).
				WithContext("bucket", s.bucket).
				WithContext("prefix", prefix)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") || !slices.Contains(s.kinds, Kind(key)) {
				continue
			}
			data, err := s.download(ctx, key)
			if err != nil {
				return nil, err
			}
			docs = append(docs, Document{Name: "s3://" + s.bucket + "/" + key, Data: data})
		}
	}

	s.logger.Debug("Listed S3 resumes", "job_id", jobID, "bucket", s.bucket, "prefix", prefix, "documents", len(docs))
	return docs, nil
}

func (s *S3Source) download(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.NewUpstreamError(errors.ErrCodeFileNotReadable, fmt.Sprintf("failed to get object %s", key), err)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, fmt.Sprintf("failed to read object %s", key), err)
	}
	return data, nil
}
