// Package storage copies ingested evidence files to S3 compatible object storage.
package storage

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/linesmerrill/secure-evidence-api/config"
)

// PutObjectAPI is the part of the S3 client the archive uses
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archive uploads evidence files to a bucket. The object carries the file's SHA-256 as an
// S3 checksum, so the store rejects a body that does not match the recorded hash.
type Archive struct {
	Client PutObjectAPI
	Bucket string
}

// NewArchive builds an Archive from the archive settings of conf. Static credentials are used
// when both keys are set, otherwise the default AWS credential chain applies.
func NewArchive(ctx context.Context, conf *config.Config) (*Archive, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(conf.ArchiveRegion),
	}
	if conf.ArchiveAccessKeyID != "" && conf.ArchiveSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			conf.ArchiveAccessKeyID,
			conf.ArchiveSecretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if conf.ArchiveEndpoint != "" {
			o.BaseEndpoint = aws.String(conf.ArchiveEndpoint)
			o.UsePathStyle = true
		}
	})
	return &Archive{Client: client, Bucket: conf.ArchiveBucket}, nil
}

// Archive uploads the file at path under key
func (a *Archive) Archive(ctx context.Context, key, path, sha256Hex string) error {
	sum, err := hex.DecodeString(sha256Hex)
	if err != nil || len(sum) != 32 {
		return fmt.Errorf("invalid sha256 %q for %s", sha256Hex, key)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	_, err = a.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:         aws.String(a.Bucket),
		Key:            aws.String(key),
		Body:           f,
		ContentLength:  aws.Int64(info.Size()),
		ContentType:    aws.String("application/octet-stream"),
		ChecksumSHA256: aws.String(base64.StdEncoding.EncodeToString(sum)),
		Metadata:       map[string]string{"sha256": sha256Hex},
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to bucket %s: %w", key, a.Bucket, err)
	}
	return nil
}
