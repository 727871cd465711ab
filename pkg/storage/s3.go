package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const requestTimeout = 20 * time.Second

// s3API is the slice of the S3 client used here, kept narrow so tests can
// fake the bucket.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver persists incident artifacts into one S3 bucket.
type Archiver struct {
	client s3API
	bucket string
}

// NewArchiver creates a new archiver writing to the given bucket.
func NewArchiver(cfg aws.Config, bucket string) *Archiver {
	return &Archiver{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
	}
}

// Bucket returns the bucket name objects are written to.
func (a *Archiver) Bucket() string {
	return a.bucket
}

// PutJSON stores data as indented JSON under key.
func (a *Archiver) PutJSON(ctx context.Context, key string, data any) error {
	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal object: %w", err)
	}
	return a.put(ctx, key, body, "application/json")
}

// PutText stores text as Markdown under key.
func (a *Archiver) PutText(ctx context.Context, key, text string) error {
	return a.put(ctx, key, []byte(text), "text/markdown")
}

func (a *Archiver) put(ctx context.Context, key string, body []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}
