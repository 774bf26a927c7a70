// Package storage keeps case attachment bytes in S3-compatible object
// storage. Only file metadata lives on the in-memory case record.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// AttachmentStore uploads and fetches case attachments.
type AttachmentStore struct {
	client *s3.Client
	bucket string
}

// NewAttachmentStore builds a store against the given bucket using ambient
// AWS configuration (env, shared config, or a local endpoint override).
func NewAttachmentStore(ctx context.Context, bucket string) (*AttachmentStore, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.New(s3.Options{
		Region:       cfg.Region,
		Credentials:  cfg.Credentials,
		HTTPClient:   cfg.HTTPClient,
		BaseEndpoint: cfg.BaseEndpoint,
		UsePathStyle: true,
	})

	return &AttachmentStore{client: client, bucket: bucket}, nil
}

// Put uploads one attachment and returns its storage key.
func (s *AttachmentStore) Put(ctx context.Context, caseID, fileName, contentType string, data []byte) (string, error) {
	key := fmt.Sprintf("cases/%s/%s_%s", caseID, uuid.NewString(), fileName)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return "", fmt.Errorf("upload attachment: %w", err)
	}
	return key, nil
}

// Get fetches an attachment's bytes and content type by storage key.
func (s *AttachmentStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, "", fmt.Errorf("fetch attachment: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read attachment body: %w", err)
	}

	contentType := ""
	if out.ContentType != nil {
		contentType = *out.ContentType
	}
	return data, contentType, nil
}
