// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"github.com/javajoker/imi-ledger/internal/config"
	"github.com/javajoker/imi-ledger/internal/models"
)

// StorageService keeps asset metadata documents off-ledger. Assets only
// store the returned URI.
type StorageService struct {
	s3Client   *s3.S3
	aws        config.AWSConfig
	storage    config.StorageConfig
	commitment *CommitmentService
}

type UploadResult struct {
	URI         string        `json:"uri"`
	Key         string        `json:"key"`
	Size        int64         `json:"size"`
	ContentType string        `json:"content_type"`
	ContentHash models.Hash32 `json:"content_hash"`
}

func NewStorageService(cfg *config.Config, commitment *CommitmentService) (*StorageService, error) {
	s := &StorageService{
		aws:        cfg.AWS,
		storage:    cfg.Storage,
		commitment: commitment,
	}
	if cfg.AWS.AccessKeyID == "" {
		// Local disk for development
		return s, nil
	}

	awsConfig := &aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	}
	if cfg.AWS.Endpoint != "" {
		// S3-compatible stores such as MinIO
		awsConfig.Endpoint = aws.String(cfg.AWS.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	s.s3Client = s3.New(sess)
	return s, nil
}

// UploadMetadata stores a metadata document for owner and returns where it
// lives along with the Keccak-256 hash of its content.
func (s *StorageService) UploadMetadata(ctx context.Context, owner, filename, contentType string, r io.Reader) (*UploadResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !s.allowed(ext) {
		return nil, fmt.Errorf("file type %q is not allowed", ext)
	}

	limit := s.storage.MaxFileSize
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("file exceeds maximum allowed size of %d bytes", limit)
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	result := &UploadResult{
		Key:         s.generateKey(owner, ext),
		Size:        int64(len(body)),
		ContentType: contentType,
		ContentHash: s.commitment.HashBytes(body),
	}

	if s.s3Client != nil {
		err = s.uploadToS3(ctx, body, result)
	} else {
		err = s.uploadToLocal(body, result)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *StorageService) uploadToS3(ctx context.Context, body []byte, result *UploadResult) error {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.aws.S3Bucket),
		Key:           aws.String(result.Key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(result.ContentType),
		ContentLength: aws.Int64(result.Size),
		Metadata: map[string]*string{
			"Content-Hash": aws.String(result.ContentHash.String()),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	if s.aws.PublicBaseURL != "" {
		result.URI = strings.TrimRight(s.aws.PublicBaseURL, "/") + "/" + result.Key
	} else {
		result.URI = fmt.Sprintf("s3://%s/%s", s.aws.S3Bucket, result.Key)
	}
	return nil
}

func (s *StorageService) uploadToLocal(body []byte, result *UploadResult) error {
	target := filepath.Join(s.storage.LocalPath, filepath.FromSlash(result.Key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(target, body, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	result.URI = "/uploads/" + result.Key
	return nil
}

func (s *StorageService) allowed(ext string) bool {
	if len(s.storage.AllowedTypes) == 0 {
		return true
	}
	for _, allowedType := range s.storage.AllowedTypes {
		if ext == allowedType {
			return true
		}
	}
	return false
}

func (s *StorageService) generateKey(owner, ext string) string {
	timestamp := time.Now().UTC().Format("20060102")
	name := fmt.Sprintf("%s_%s%s", timestamp, uuid.New().String()[:8], ext)
	return path.Join("metadata", sanitizeSegment(owner), name)
}

func sanitizeSegment(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}
