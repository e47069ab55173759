package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	maxImageSize    = 5 * 1024 * 1024 // 5 MB
	presignedURLTTL = 15 * time.Minute
	avatarPrefix    = "avatars"
)

var (
	ErrFileTooBig           = errors.New("file size exceeds 5MB limit")
	ErrInvalidFileType      = errors.New("invalid file type, only JPEG and PNG images are allowed")
	ErrBucketCreationFailed = errors.New("failed to create storage bucket")
	ErrUploadFailed         = errors.New("failed to upload file")
	ErrDeleteFailed         = errors.New("failed to delete file")
	ErrURLGenerationFailed  = errors.New("failed to generate presigned URL")
	ErrUnauthorizedAccess   = errors.New("object key does not belong to user")

	allowedContentTypes = map[string]struct{}{
		"image/jpeg": {},
		"image/png":  {},
	}
)

// StorageService stores user-owned images (profile avatars) in S3-compatible
// object storage.
type StorageService interface {
	// UploadAvatar validates and uploads an image, returning the object key.
	UploadAvatar(ctx context.Context, userID uuid.UUID, file io.Reader, fileSize int64, contentType string) (string, error)

	// DeleteAvatar removes an object the user owns. Keys outside the user's
	// namespace are rejected. Empty keys are a no-op.
	DeleteAvatar(ctx context.Context, userID uuid.UUID, objectKey string) error

	// GenerateAvatarURL produces a short-lived presigned GET URL.
	GenerateAvatarURL(ctx context.Context, objectKey string) (string, error)
}

type MinIOStorageService struct {
	client     *minio.Client
	bucketName string

	bucketOnce sync.Once
	bucketErr  error
}

// NewMinIOStorageService builds the client without touching the network; the
// bucket is checked lazily on first use so an unreachable MinIO does not block
// process startup.
func NewMinIOStorageService(endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinIOStorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIOStorageService{client: client, bucketName: bucketName}, nil
}

func (s *MinIOStorageService) ensureBucket(ctx context.Context) error {
	s.bucketOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.bucketErr = fmt.Errorf("%w: check bucket existence: %v", ErrBucketCreationFailed, err)
			return
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{}); err != nil {
				s.bucketErr = fmt.Errorf("%w: create bucket: %v", ErrBucketCreationFailed, err)
			}
		}
	})
	return s.bucketErr
}

func (s *MinIOStorageService) UploadAvatar(ctx context.Context, userID uuid.UUID, file io.Reader, fileSize int64, contentType string) (string, error) {
	if fileSize > maxImageSize {
		return "", ErrFileTooBig
	}
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	if _, allowed := allowedContentTypes[normalized]; !allowed {
		return "", ErrInvalidFileType
	}
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}

	objectKey := fmt.Sprintf("%s/user-%s/%s%s", avatarPrefix, userID, uuid.New(), contentTypeToExtension(normalized))
	metadata := map[string]string{
		"User-ID":     userID.String(),
		"Uploaded-At": time.Now().UTC().Format(time.RFC3339),
	}

	_, err := s.client.PutObject(ctx, s.bucketName, objectKey, file, fileSize, minio.PutObjectOptions{
		ContentType:  normalized,
		UserMetadata: metadata,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return objectKey, nil
}

func (s *MinIOStorageService) DeleteAvatar(ctx context.Context, userID uuid.UUID, objectKey string) error {
	key := strings.TrimSpace(objectKey)
	if key == "" {
		return nil
	}
	if !ownsObjectKey(userID, key) {
		return ErrUnauthorizedAccess
	}
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

func (s *MinIOStorageService) GenerateAvatarURL(ctx context.Context, objectKey string) (string, error) {
	if strings.TrimSpace(objectKey) == "" {
		return "", fmt.Errorf("%w: empty object key", ErrURLGenerationFailed)
	}
	presigned, err := s.client.PresignedGetObject(ctx, s.bucketName, objectKey, presignedURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrURLGenerationFailed, err)
	}
	return presigned.String(), nil
}

// ownsObjectKey rejects path traversal and cross-user keys: a user may only
// touch objects under avatars/user-<their id>/.
func ownsObjectKey(userID uuid.UUID, objectKey string) bool {
	if strings.Contains(objectKey, "..") {
		return false
	}
	return strings.HasPrefix(objectKey, fmt.Sprintf("%s/user-%s/", avatarPrefix, userID))
}

func contentTypeToExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ""
	}
}
