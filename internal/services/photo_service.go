package services

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PhotoStorageService stores animal photos in S3-compatible object storage
// and hands back presigned URLs for display.
type PhotoStorageService interface {
	UploadPhoto(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
	DeletePhoto(ctx context.Context, objectName string) error
	EnsureBucketExists(ctx context.Context) error
}

const photoURLExpiry = 7 * 24 * time.Hour

type minioPhotoStorage struct {
	client *minio.Client
	bucket string
}

func NewMinioPhotoStorage(endpoint, accessKey, secretKey, bucket string, useSSL bool) (PhotoStorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioPhotoStorage{client: client, bucket: bucket}, nil
}

func (m *minioPhotoStorage) UploadPhoto(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	_, err := m.client.PutObject(ctx, m.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}

	url, err := m.client.PresignedGetObject(ctx, m.bucket, objectName, photoURLExpiry, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

func (m *minioPhotoStorage) DeletePhoto(ctx context.Context, objectName string) error {
	return m.client.RemoveObject(ctx, m.bucket, objectName, minio.RemoveObjectOptions{})
}

func (m *minioPhotoStorage) EnsureBucketExists(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !found {
		return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	}
	return nil
}
