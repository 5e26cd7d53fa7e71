package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"crowdfund-backend/internal/util"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

type GCSClient struct {
	client     *storage.Client
	bucketName string
}

func NewGCSClient(bucketName, credentialsFile string) (*GCSClient, error) {
	ctx := context.Background()
	client, err := storage.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, err
	}

	return &GCSClient{
		client:     client,
		bucketName: bucketName,
	}, nil
}

func (c *GCSClient) UploadFile(file *multipart.FileHeader, path string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	ctx := context.Background()
	writer := c.client.Bucket(c.bucketName).Object(path).NewWriter(ctx)
	writer.ContentType = file.Header.Get("Content-Type")

	if _, err = io.Copy(writer, src); err != nil {
		writer.Close()
		return "", fmt.Errorf("写入GCS对象失败: %w", err)
	}
	// Close 才真正提交对象，错误必须检查
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("提交GCS对象失败: %w", err)
	}

	util.Logger.Info("资质文件已上传到GCS",
		zap.String("bucket", c.bucketName),
		zap.String("path", path))
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucketName, path), nil
}
