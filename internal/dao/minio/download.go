package minio

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shroukgbr89/parallel/internal/constants"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ObjectStore 从 MinIO 读取源码对象
type ObjectStore struct {
	client  *minio.Client
	maxSize int64
}

// NewObjectStore 创建对象读取器，超过 MaxCodeSize 的对象会被拒绝
func NewObjectStore(client *minio.Client) *ObjectStore {
	return &ObjectStore{client: client, maxSize: constants.MaxCodeSize}
}

// Fetch 根据 bucket 和对象名下载对象内容
func (s *ObjectStore) Fetch(ctx context.Context, bucket, object string) ([]byte, error) {
	// 1. 参数校验
	if bucket == "" || object == "" {
		return nil, fmt.Errorf("bucket and object cannot be empty")
	}

	// 2. 创建上下文
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// 3. 获取对象
	obj, err := s.client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object fail: %w", err)
	}
	defer obj.Close()

	// 4. 读取对象内容，多读一个字节用于判断是否超限
	content, err := io.ReadAll(io.LimitReader(obj, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read object content fail: %w", err)
	}
	if int64(len(content)) > s.maxSize {
		return nil, fmt.Errorf("object %s/%s exceeds %d bytes", bucket, object, s.maxSize)
	}

	zap.L().Debug("file download success", zap.String("bucket", bucket), zap.String("object", object), zap.Int("size", len(content)))
	return content, nil
}
