package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"FlowieFM/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// 流式读取的错误哨兵，由HTTP层映射为对应的状态码
var (
	// ErrObjectNotFound 表示对象在存储桶中不存在
	ErrObjectNotFound = errors.New("object not found in blob store")
	// ErrRangeNotSatisfiable 表示请求的字节范围超出对象边界
	ErrRangeNotSatisfiable = errors.New("requested range not satisfiable")
)

// BlobStore 定义音频字节的只读访问接口
// 读取结果是流，不会把整个对象缓冲到内存中
type BlobStore interface {
	// Read 返回完整对象的读取流
	Read(ctx context.Context, objectKey string) (io.ReadCloser, error)
	// ReadRange 返回 [start, start+length-1] 闭区间的读取流
	ReadRange(ctx context.Context, objectKey string, start, length int64) (io.ReadCloser, error)
}

// MinioStore 基于 MinIO 实现 BlobStore
type MinioStore struct {
	client *minio.Client
	bucket string
}

// InitMinio 初始化 MinIO 客户端并确保存储桶存在
func InitMinio(cfg *config.Config) (*MinioStore, error) {
	log.Printf("正在连接 MinIO 服务器: %s, Bucket: %s", cfg.MinioEndpoint, cfg.MinioBucket)

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 检查存储桶是否存在，不存在则创建
	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("创建存储桶失败: %w", err)
		}
		log.Printf("✅ 成功创建存储桶: %s", cfg.MinioBucket)
	} else {
		log.Printf("✅ 存储桶已存在: %s", cfg.MinioBucket)
	}

	return &MinioStore{client: client, bucket: cfg.MinioBucket}, nil
}

// Client 返回底层 MinIO 客户端实例
func (s *MinioStore) Client() *minio.Client {
	return s.client
}

// Read 返回完整对象的读取流
func (s *MinioStore) Read(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, s.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapMinioErr(err)
	}

	// GetObject 是惰性的，先 Stat 一次让错误尽早暴露
	if _, err := object.Stat(); err != nil {
		object.Close()
		return nil, mapMinioErr(err)
	}

	return object, nil
}

// ReadRange 精确读取 [start, start+length-1] 字节
func (s *MinioStore) ReadRange(ctx context.Context, objectKey string, start, length int64) (io.ReadCloser, error) {
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(start, start+length-1); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRangeNotSatisfiable, err)
	}

	object, err := s.client.GetObject(ctx, s.bucket, objectKey, opts)
	if err != nil {
		return nil, mapMinioErr(err)
	}

	if _, err := object.Stat(); err != nil {
		object.Close()
		return nil, mapMinioErr(err)
	}

	return object, nil
}

// mapMinioErr 将 MinIO 的错误码映射到包级哨兵
func mapMinioErr(err error) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey":
		return fmt.Errorf("%w: %v", ErrObjectNotFound, err)
	case "InvalidRange":
		return fmt.Errorf("%w: %v", ErrRangeNotSatisfiable, err)
	}
	return err
}
