package cmd

import (
	"context"
	"fmt"
	"log"

	"FlowieFM/config"
	"FlowieFM/storage"

	"github.com/minio/minio-go/v7"
	"github.com/spf13/cobra"
)

var minioPrefix string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶检查",
	Long:  `测试MinIO连接并列出存储桶中的音频对象，用于排查流媒体404问题。`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("开始连接MinIO服务器...")

		// 加载配置
		cfg := config.Load()
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		// 初始化MinIO客户端
		store, err := storage.InitMinio(cfg)
		if err != nil {
			log.Fatalf("无法连接到MinIO: %v", err)
		}
		fmt.Println("MinIO连接成功！")

		// 列出文件
		fmt.Printf("\n列出存储桶中的文件 (前缀: %s)...\n", minioPrefix)
		ctx := context.Background()
		var count int
		var totalSize int64
		for object := range store.Client().ListObjects(ctx, cfg.MinioBucket, minio.ListObjectsOptions{
			Prefix:    minioPrefix,
			Recursive: true,
		}) {
			if object.Err != nil {
				log.Fatalf("列出文件失败: %v", object.Err)
			}
			fmt.Printf("  %s (%d bytes)\n", object.Key, object.Size)
			count++
			totalSize += object.Size
		}
		fmt.Printf("\n共 %d 个对象，总大小 %d bytes\n", count, totalSize)

		fmt.Println("\nMinIO操作完成！")
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤文件")

	minioCmd.Example = `  # 列出所有文件
  flowiefm minio

  # 按前缀过滤文件
  flowiefm minio -p "tracks/"`
}
