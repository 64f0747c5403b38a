package service

import (
	"github.com/bitfantasy/nimo-mes/internal/config"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services 服务集合
type Services struct {
	Build     *BuildService
	Inventory *InventoryService
	Cost      *CostService
	Events    *EventPublisher
	Exporter  *PickListExporter
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *Services {
	// 初始化MinIO客户端（未配置时拣料单只走内联下载）
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("MinIO初始化失败，拣料单将不落对象存储", zap.Error(err))
			minioClient = nil
		}
	}

	events := NewEventPublisher(rdb, logger)
	cost := NewCostService(repos, logger)

	return &Services{
		Build:     NewBuildService(db, repos, cost, events, logger),
		Inventory: NewInventoryService(repos),
		Cost:      cost,
		Events:    events,
		Exporter:  NewPickListExporter(minioClient, cfg.MinIO.Bucket, logger),
	}
}
