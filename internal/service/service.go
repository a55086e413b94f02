package service

import (
	"go.uber.org/zap"

	"wow-insight/config"
	"wow-insight/internal/store"
)

// Service 业务服务聚合
type Service struct {
	Analysis AnalysisService
	Export   ExportService
}

// NewService 创建服务聚合实例
func NewService(cfg *config.Config, snaps *store.SnapshotStore, logger *zap.Logger) *Service {
	return &Service{
		Analysis: NewAnalysisService(cfg, snaps, logger),
		Export:   NewExportService(snaps, logger),
	}
}
