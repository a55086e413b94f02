package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"wow-insight/internal/store"
)

var ErrExportNoData = errors.New("没有可导出的数据")

// ExportService 报表导出业务接口
type ExportService interface {
	// ExportSummary 将当前快照导出为 xlsx 报表（场次汇总 + 重合矩阵 + 问题清单）
	ExportSummary(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	snaps  *store.SnapshotStore
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(snaps *store.SnapshotStore, logger *zap.Logger) ExportService {
	return &exportService{snaps: snaps, logger: logger}
}

func (s *exportService) ExportSummary(_ context.Context) (*bytes.Buffer, string, error) {
	snap := s.snaps.Current()
	if snap == nil {
		return nil, "", ErrExportNoData
	}

	f := excelize.NewFile()
	defer f.Close()

	// 1. 场次汇总表
	const summarySheet = "Session Summary"
	f.SetSheetName("Sheet1", summarySheet)
	summaryHeader := []interface{}{
		"Session", "Records", "Distinct Identities",
		"Giving Non-Null", "Giving Sum", "Giving Mean",
		"Engagement Non-Null", "Engagement Mean",
	}
	if err := f.SetSheetRow(summarySheet, "A1", &summaryHeader); err != nil {
		return nil, "", fmt.Errorf("写入汇总表头失败: %w", err)
	}
	for i, sum := range snap.Summaries {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			sum.SessionID,
			sum.RecordCount,
			sum.DistinctIdentities,
			sum.TotalGiving.NonNull,
			sum.TotalGiving.Sum.InexactFloat64(),
			sum.TotalGiving.Mean.InexactFloat64(),
			sum.EngagementScore.NonNull,
			sum.EngagementScore.Mean,
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, "", fmt.Errorf("写入汇总行失败: %w", err)
		}
	}

	// 2. 成对重合矩阵
	const overlapSheet = "Overlap Matrix"
	if _, err := f.NewSheet(overlapSheet); err != nil {
		return nil, "", fmt.Errorf("创建重合矩阵表失败: %w", err)
	}
	header := []interface{}{""}
	for _, sess := range snap.Sessions {
		header = append(header, sess.ID)
	}
	if err := f.SetSheetRow(overlapSheet, "A1", &header); err != nil {
		return nil, "", fmt.Errorf("写入矩阵表头失败: %w", err)
	}
	for i, sess := range snap.Sessions {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{sess.ID}
		for _, v := range snap.Overlap[i] {
			row = append(row, v)
		}
		if err := f.SetSheetRow(overlapSheet, cell, &row); err != nil {
			return nil, "", fmt.Errorf("写入矩阵行失败: %w", err)
		}
	}

	// 3. 问题清单
	const issueSheet = "Issues"
	if _, err := f.NewSheet(issueSheet); err != nil {
		return nil, "", fmt.Errorf("创建问题清单表失败: %w", err)
	}
	issueHeader := []interface{}{"Type", "Session", "Row", "Column", "Message"}
	if err := f.SetSheetRow(issueSheet, "A1", &issueHeader); err != nil {
		return nil, "", fmt.Errorf("写入问题表头失败: %w", err)
	}
	for i, issue := range snap.Issues {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{string(issue.Type), issue.SessionID, issue.Row, issue.Column, issue.Message}
		if err := f.SetSheetRow(issueSheet, cell, &row); err != nil {
			return nil, "", fmt.Errorf("写入问题行失败: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("导出报表写入缓冲失败", zap.Error(err))
		return nil, "", fmt.Errorf("导出报表失败: %w", err)
	}

	filename := fmt.Sprintf("attendance_report_%s.xlsx", time.Now().Format("20060102_150405"))
	s.logger.Info("导出报表完成",
		zap.String("filename", filename),
		zap.Int("sessions", len(snap.Sessions)),
		zap.Int("issues", len(snap.Issues)))
	return buf, filename, nil
}
