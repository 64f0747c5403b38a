package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// PickListExporter 拣料单Excel导出：生成工作簿，可选上传对象存储并签发下载链接
type PickListExporter struct {
	minioClient *minio.Client
	bucket      string
	logger      *zap.Logger
}

func NewPickListExporter(minioClient *minio.Client, bucket string, logger *zap.Logger) *PickListExporter {
	return &PickListExporter{minioClient: minioClient, bucket: bucket, logger: logger}
}

// Render 把拣料单渲染成xlsx字节流
func (e *PickListExporter) Render(list *PickList) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "拣料单"
	f.SetSheetName("Sheet1", sheet)

	f.SetCellValue(sheet, "A1", "生产订单")
	f.SetCellValue(sheet, "B1", list.BuildNumber)
	f.SetCellValue(sheet, "C1", "产品")
	f.SetCellValue(sheet, "D1", fmt.Sprintf("%s %s", list.ProductCode, list.ProductName))
	f.SetCellValue(sheet, "E1", "数量")
	f.SetCellValue(sheet, "F1", list.Quantity)
	if list.Preview {
		f.SetCellValue(sheet, "G1", "（预览，未实际预留）")
	}

	headers := []string{"元件编码", "元件名称", "库位", "库位名称", "拣取数量"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		f.SetCellValue(sheet, cell, h)
	}
	for row, line := range list.Lines {
		values := []interface{}{
			line.ComponentCode, line.ComponentName,
			line.LocationID, line.LocationName, line.Quantity,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+4)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("生成拣料单Excel失败: %w", err)
	}
	return buf.Bytes(), nil
}

// Store 上传拣料单到对象存储并返回7天有效的下载链接。未配置MinIO时返回空串
func (e *PickListExporter) Store(ctx context.Context, list *PickList, data []byte) (string, error) {
	if e.minioClient == nil {
		return "", nil
	}
	objectName := fmt.Sprintf("picklists/%s-%d.xlsx", list.BuildNumber, time.Now().Unix())
	_, err := e.minioClient.PutObject(ctx, e.bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"})
	if err != nil {
		return "", fmt.Errorf("上传拣料单失败: %w", err)
	}
	url, err := e.minioClient.PresignedGetObject(ctx, e.bucket, objectName, 7*24*time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("生成下载链接失败: %w", err)
	}
	e.logger.Info("拣料单已上传",
		zap.String("build_number", list.BuildNumber),
		zap.String("object", objectName),
	)
	return url.String(), nil
}
