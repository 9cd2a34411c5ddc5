package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/apk-risk/apk-risk-go/internal/analyzer"
	"github.com/apk-risk/apk-risk-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AnalyzeHandler APK 分析处理器
type AnalyzeHandler struct {
	analysisService service.AnalysisService
	logger          *logrus.Logger
	maxSizeBytes    int64
}

// NewAnalyzeHandler 创建分析处理器实例
func NewAnalyzeHandler(analysisService service.AnalysisService, logger *logrus.Logger, maxSizeMB int) *AnalyzeHandler {
	return &AnalyzeHandler{
		analysisService: analysisService,
		logger:          logger,
		maxSizeBytes:    int64(maxSizeMB) * 1024 * 1024,
	}
}

// AnalyzeAPK 上传 APK 并同步执行风险分析
// POST /api/analyze
func (h *AnalyzeHandler) AnalyzeAPK(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		h.logger.WithError(err).Error("Failed to get uploaded file")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "获取上传文件失败",
		})
		return
	}

	// 验证文件扩展名
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".apk") {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "只支持 APK 文件格式",
		})
		return
	}

	// 验证文件大小
	if file.Size > h.maxSizeBytes {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("文件大小超过限制 (最大 %dMB)", h.maxSizeBytes/(1024*1024)),
		})
		return
	}

	// 落盘到临时文件，分析结束后清理
	tempPath := filepath.Join(os.TempDir(), uuid.New().String()+".apk")
	if err := c.SaveUploadedFile(file, tempPath); err != nil {
		h.logger.WithError(err).Error("Failed to save uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "保存上传文件失败",
		})
		return
	}
	defer os.Remove(tempPath)

	report, err := h.analysisService.AnalyzeAPK(c.Request.Context(), tempPath)
	if err != nil {
		if errors.Is(err, analyzer.ErrInvalidAPK) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "文件不是有效的 APK",
			})
			return
		}
		h.logger.WithError(err).Error("Analysis failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "分析失败",
		})
		return
	}

	report.APKName = file.Filename
	c.JSON(http.StatusOK, report)
}
