package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/apk-risk/apk-risk-go/internal/analyzer"
	"github.com/apk-risk/apk-risk-go/internal/api"
	"github.com/apk-risk/apk-risk-go/internal/classifier"
	"github.com/apk-risk/apk-risk-go/internal/config"
	"github.com/apk-risk/apk-risk-go/internal/middleware"
	"github.com/apk-risk/apk-risk-go/internal/queue"
	"github.com/apk-risk/apk-risk-go/internal/reputation"
	"github.com/apk-risk/apk-risk-go/internal/service"
	"github.com/apk-risk/apk-risk-go/internal/watcher"
	"github.com/apk-risk/apk-risk-go/internal/worker"
	"github.com/google/uuid"
)

var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	fmt.Printf("APK Risk Analysis Service\n")
	fmt.Printf("Version: %s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n\n", GitCommit)

	// 加载配置
	configPath := "./configs/config.yaml"
	if len(os.Args) > 1 && os.Args[1] == "--config" && len(os.Args) > 2 {
		configPath = os.Args[2]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	logger := config.InitLogger(&cfg.Log)
	logger.Infof("Starting APK Risk Analysis Service %s", Version)
	logger.Infof("Config loaded from: %s", configPath)

	// Prometheus 指标
	promMetrics := middleware.NewPrometheusMetrics(logger, "apk_risk")

	// 分析流水线
	apkAnalyzer := analyzer.New(logger, cfg.Analysis.TrustDataFile)

	// 外部信誉源（未启用时为 nil，信号按零值参与融合）
	var vt, mb service.ReputationLookup
	if cfg.VirusTotal.Enabled {
		vt = reputation.NewVirusTotalClient(
			cfg.VirusTotal.BaseURL,
			cfg.VirusTotal.APIKey,
			time.Duration(cfg.VirusTotal.Timeout)*time.Second,
			logger,
		)
		logger.Info("VirusTotal lookup enabled")
	}
	if cfg.MalwareBazaar.Enabled {
		mb = reputation.NewMalwareBazaarClient(
			cfg.MalwareBazaar.APIURL,
			cfg.MalwareBazaar.APIKey,
			time.Duration(cfg.MalwareBazaar.Timeout)*time.Second,
			logger,
		)
		logger.Info("MalwareBazaar lookup enabled")
	}

	// 恶意分类模型
	predictor := classifier.NewClient(
		cfg.Classifier.ServerURL,
		cfg.Classifier.Enabled,
		time.Duration(cfg.Classifier.Timeout)*time.Second,
		logger,
	)

	analysisService := service.NewInstrumentedService(
		service.NewAnalysisService(logger, apkAnalyzer, vt, mb, predictor),
		promMetrics,
	)

	// Worker 池: 后台批量分析
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := worker.NewPool(cfg.Worker.Concurrency, cfg.Worker.QueueSize, analysisService, cfg.Analysis.ResultDir, logger)
	pool.Start(ctx)

	// 队列深度指标
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				promMetrics.UpdateQueueSize(pool.GetQueueSize())
			}
		}
	}()

	// 送检目录监控
	var fw *watcher.FileWatcher
	if cfg.Analysis.InboundDir != "" {
		fw, err = watcher.NewFileWatcher(cfg.Analysis.InboundDir, func(ctx context.Context, filePath string) error {
			taskID := strings.TrimSuffix(filepath.Base(filePath), ".apk") + "-" + uuid.New().String()[:8]
			return pool.Submit(&worker.Task{ID: taskID, APKPath: filePath})
		}, logger)
		if err != nil {
			logger.Fatalf("Failed to init file watcher: %v", err)
		}
		fw.Start(ctx)
	}

	// RabbitMQ 送检队列（可选）
	var mq *queue.RabbitMQ
	var consumer *queue.Consumer
	if cfg.RabbitMQ.Enabled {
		mq, err = queue.NewRabbitMQ(&queue.RabbitMQConfig{
			Host:     cfg.RabbitMQ.Host,
			Port:     cfg.RabbitMQ.Port,
			User:     cfg.RabbitMQ.User,
			Password: cfg.RabbitMQ.Password,
			VHost:    cfg.RabbitMQ.VHost,
		}, cfg.RabbitMQ.Queue, logger)
		if err != nil {
			logger.Fatalf("Failed to init RabbitMQ: %v", err)
		}

		consumer = queue.NewConsumer(mq, func(ctx context.Context, msg *queue.AnalysisMessage) error {
			id := msg.ID
			if id == "" {
				id = uuid.New().String()
			}
			return pool.SubmitAndWait(ctx, &worker.Task{ID: id, APKPath: msg.APKPath})
		}, logger)
		if err := consumer.Start(ctx); err != nil {
			logger.Fatalf("Failed to start queue consumer: %v", err)
		}
	}

	// HTTP 服务
	router := api.SetupRouter(cfg, logger, promMetrics, analysisService)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Infof("HTTP server listening on :%d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown failed")
	}

	if consumer != nil {
		consumer.Stop()
	}
	if mq != nil {
		mq.Close()
	}
	if fw != nil {
		fw.Stop()
	}
	cancel()
	pool.Stop()

	logger.Info("Service stopped")
}
