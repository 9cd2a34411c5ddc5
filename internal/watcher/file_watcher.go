package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// FileHandler 新 APK 文件处理函数
type FileHandler func(ctx context.Context, filePath string) error

// FileWatcher 送检目录监控器
// 监听 inbound 目录中新出现的 .apk 文件并交给处理函数
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	watchDir string
	handler  FileHandler
	logger   *logrus.Logger
	debounce time.Duration

	mu         sync.Mutex
	processing map[string]bool

	stopChan chan struct{}
}

// NewFileWatcher 创建目录监控器
func NewFileWatcher(watchDir string, handler FileHandler, logger *logrus.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := os.MkdirAll(watchDir, 0755); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to create watch directory: %w", err)
	}

	if err := watcher.Add(watchDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to add watch directory: %w", err)
	}

	fw := &FileWatcher{
		watcher:    watcher,
		watchDir:   watchDir,
		handler:    handler,
		logger:     logger,
		debounce:   2 * time.Second,
		processing: make(map[string]bool),
		stopChan:   make(chan struct{}),
	}

	logger.WithField("watch_dir", watchDir).Info("File watcher created")
	return fw, nil
}

// Start 启动事件循环
// 不扫描已存在的文件，重启服务不会重复送检
func (fw *FileWatcher) Start(ctx context.Context) {
	go fw.eventLoop(ctx)
	fw.logger.Info("File watcher started")
}

// eventLoop 事件循环
// 同一文件短时间内的多次写入事件做防抖合并
func (fw *FileWatcher) eventLoop(ctx context.Context) {
	debounceTimer := make(map[string]*time.Timer)

	for {
		select {
		case <-ctx.Done():
			fw.logger.Info("File watcher context done")
			return
		case <-fw.stopChan:
			fw.logger.Info("File watcher stopped")
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				fw.logger.Warn("Watcher events channel closed")
				return
			}

			if event.Op&fsnotify.Create != fsnotify.Create &&
				event.Op&fsnotify.Write != fsnotify.Write {
				continue
			}

			if !strings.HasSuffix(strings.ToLower(filepath.Base(event.Name)), ".apk") {
				continue
			}

			fw.logger.WithFields(logrus.Fields{
				"event": event.Op.String(),
				"file":  filepath.Base(event.Name),
			}).Debug("APK file event detected")

			if timer, exists := debounceTimer[event.Name]; exists {
				timer.Stop()
			}
			debounceTimer[event.Name] = time.AfterFunc(fw.debounce, func() {
				fw.handleFile(ctx, event.Name)
			})

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				fw.logger.Warn("Watcher errors channel closed")
				return
			}
			fw.logger.WithError(err).Error("Watcher error")
		}
	}
}

// handleFile 等待写入完成后交给处理函数
func (fw *FileWatcher) handleFile(ctx context.Context, filePath string) {
	fw.mu.Lock()
	if fw.processing[filePath] {
		fw.mu.Unlock()
		fw.logger.WithField("file", filePath).Debug("File is already being processed")
		return
	}
	fw.processing[filePath] = true
	fw.mu.Unlock()

	defer func() {
		fw.mu.Lock()
		delete(fw.processing, filePath)
		fw.mu.Unlock()
	}()

	if err := fw.waitForFileReady(filePath); err != nil {
		fw.logger.WithError(err).WithField("file", filePath).Error("File not ready")
		return
	}

	fw.logger.WithField("file", filePath).Info("Processing inbound APK")

	if err := fw.handler(ctx, filePath); err != nil {
		fw.logger.WithError(err).WithField("file", filePath).Error("Failed to process inbound APK")
	}
}

// waitForFileReady 轮询文件大小直到稳定，确认写入完成
func (fw *FileWatcher) waitForFileReady(filePath string) error {
	maxAttempts := 10
	for i := 0; i < maxAttempts; i++ {
		info1, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file does not exist")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		time.Sleep(500 * time.Millisecond)

		info2, err := os.Stat(filePath)
		if err != nil {
			return err
		}

		if info1.Size() == info2.Size() && info1.Size() > 0 {
			return nil
		}
	}

	return fmt.Errorf("file not ready after %d attempts", maxAttempts)
}

// Stop 停止监控
func (fw *FileWatcher) Stop() error {
	close(fw.stopChan)
	return fw.watcher.Close()
}
