package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/apk-risk/apk-risk-go/internal/service"
	"github.com/sirupsen/logrus"
)

// Task 待分析任务
type Task struct {
	ID       string
	APKPath  string
	resultCh chan error // 同步等待任务完成时使用
}

// Pool 分析 Worker 池
// 每个任务走完整流水线并把报告落盘到 resultDir/<id>.json
type Pool struct {
	workers         int
	taskChan        chan *Task
	analysisService service.AnalysisService
	resultDir       string
	logger          *logrus.Logger
	wg              sync.WaitGroup
}

// NewPool 创建 Worker 池
func NewPool(workers, queueSize int, analysisService service.AnalysisService, resultDir string, logger *logrus.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Pool{
		workers:         workers,
		taskChan:        make(chan *Task, queueSize),
		analysisService: analysisService,
		resultDir:       resultDir,
		logger:          logger,
	}
}

// Start 启动 Worker 池
func (p *Pool) Start(ctx context.Context) {
	p.logger.WithField("workers", p.workers).Info("Starting worker pool")

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// worker Worker 协程
func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	p.logger.WithField("worker_id", id).Info("Worker started")

	for {
		select {
		case <-ctx.Done():
			p.logger.WithField("worker_id", id).Info("Worker shutting down")
			return

		case task, ok := <-p.taskChan:
			if !ok {
				p.logger.WithField("worker_id", id).Info("Task channel closed, worker exiting")
				return
			}

			p.logger.WithFields(logrus.Fields{
				"worker_id": id,
				"task_id":   task.ID,
				"apk_path":  task.APKPath,
			}).Info("Processing analysis task")

			err := p.execute(ctx, task)
			if err != nil {
				p.logger.WithError(err).WithFields(logrus.Fields{
					"worker_id": id,
					"task_id":   task.ID,
				}).Error("Analysis task failed")
			} else {
				p.logger.WithFields(logrus.Fields{
					"worker_id": id,
					"task_id":   task.ID,
				}).Info("Analysis task completed")
			}

			if task.resultCh != nil {
				task.resultCh <- err
				close(task.resultCh)
			}
		}
	}
}

// execute 执行分析并把报告写入结果目录
func (p *Pool) execute(ctx context.Context, task *Task) error {
	report, err := p.analysisService.AnalyzeAPK(ctx, task.APKPath)
	if err != nil {
		return err
	}
	if task.ID != "" {
		report.ID = task.ID
	}

	if err := os.MkdirAll(p.resultDir, 0755); err != nil {
		return fmt.Errorf("failed to create result directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	resultPath := filepath.Join(p.resultDir, report.ID+".json")
	if err := os.WriteFile(resultPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"task_id": report.ID,
		"verdict": report.Verdict,
		"result":  resultPath,
	}).Info("Report written")

	return nil
}

// Submit 提交任务（异步，不等待结果）
func (p *Pool) Submit(task *Task) error {
	select {
	case p.taskChan <- task:
		p.logger.WithField("task_id", task.ID).Debug("Task submitted to pool")
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// SubmitAndWait 提交任务并等待完成
func (p *Pool) SubmitAndWait(ctx context.Context, task *Task) error {
	task.resultCh = make(chan error, 1)

	select {
	case p.taskChan <- task:
		p.logger.WithField("task_id", task.ID).Debug("Task submitted to pool (sync)")
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-task.resultCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop 停止 Worker 池并等待在途任务完成
func (p *Pool) Stop() {
	p.logger.Info("Stopping worker pool")
	close(p.taskChan)
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

// GetQueueSize 获取队列中任务数
func (p *Pool) GetQueueSize() int {
	return len(p.taskChan)
}
