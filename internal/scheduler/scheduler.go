// Package scheduler 提供定时任务调度
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/dumeirei/homestay-booking-backend/internal/common/logger"
	"github.com/dumeirei/homestay-booking-backend/internal/common/metrics"
)

// Scheduler 定时任务调度器
type Scheduler struct {
	tasks   []*Task
	metrics *metrics.Metrics
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Task 定时任务
type Task struct {
	Name     string
	Interval time.Duration
	Handler  func(ctx context.Context) error
}

// NewScheduler 创建调度器
func NewScheduler(m *metrics.Metrics) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		tasks:   make([]*Task, 0),
		metrics: m,
		timeout: 5 * time.Minute,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddTask 添加任务，interval 不大于 0 的任务不启用
func (s *Scheduler) AddTask(name string, interval time.Duration, handler func(ctx context.Context) error) {
	if interval <= 0 {
		logger.Warn("任务间隔无效，已忽略", logger.Module("scheduler"), logger.String("task", name))
		return
	}
	s.tasks = append(s.tasks, &Task{
		Name:     name,
		Interval: interval,
		Handler:  handler,
	})
}

// Tasks 返回已注册的任务
func (s *Scheduler) Tasks() []*Task {
	return s.tasks
}

// Start 启动调度器
func (s *Scheduler) Start() {
	logger.Info("调度器启动", logger.Module("scheduler"), logger.Int("tasks", len(s.tasks)))

	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.runTask(task)
	}
}

// Stop 停止调度器并等待执行中的任务结束
func (s *Scheduler) Stop() {
	logger.Info("调度器停止中", logger.Module("scheduler"))
	s.cancel()
	s.wg.Wait()
	logger.Info("调度器已停止", logger.Module("scheduler"))
}

// runTask 运行单个任务
func (s *Scheduler) runTask(task *Task) {
	defer s.wg.Done()

	logger.Info("任务启动", logger.Module("scheduler"), logger.String("task", task.Name), logger.Duration("interval", task.Interval))

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	// 立即执行一次
	s.RunOnce(task)

	for {
		select {
		case <-s.ctx.Done():
			logger.Info("任务停止", logger.Module("scheduler"), logger.String("task", task.Name))
			return
		case <-ticker.C:
			s.RunOnce(task)
		}
	}
}

// RunOnce 执行一次任务，panic 会被记录而不会终止调度
func (s *Scheduler) RunOnce(task *Task) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("任务异常", logger.Module("scheduler"), logger.String("task", task.Name), logger.Any("panic", r))
		}
		s.metrics.ObserveTask(task.Name, time.Since(start))
	}()

	if err := task.Handler(ctx); err != nil {
		logger.Error("任务失败", logger.Module("scheduler"), logger.String("task", task.Name), logger.Err(err))
		return
	}
	logger.Debug("任务完成", logger.Module("scheduler"), logger.String("task", task.Name), logger.Latency(time.Since(start)))
}
