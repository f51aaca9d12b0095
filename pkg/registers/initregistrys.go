package registers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/pdu-collector/pkg/logger"
	"github.com/pdu-collector/pkg/monitor"
)

const agentName = "collector-registry"

// AgentImpl 实现 Agent 接口：每个周期为每个采集器启动一个 goroutine，
// 全部返回或 deadline 到达即结束本周期，然后等待 interval 再开始下一周期
type AgentImpl struct {
	collectors []Collector
	inFlight   []*atomic.Bool // 与 collectors 下标对应，上一次采集未结束时跳过
	interval   time.Duration
	deadline   time.Duration
	metrics    monitor.AgentMetrics

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	running sync.WaitGroup // 所有采集 goroutine，包括被放弃的
}

// CycleReport 一个周期的结果
type CycleReport struct {
	Completed []string         // 在 deadline 前返回的采集器
	Failed    map[string]error // 返回了错误的采集器（也在 Completed 中）
	Abandoned []string         // deadline 到达时仍在运行
	Skipped   []string         // 上一周期的采集仍在进行
	Duration  time.Duration
}

// NewAgent 创建采集器管理器；deadline 不大于 0 时使用 interval
func NewAgent(interval, deadline time.Duration, m monitor.AgentMetrics) *AgentImpl {
	if deadline <= 0 {
		deadline = interval
	}
	return &AgentImpl{
		interval: interval,
		deadline: deadline,
		metrics:  m,
		done:     make(chan struct{}),
	}
}

// Register 注册采集器，必须在 Start 之前调用
func (r *AgentImpl) Register(c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.collectors = append(r.collectors, c)
	r.inFlight = append(r.inFlight, new(atomic.Bool))
}

// Collectors 返回已注册采集器的副本
func (r *AgentImpl) Collectors() []Collector {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := make([]Collector, len(r.collectors))
	copy(copied, r.collectors)
	return copied
}

// InitAll 初始化全部采集器，任意一个失败即返回
func (r *AgentImpl) InitAll() error {
	for _, coll := range r.Collectors() {
		if err := coll.Init(); err != nil {
			return fmt.Errorf("collector init failed: %w", err)
		}
		logger.Debug("collector initialized successfully", zap.String("name", coll.Name()))
	}
	return nil
}

// Start 初始化采集器并在后台启动周期循环，首个周期立即开始
func (r *AgentImpl) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return errors.New("agent already started")
	}
	r.started = true
	r.mu.Unlock()

	if err := r.InitAll(); err != nil {
		close(r.done)
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	logger.Info("collector loop started", zap.String("name", agentName),
		zap.Duration("interval", r.interval),
		zap.Duration("deadline", r.deadline),
		zap.Int("registered-collectors-count", len(r.collectors)))

	go r.loop(runCtx)
	return nil
}

func (r *AgentImpl) loop(ctx context.Context) {
	defer close(r.done)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("collector loop stopped", zap.String("name", agentName), zap.Error(ctx.Err()))
			return
		case <-timer.C:
			report := r.CollectAll(ctx)
			logger.Debug("cycle finished", zap.String("name", agentName),
				zap.Int("completed", len(report.Completed)),
				zap.Int("failed", len(report.Failed)),
				zap.Strings("abandoned", report.Abandoned),
				zap.Strings("skipped", report.Skipped),
				zap.Duration("duration", report.Duration))
			timer.Reset(r.interval)
		}
	}
}

type collectResult struct {
	name string
	err  error
}

// CollectAll 运行一个周期：并发调用全部采集器，等待全部返回或 deadline 到达。
// 到达 deadline 后取消周期 ctx，未返回的采集器记为 abandoned，它们的 goroutine 自行结束。
func (r *AgentImpl) CollectAll(ctx context.Context) CycleReport {
	start := time.Now()
	r.mu.Lock()
	collectors := append([]Collector(nil), r.collectors...)
	inFlight := append([]*atomic.Bool(nil), r.inFlight...)
	r.mu.Unlock()
	report := CycleReport{Failed: make(map[string]error)}

	cycleCtx, cancel := context.WithTimeout(ctx, r.deadline)
	defer cancel()

	results := make(chan collectResult, len(collectors))
	pending := make(map[string]struct{}, len(collectors))
	for i, c := range collectors {
		name := c.Name()
		busy := inFlight[i]
		if !busy.CompareAndSwap(false, true) {
			report.Skipped = append(report.Skipped, name)
			r.metrics.CycleSkipped.WithLabelValues(name).Inc()
			logger.Warn("previous collection still running, skipped", zap.String("name", name))
			continue
		}
		pending[name] = struct{}{}
		r.running.Add(1)
		go func(c Collector) {
			defer r.running.Done()
			defer busy.Store(false)
			results <- collectResult{name: name, err: safeCollect(cycleCtx, c)}
		}(c)
	}

wait:
	for len(pending) > 0 {
		select {
		case res := <-results:
			delete(pending, res.name)
			report.Completed = append(report.Completed, res.name)
			if res.err != nil {
				report.Failed[res.name] = res.err
				logger.Warn("collection failed", zap.String("name", res.name), zap.Error(res.err))
			}
		case <-cycleCtx.Done():
			break wait
		}
	}

	for name := range pending {
		report.Abandoned = append(report.Abandoned, name)
		r.metrics.CycleAbandoned.WithLabelValues(name).Inc()
		logger.Warn("collector did not finish before cycle deadline", zap.String("name", name),
			zap.Duration("deadline", r.deadline))
	}
	report.Duration = time.Since(start)
	r.metrics.CycleDuration.Observe(report.Duration.Seconds())
	return report
}

// safeCollect 捕获单个采集器的 panic，避免影响同周期的其它采集器
func safeCollect(ctx context.Context, c Collector) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("collector %s panicked: %v", c.Name(), p)
		}
	}()
	return c.Collect(ctx)
}

// Shutdown 停止周期循环并等待采集 goroutine 退出（受 ctx 限制），然后关闭全部采集器
func (r *AgentImpl) Shutdown(ctx context.Context) error {
	logger.Info("starting to shutdown collector metrics", zap.String("name", agentName))

	r.mu.Lock()
	cancel, started := r.cancel, r.started
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	if started {
		stopped := make(chan struct{})
		go func() {
			<-r.done
			r.running.Wait()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			logger.Warn("shutdown timed out waiting for collectors", zap.String("name", agentName), zap.Error(ctx.Err()))
		}
	}
	return r.CloseAll()
}

// CloseAll 批量关闭采集器，返回最后一个错误
func (r *AgentImpl) CloseAll() error {
	var lastErr error
	for _, collector := range r.Collectors() {
		logger.Debug("closing collector", zap.String("name", collector.Name()))
		if err := collector.Close(); err != nil {
			logger.Error("failed to close collector", zap.String("name", collector.Name()), zap.Error(err))
			lastErr = err // 不阻断整体关闭
		}
	}
	return lastErr
}
