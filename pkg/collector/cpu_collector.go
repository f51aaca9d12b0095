package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	cload "github.com/shirou/gopsutil/v3/load"
	"go.uber.org/zap"

	"github.com/pdu-collector/pkg/logger"
	"github.com/pdu-collector/pkg/monitor"
)

// HostCollector 采集器所在主机的 CPU 使用率和负载（实现 registers.Collector 接口）
// 轮询变慢时用来区分是 PDU 响应慢还是本机资源不足
type HostCollector struct {
	name    string
	metrics monitor.HostMetrics
	agent   monitor.AgentMetrics
}

// NewHostCollector 创建主机自监控采集器
func NewHostCollector(m monitor.HostMetrics, agent monitor.AgentMetrics) *HostCollector {
	return &HostCollector{
		name:    "host",
		metrics: m,
		agent:   agent,
	}
}

// Name 返回采集器名称
func (c *HostCollector) Name() string { return c.name }

// Init 预检查CPU可用性
func (c *HostCollector) Init() error {
	if _, err := cpu.Counts(false); err != nil {
		logger.Error("failed to get CPU counts", zap.Error(err))
		return err
	}
	return nil
}

// Collect 执行指标采集
func (c *HostCollector) Collect(ctx context.Context) error {
	start := time.Now()
	defer func() {
		c.agent.CollectDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	}()

	// 1. CPU使用率（与上次调用之间的平均值）
	usage, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		c.agent.CollectErrors.WithLabelValues(c.name).Inc()
		return fmt.Errorf("get cpu usage failed: %w", err)
	}
	if len(usage) == 0 {
		c.agent.CollectErrors.WithLabelValues(c.name).Inc()
		return fmt.Errorf("get cpu usage failed: empty result")
	}
	c.metrics.UsageRatio.Set(usage[0] / 100)

	// 2. CPU负载
	load, err := cload.AvgWithContext(ctx)
	if err != nil {
		logger.Warn("failed to get CPU load", zap.Error(err))
		c.agent.CollectErrors.WithLabelValues(c.name).Inc()
		return nil
	}
	c.metrics.Load1.Set(load.Load1)
	c.metrics.Load5.Set(load.Load5)
	c.metrics.Load15.Set(load.Load15)
	logger.Debug("collected host metrics",
		zap.Float64("cpu_ratio", usage[0]/100),
		zap.Float64("load1", load.Load1),
		zap.Float64("load5", load.Load5),
		zap.Float64("load15", load.Load15))
	return nil
}

func (c *HostCollector) Close() error {
	return nil
}
