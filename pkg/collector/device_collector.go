package collector

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdu-collector/pkg/config"
	"github.com/pdu-collector/pkg/logger"
	"github.com/pdu-collector/pkg/monitor"
	"github.com/pdu-collector/pkg/poller"
	"github.com/pdu-collector/pkg/sink"
)

// DeviceCollector PDU 采集器（实现 registers.Collector 接口），一个设备一个
// 采集结果在本次 Collect 内立即写入 sink，不等其它设备
type DeviceCollector struct {
	name        string
	cfg         config.DeviceConfig
	energyScale float64
	device      *poller.Device
	poller      *poller.Poller
	sink        *sink.Sink
	metrics     monitor.AgentMetrics
}

// NewDeviceCollector 创建 PDU 采集器；energyScale 为全局电能倍率，设备配置可覆盖
func NewDeviceCollector(cfg config.DeviceConfig, energyScale float64, p *poller.Poller, s *sink.Sink, m monitor.AgentMetrics) *DeviceCollector {
	return &DeviceCollector{
		name:        "pdu/" + cfg.Label(),
		cfg:         cfg,
		energyScale: energyScale,
		poller:      p,
		sink:        s,
		metrics:     m,
	}
}

// Name 返回采集器名称
func (c *DeviceCollector) Name() string { return c.name }

// Init 解析采集目标，配置错误在启动阶段暴露
func (c *DeviceCollector) Init() error {
	d, err := poller.NewDevice(c.cfg, c.energyScale)
	if err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}
	c.device = d
	logger.Debug("device resolved",
		zap.String("name", c.name),
		zap.String("address", d.Config.Address),
		zap.Int("targets", len(d.Targets)),
		zap.Int("zones", len(d.Zones)))
	return nil
}

// Collect 采集一次并写入指标；有失败查询时返回错误，但成功部分已经写入
func (c *DeviceCollector) Collect(ctx context.Context) error {
	if c.device == nil {
		return fmt.Errorf("%s: collector not initialized", c.name)
	}
	start := time.Now()
	defer func() {
		c.metrics.CollectDuration.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	}()

	out := c.poller.Poll(ctx, c.device)
	c.sink.Apply(out)

	logger.Debug("device polled",
		zap.String("name", c.name),
		zap.Int("readings", len(out.Readings)),
		zap.Int("failures", len(out.Failures)),
		zap.Duration("duration", out.Duration))

	if n := len(out.Failures); n > 0 {
		c.metrics.CollectErrors.WithLabelValues(c.name).Inc()
		return fmt.Errorf("%s: %d of %d queries failed", c.name, n, n+out.Succeeded)
	}
	return nil
}

func (c *DeviceCollector) Close() error {
	return nil
}
