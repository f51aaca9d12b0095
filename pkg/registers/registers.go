package registers

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/pdu-collector/pkg/collector"
	"github.com/pdu-collector/pkg/config"
	"github.com/pdu-collector/pkg/logger"
	"github.com/pdu-collector/pkg/metrics"
	"github.com/pdu-collector/pkg/monitor"
	"github.com/pdu-collector/pkg/poller"
	"github.com/pdu-collector/pkg/sink"
	"github.com/pdu-collector/pkg/transport"
)

type Module struct {
	Enabled bool
	Name    string
	NewFunc func() Collector
}

// Deps 采集器共享的依赖，全部基于同一个注册器
type Deps struct {
	Factory *metrics.MetricFactory
	Poller  *poller.Poller
	Sink    *sink.Sink
	Agent   monitor.AgentMetrics
}

// InitPromRegistry 返回值
// promReg	*prometheus.Registry	Prometheus 指标注册器，用于 /metrics 暴露或单元测试
// agent	Agent	                采集器管理器，已启动，后台周期性采集所有 PDU
// error	                        配置无效、采集器初始化失败时返回
func InitPromRegistry(ctx context.Context, cfg *config.Config, t transport.Transport) (*prometheus.Registry, Agent, error) {
	promReg := prometheus.NewRegistry()
	// 仅注册进程指标（可选），不注册Go指标
	if cfg.Monitor.EnableProcess {
		promReg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	agent, err := Build(cfg, t, metrics.NewMetricFactory(metrics.NewPromRegistry(promReg)))
	if err != nil {
		return nil, nil, err
	}
	if err := agent.Start(ctx); err != nil {
		logger.Error("failed to start agent", zap.Error(err))
		return nil, nil, err
	}
	return promReg, agent, nil
}

// Build 创建指标、sink、poller，并注册全部采集器，但不启动
func Build(cfg *config.Config, t transport.Transport, factory *metrics.MetricFactory) (*AgentImpl, error) {
	pdu := monitor.NewPDUMetrics(factory, cfg.Monitor.EstimateEnergy)
	deps := Deps{
		Factory: factory,
		Poller:  poller.New(t),
		Sink: sink.New(sink.NewPromWriter(pdu), sink.Options{
			EnergyMode:     cfg.Monitor.EnergyMode,
			EstimateEnergy: cfg.Monitor.EstimateEnergy,
		}),
		Agent: monitor.NewAgentMetrics(factory),
	}

	agent := NewAgent(cfg.Monitor.Interval, cfg.Monitor.Deadline, deps.Agent)
	registered, err := RegisterCollectors(agent, cfg, deps)
	if err != nil {
		logger.Error("failed to register collectors", zap.Error(err))
		return nil, err
	}
	logger.Debug("agent built",
		zap.Int("collectors", len(registered)),
		zap.Duration("interval", cfg.Monitor.Interval),
		zap.String("energy_mode", cfg.Monitor.EnergyMode))
	return agent, nil
}

// RegisterCollectors 采集器注册统一入口
// 每个 PDU 一条 module，按配置顺序注册；主机自监控由开关控制
func RegisterCollectors(agent Agent, cfg *config.Config, deps Deps) ([]Collector, error) {
	modu := make([]Module, 0, len(cfg.Devices)+1)
	for _, dev := range cfg.Devices {
		dev := dev
		modu = append(modu, Module{
			Enabled: true,
			Name:    "pdu/" + dev.Label(),
			NewFunc: func() Collector {
				return collector.NewDeviceCollector(dev, cfg.Monitor.EnergyScale, deps.Poller, deps.Sink, deps.Agent)
			},
		})
	}
	modu = append(modu, Module{
		Enabled: cfg.Monitor.Self.Enable,
		Name:    "host",
		NewFunc: func() Collector {
			return collector.NewHostCollector(monitor.NewHostMetrics(deps.Factory), deps.Agent)
		},
	})

	var registered []Collector
	for _, m := range modu {
		if !m.Enabled {
			logger.Debug("collector disabled", zap.String("name", m.Name))
			continue
		}
		c := m.NewFunc()
		agent.Register(c)
		registered = append(registered, c)
		logger.Debug("registered collector", zap.String("name", m.Name))
	}
	if len(registered) == 0 {
		return nil, fmt.Errorf("no collectors enabled; configure at least one device")
	}

	names := make([]string, 0, len(registered))
	for _, c := range registered {
		names = append(names, c.Name())
	}
	logger.Debug("all enabled collectors registered", zap.Strings("enabled_collectors", names))
	return registered, nil
}
