package sink

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pdu-collector/pkg/logger"
	"github.com/pdu-collector/pkg/metrics"
	"github.com/pdu-collector/pkg/monitor"
)

// Writer 注册器写接口，每次调用只更新一个 key，实现必须并发安全
type Writer interface {
	SetGauge(name string, labels prometheus.Labels, value float64)
	AddCounter(name string, labels prometheus.Labels, delta float64)
}

// PromWriter 写入 Prometheus 向量指标（向量自身带锁）
type PromWriter struct {
	gauges   map[string]*prometheus.GaugeVec
	counters map[string]*prometheus.CounterVec
}

var _ Writer = (*PromWriter)(nil)

func NewPromWriter(m monitor.PDUMetrics) *PromWriter {
	w := &PromWriter{
		gauges: map[string]*prometheus.GaugeVec{
			metrics.VoltageVolts:        m.Voltage,
			metrics.CurrentAmps:         m.Current,
			metrics.OutletPowerWatts:    m.Power,
			metrics.DeviceUptimeSeconds: m.Uptime,
			metrics.DeviceUp:            m.Up,
		},
		counters: map[string]*prometheus.CounterVec{
			metrics.EnergyWattHoursTotal: m.Energy,
			metrics.PollFailuresTotal:    m.Failures,
		},
	}
	if m.EstimatedEnergy != nil {
		w.counters[metrics.EstimatedEnergyTotal] = m.EstimatedEnergy
	}
	return w
}

func (w *PromWriter) SetGauge(name string, labels prometheus.Labels, value float64) {
	vec, ok := w.gauges[name]
	if !ok {
		logger.Warn("unknown gauge", zap.String("metric", name))
		return
	}
	g, err := vec.GetMetricWith(labels)
	if err != nil {
		logger.Error("gauge labels mismatch", zap.String("metric", name), zap.Error(err))
		return
	}
	g.Set(value)
}

// AddCounter 忽略负数、NaN 和 Inf 增量；增量为 0 时只创建序列
func (w *PromWriter) AddCounter(name string, labels prometheus.Labels, delta float64) {
	vec, ok := w.counters[name]
	if !ok {
		logger.Warn("unknown counter", zap.String("metric", name))
		return
	}
	if delta < 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return
	}
	c, err := vec.GetMetricWith(labels)
	if err != nil {
		logger.Error("counter labels mismatch", zap.String("metric", name), zap.Error(err))
		return
	}
	c.Add(delta)
}
