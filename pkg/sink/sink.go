// Package sink 把周期结果写入指标注册器
package sink

import (
	"math"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pdu-collector/pkg/config"
	"github.com/pdu-collector/pkg/logger"
	"github.com/pdu-collector/pkg/metrics"
	"github.com/pdu-collector/pkg/model"
)

// Options 电能相关配置
type Options struct {
	// EnergyMode 取 config.EnergyModeAbsolute（默认）或 config.EnergyModeDelta
	EnergyMode     string
	EstimateEnergy bool
	// Now 估算电能用的时钟，默认 time.Now
	Now func() time.Time
}

type powerSample struct {
	at    time.Time
	watts float64
}

// Sink 发布读数和失败计数。Gauge 以最后一次写入为准，电能 counter 只增不减。
// Apply 可并发调用
type Sink struct {
	w    Writer
	opts Options

	mu         sync.Mutex
	lastEnergy map[string]float64     // absolute meter reading per label set
	lastPower  map[string]powerSample // previous power sample per label set
}

func New(w Writer, opts Options) *Sink {
	if opts.EnergyMode == "" {
		opts.EnergyMode = config.EnergyModeAbsolute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Sink{
		w:          w,
		opts:       opts,
		lastEnergy: make(map[string]float64),
		lastPower:  make(map[string]powerSample),
	}
}

// Apply 写入一台设备的周期结果；本次结果中没有的标签组合保留上一次的值
func (s *Sink) Apply(out model.CycleOutcome) {
	now := s.opts.Now()

	for _, r := range out.Readings {
		switch r.Labels.Category {
		case model.CategoryVoltage:
			s.w.SetGauge(metrics.VoltageVolts, readingLabels(r.Labels), r.Value)
		case model.CategoryCurrent:
			s.w.SetGauge(metrics.CurrentAmps, readingLabels(r.Labels), r.Value)
		case model.CategoryPower:
			s.w.SetGauge(metrics.OutletPowerWatts, readingLabels(r.Labels), r.Value)
			if s.opts.EstimateEnergy {
				s.estimate(r, now)
			}
		case model.CategoryEnergy:
			s.w.AddCounter(metrics.EnergyWattHoursTotal, readingLabels(r.Labels), s.energyDelta(r))
		case model.CategoryUptime:
			s.w.SetGauge(metrics.DeviceUptimeSeconds, prometheus.Labels{metrics.LabelDevice: r.Labels.Device}, r.Value)
		default:
			logger.Warn("reading with unknown category", zap.String("category", string(r.Labels.Category)))
		}
	}

	for _, f := range out.Failures {
		s.w.AddCounter(metrics.PollFailuresTotal, prometheus.Labels{
			metrics.LabelDevice:   f.Device,
			metrics.LabelCategory: string(f.Category),
			metrics.LabelOID:      f.Identifier,
			metrics.LabelReason:   f.Reason,
		}, 1)
	}

	up := 0.0
	if out.Up() {
		up = 1
	}
	s.w.SetGauge(metrics.DeviceUp, prometheus.Labels{metrics.LabelDevice: out.Device}, up)
}

// energyDelta 计算电能增量。absolute 模式下首次读数作为基线，读数回退时重新取基线且不累加
func (s *Sink) energyDelta(r model.NormalizedReading) float64 {
	if s.opts.EnergyMode == config.EnergyModeDelta {
		return clamp(r.Value)
	}
	// 非有限值不更新基线
	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return 0
	}

	key := r.Labels.Key()
	s.mu.Lock()
	last, seen := s.lastEnergy[key]
	s.lastEnergy[key] = r.Value
	s.mu.Unlock()

	if !seen {
		return 0
	}
	if r.Value < last {
		logger.Info("energy meter went backwards, re-baselining",
			zap.String("device", r.Labels.Device),
			zap.String("oid", r.Labels.Identifier),
			zap.Float64("last", last),
			zap.Float64("current", r.Value))
		return 0
	}
	return clamp(r.Value - last)
}

// estimate 按梯形法对该标签组合上一次以来的功率积分
func (s *Sink) estimate(r model.NormalizedReading, now time.Time) {
	key := r.Labels.Key()
	s.mu.Lock()
	prev, seen := s.lastPower[key]
	s.lastPower[key] = powerSample{at: now, watts: r.Value}
	s.mu.Unlock()

	wh := 0.0
	if seen {
		if hours := now.Sub(prev.at).Hours(); hours > 0 {
			wh = (prev.watts + r.Value) / 2 * hours
		}
	}
	s.w.AddCounter(metrics.EstimatedEnergyTotal, readingLabels(r.Labels), clamp(wh))
}

func readingLabels(l model.Labels) prometheus.Labels {
	return prometheus.Labels{
		metrics.LabelDevice: l.Device,
		metrics.LabelTarget: l.Target,
		metrics.LabelOID:    l.Identifier,
	}
}

func clamp(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
