package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 标签名
const (
	LabelDevice    = "device"
	LabelTarget    = "target"
	LabelOID       = "oid"
	LabelCategory  = "category"
	LabelReason    = "reason"
	LabelCollector = "collector"
)

var readingLabels = []string{LabelDevice, LabelTarget, LabelOID}

// MetricFactory 指标工厂，所有指标都注册到同一个显式注册器上
type MetricFactory struct {
	reg Registers
}

// NewMetricFactory 创建指标工厂
func NewMetricFactory(reg Registers) *MetricFactory {
	return &MetricFactory{reg: reg}
}

// Registry 返回工厂使用的注册器
func (f *MetricFactory) Registry() Registers { return f.reg }

func (f *MetricFactory) gaugeVec(name, help string, labels []string) *prometheus.GaugeVec {
	return promauto.With(f.reg).NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labels)
}

func (f *MetricFactory) counterVec(name, help string, labels []string) *prometheus.CounterVec {
	return promauto.With(f.reg).NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
}

func (f *MetricFactory) gauge(name, help string) prometheus.Gauge {
	return promauto.With(f.reg).NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
}

func (f *MetricFactory) histogramVec(opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(opts, labels)
	f.reg.MustRegister(h)
	return h
}
