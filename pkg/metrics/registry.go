package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Registers 隔离 Prometheus 的默认实现，指标工厂只依赖这个接口，单测可替换。
// 同时暴露 Gatherer，HTTP 层和测试从同一个注册器读取。
type Registers interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// promRegistry 包裹显式创建的 *prometheus.Registry，不使用全局默认注册器
type promRegistry struct {
	registry *prometheus.Registry
}

// NewPromRegistry 包装一个已有的 Prometheus 注册器
func NewPromRegistry(registry *prometheus.Registry) Registers {
	return &promRegistry{registry: registry}
}

// Register 实现 prometheus.Registerer
func (p *promRegistry) Register(c prometheus.Collector) error {
	return p.registry.Register(c)
}

// MustRegister 实现 prometheus.Registerer，重复注册直接 panic（启动期错误）
func (p *promRegistry) MustRegister(collectors ...prometheus.Collector) {
	for _, c := range collectors {
		if err := p.registry.Register(c); err != nil {
			panic(err)
		}
	}
}

// Unregister 实现 prometheus.Registerer
func (p *promRegistry) Unregister(c prometheus.Collector) bool {
	return p.registry.Unregister(c)
}

// Gather 实现 prometheus.Gatherer
func (p *promRegistry) Gather() ([]*dto.MetricFamily, error) {
	return p.registry.Gather()
}
