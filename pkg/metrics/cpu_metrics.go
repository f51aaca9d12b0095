package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 采集主机自身的 CPU 指标，用于判断采集慢是不是本机资源不足

// NewHostCPUUsageRatio CPU使用率（0-1）
func (f *MetricFactory) NewHostCPUUsageRatio() prometheus.Gauge {
	return f.gauge("agent_host_cpu_usage_ratio", "CPU usage ratio of the collector host")
}

func (f *MetricFactory) NewHostLoad1() prometheus.Gauge {
	return f.gauge("agent_host_load1", "1 minute load average of the collector host")
}

func (f *MetricFactory) NewHostLoad5() prometheus.Gauge {
	return f.gauge("agent_host_load5", "5 minute load average of the collector host")
}

func (f *MetricFactory) NewHostLoad15() prometheus.Gauge {
	return f.gauge("agent_host_load15", "15 minute load average of the collector host")
}
