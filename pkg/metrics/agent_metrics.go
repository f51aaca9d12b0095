package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewAgentCollectErrorsTotal 创建「采集器错误总数」指标
// 指标类型：Counter，单调递增，服务重启后归零
// collector: 采集器名称（如 "pdu/rack-a1"、"host"）
func (f *MetricFactory) NewAgentCollectErrorsTotal() *prometheus.CounterVec {
	return f.counterVec("agent_collect_errors_total", "Total collection errors", []string{LabelCollector})
}

// NewAgentCollectDurationSeconds 创建「采集器采集耗时分布」指标
// 分桶：0.01s ~ 5.12s 指数分桶，SNMP walk 通常在这个范围
func (f *MetricFactory) NewAgentCollectDurationSeconds() *prometheus.HistogramVec {
	return f.histogramVec(prometheus.HistogramOpts{
		Name:    "agent_collect_duration_seconds",
		Help:    "Collection duration per collector",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{LabelCollector})
}

// NewAgentCycleDurationSeconds 一个完整采集周期的耗时（受 deadline 限制）
func (f *MetricFactory) NewAgentCycleDurationSeconds() prometheus.Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "agent_cycle_duration_seconds",
		Help:    "Duration of one polling cycle",
		Buckets: prometheus.DefBuckets,
	})
	f.reg.MustRegister(h)
	return h
}

// NewAgentCycleAbandonedTotal 周期截止时仍未返回的采集器
func (f *MetricFactory) NewAgentCycleAbandonedTotal() *prometheus.CounterVec {
	return f.counterVec("agent_cycle_abandoned_total",
		"Collectors still running when the cycle deadline elapsed", []string{LabelCollector})
}

// NewAgentCycleSkippedTotal 上一次采集仍在进行，本周期跳过
func (f *MetricFactory) NewAgentCycleSkippedTotal() *prometheus.CounterVec {
	return f.counterVec("agent_cycle_skipped_total",
		"Collector runs skipped because the previous run was still in flight", []string{LabelCollector})
}
