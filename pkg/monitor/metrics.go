// Package monitor 按用途分组的指标，交给 sink 和采集器使用
package monitor

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdu-collector/pkg/metrics"
)

// -------------------------- PDU 指标 --------------------------
type PDUMetrics struct {
	Voltage         *prometheus.GaugeVec   // 电压（V）
	Current         *prometheus.GaugeVec   // 电流（A）
	Power           *prometheus.GaugeVec   // 推导功率（W）
	Energy          *prometheus.CounterVec // 累计电能（Wh）
	EstimatedEnergy *prometheus.CounterVec // 功率积分估算电能（Wh），未开启时为 nil
	Uptime          *prometheus.GaugeVec   // 设备运行时间（s）
	Up              *prometheus.GaugeVec   // 设备是否可达
	Failures        *prometheus.CounterVec // 查询失败计数
}

// NewPDUMetrics 注册全部 PDU 指标；estimateEnergy 为 false 时不注册估算电能
func NewPDUMetrics(f *metrics.MetricFactory, estimateEnergy bool) PDUMetrics {
	m := PDUMetrics{
		Voltage:  f.NewVoltageVolts(),
		Current:  f.NewCurrentAmps(),
		Power:    f.NewOutletPowerWatts(),
		Energy:   f.NewEnergyWattHoursTotal(),
		Uptime:   f.NewDeviceUptimeSeconds(),
		Up:       f.NewDeviceUp(),
		Failures: f.NewPollFailuresTotal(),
	}
	if estimateEnergy {
		m.EstimatedEnergy = f.NewEstimatedEnergyTotal()
	}
	return m
}

// -------------------------- 主机自监控指标 --------------------------
type HostMetrics struct {
	UsageRatio prometheus.Gauge // CPU使用率（0-1）
	Load1      prometheus.Gauge
	Load5      prometheus.Gauge
	Load15     prometheus.Gauge
}

func NewHostMetrics(f *metrics.MetricFactory) HostMetrics {
	return HostMetrics{
		UsageRatio: f.NewHostCPUUsageRatio(),
		Load1:      f.NewHostLoad1(),
		Load5:      f.NewHostLoad5(),
		Load15:     f.NewHostLoad15(),
	}
}

// -------------------------- Agent 自身指标 --------------------------
type AgentMetrics struct {
	CollectDuration *prometheus.HistogramVec
	CollectErrors   *prometheus.CounterVec
	CycleDuration   prometheus.Histogram
	CycleAbandoned  *prometheus.CounterVec
	CycleSkipped    *prometheus.CounterVec
}

func NewAgentMetrics(f *metrics.MetricFactory) AgentMetrics {
	return AgentMetrics{
		CollectDuration: f.NewAgentCollectDurationSeconds(),
		CollectErrors:   f.NewAgentCollectErrorsTotal(),
		CycleDuration:   f.NewAgentCycleDurationSeconds(),
		CycleAbandoned:  f.NewAgentCycleAbandonedTotal(),
		CycleSkipped:    f.NewAgentCycleSkippedTotal(),
	}
}
