package metrics

import "github.com/prometheus/client_golang/prometheus"

// PDU 指标名
const (
	VoltageVolts         = "pdu_voltage_volts"
	CurrentAmps          = "pdu_current_amps"
	OutletPowerWatts     = "pdu_outlet_power_watts"
	EnergyWattHoursTotal = "pdu_energy_watt_hours_total"
	EstimatedEnergyTotal = "pdu_outlet_estimated_energy_watt_hours_total"
	DeviceUptimeSeconds  = "pdu_device_uptime_seconds"
	DeviceUp             = "pdu_device_up"
	PollFailuresTotal    = "pdu_poll_failures_total"
)

// NewVoltageVolts 电压（伏），最近一次成功采集的值
func (f *MetricFactory) NewVoltageVolts() *prometheus.GaugeVec {
	return f.gaugeVec(VoltageVolts, "Voltage reported by the PDU in volts", readingLabels)
}

// NewCurrentAmps 电流（安），设备返回毫安，已换算
func (f *MetricFactory) NewCurrentAmps() *prometheus.GaugeVec {
	return f.gaugeVec(CurrentAmps, "Current drawn per outlet or target in amps", readingLabels)
}

// NewOutletPowerWatts 由同周期电压 × 电流推导的功率
func (f *MetricFactory) NewOutletPowerWatts() *prometheus.GaugeVec {
	return f.gaugeVec(OutletPowerWatts, "Outlet power derived from voltage and current in watts", readingLabels)
}

// NewEnergyWattHoursTotal 累计电能，只增不减
func (f *MetricFactory) NewEnergyWattHoursTotal() *prometheus.CounterVec {
	return f.counterVec(EnergyWattHoursTotal, "Energy consumed in watt-hours", readingLabels)
}

// NewEstimatedEnergyTotal 按功率对时间积分得到的估算电能
func (f *MetricFactory) NewEstimatedEnergyTotal() *prometheus.CounterVec {
	return f.counterVec(EstimatedEnergyTotal, "Outlet energy estimated by integrating derived power over time", readingLabels)
}

func (f *MetricFactory) NewDeviceUptimeSeconds() *prometheus.GaugeVec {
	return f.gaugeVec(DeviceUptimeSeconds, "PDU uptime in seconds", []string{LabelDevice})
}

// NewDeviceUp 本周期设备是否至少有一次查询成功
func (f *MetricFactory) NewDeviceUp() *prometheus.GaugeVec {
	return f.gaugeVec(DeviceUp, "Whether the last poll of the PDU had at least one successful query", []string{LabelDevice})
}

// NewPollFailuresTotal 查询失败计数，reason 为失败分类
func (f *MetricFactory) NewPollFailuresTotal() *prometheus.CounterVec {
	return f.counterVec(PollFailuresTotal, "Failed PDU queries",
		[]string{LabelDevice, LabelCategory, LabelOID, LabelReason})
}
