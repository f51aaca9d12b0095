// Package convert 把 PDU 原始单位换算为标准单位，负数或异常值原样换算，不做截断
package convert

import "github.com/pdu-collector/pkg/model"

const (
	// MilliampsPerAmp 电流原始值为毫安
	MilliampsPerAmp = 1000.0
	// DefaultEnergyScale 电能原始值单位为百瓦时
	DefaultEnergyScale = 10.0
	// TicksPerSecond SNMP TimeTicks 为 1/100 秒
	TicksPerSecond = 100.0
)

// Converter 原始读数换算器，EnergyScale 随设备型号不同
type Converter struct {
	EnergyScale float64
}

// New 创建换算器，scale 不大于 0 时使用 DefaultEnergyScale
func New(energyScale float64) Converter {
	if energyScale <= 0 {
		energyScale = DefaultEnergyScale
	}
	return Converter{EnergyScale: energyScale}
}

// CurrentAmps 毫安 → 安
func CurrentAmps(milliamps float64) float64 {
	return milliamps / MilliampsPerAmp
}

// EnergyWattHours 电表原始值 → 瓦时
func (c Converter) EnergyWattHours(raw float64) float64 {
	return raw * c.EnergyScale
}

// UptimeSeconds TimeTicks → 秒
func UptimeSeconds(ticks float64) float64 {
	return ticks / TicksPerSecond
}

// PowerWatts 电压(V) × 电流(A) → 功率(W)
func PowerWatts(volts, amps float64) float64 {
	return volts * amps
}

// Normalize 按类别换算原始值，电压不变
func (c Converter) Normalize(category model.Category, raw float64) float64 {
	switch category {
	case model.CategoryCurrent:
		return CurrentAmps(raw)
	case model.CategoryEnergy:
		return c.EnergyWattHours(raw)
	case model.CategoryUptime:
		return UptimeSeconds(raw)
	default:
		return raw
	}
}

// Convert 把一次观测转换为带固定标签的读数
func (c Converter) Convert(o model.Observation) model.NormalizedReading {
	return model.NormalizedReading{
		Labels: model.Labels{Device: o.Device, Category: o.Category, Target: o.Target, Identifier: o.Identifier},
		Value:  c.Normalize(o.Category, o.Raw),
	}
}
