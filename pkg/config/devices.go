package config

import (
	"fmt"
	"strconv"
	"strings"
)

// DeviceConfig 单台 PDU 配置及其需要遍历的指标树
type DeviceConfig struct {
	Name         string          `yaml:"name,omitempty" mapstructure:"name"`
	Address      string          `yaml:"address" mapstructure:"address" validate:"required"`
	Port         uint16          `yaml:"port,omitempty" mapstructure:"port"`
	Community    string          `yaml:"community,omitempty" mapstructure:"community"`
	EnergyScale  float64         `yaml:"energy_scale,omitempty" mapstructure:"energy_scale" validate:"gte=0"`
	UptimeOID    string          `yaml:"uptime_oid,omitempty" mapstructure:"uptime_oid"`
	Voltage      *CategoryConfig `yaml:"voltage,omitempty" mapstructure:"voltage"`
	Energy       *CategoryConfig `yaml:"energy,omitempty" mapstructure:"energy"`
	Current      *CurrentConfig  `yaml:"current,omitempty" mapstructure:"current"`
	VoltageZones []VoltageZone   `yaml:"voltage_zones,omitempty" mapstructure:"voltage_zones" validate:"dive"`
}

// CategoryConfig 一棵指标树的 base OID
type CategoryConfig struct {
	BaseOID string `yaml:"base_oid" mapstructure:"base_oid" validate:"required"`
}

// CurrentConfig 整机电流树，以及任意数量的具名分支
type CurrentConfig struct {
	BaseOID string          `yaml:"base_oid,omitempty" mapstructure:"base_oid"`
	Targets []CurrentTarget `yaml:"targets,omitempty" mapstructure:"targets" validate:"dive"`
}

// CurrentTarget 具名电流分支，一般对应一台服务器
type CurrentTarget struct {
	Name    string `yaml:"name" mapstructure:"name" validate:"required"`
	BaseOID string `yaml:"base_oid" mapstructure:"base_oid" validate:"required"`
}

// VoltageZone 一段插座对应的供电电压
type VoltageZone struct {
	Voltage string `yaml:"voltage" mapstructure:"voltage" validate:"required"`
	Outlets string `yaml:"outlets" mapstructure:"outlets" validate:"required"`
}

// OutletRange 插座编号区间（闭区间）
type OutletRange struct {
	From, To int
}

// Contains 判断插座是否在区间内
func (r OutletRange) Contains(outlet int) bool {
	return outlet >= r.From && outlet <= r.To
}

// Label 指标里的设备标签：有 name 用 name，否则用地址
func (d *DeviceConfig) Label() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Address
}

// ScaleOr 返回设备电能倍率，未设置时用 def
func (d *DeviceConfig) ScaleOr(def float64) float64 {
	if d.EnergyScale > 0 {
		return d.EnergyScale
	}
	return def
}

// ParseOutlets 解析 "1-12,14,20-24" 形式的插座列表
func ParseOutlets(s string) ([]OutletRange, error) {
	var ranges []OutletRange
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		from, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("outlet range %q: %w", part, err)
		}
		to := from
		if isRange {
			if to, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
				return nil, fmt.Errorf("outlet range %q: %w", part, err)
			}
		}
		if from < 0 || to < from {
			return nil, fmt.Errorf("outlet range %q is empty or negative", part)
		}
		ranges = append(ranges, OutletRange{From: from, To: to})
	}
	if len(ranges) == 0 {
		return nil, fmt.Errorf("outlet range %q has no outlets", s)
	}
	return ranges, nil
}

func (c *Config) validateDevices() error {
	if len(c.Devices) == 0 {
		return fmt.Errorf("at least one device must be configured")
	}
	seen := make(map[string]bool, len(c.Devices))
	for i := range c.Devices {
		d := &c.Devices[i]
		label := d.Label()
		if seen[label] {
			return fmt.Errorf("devices[%d]: duplicate device %q", i, label)
		}
		seen[label] = true

		if d.Current != nil && d.Current.BaseOID == "" && len(d.Current.Targets) == 0 {
			return fmt.Errorf("device %s: current needs a base_oid or at least one target", label)
		}
		for _, z := range d.VoltageZones {
			if _, err := ParseOutlets(z.Outlets); err != nil {
				return fmt.Errorf("device %s: voltage zone %s: %w", label, z.Voltage, err)
			}
		}
	}
	return nil
}
