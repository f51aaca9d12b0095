package resolver

import (
	"errors"
	"fmt"

	"github.com/pdu-collector/pkg/config"
	"github.com/pdu-collector/pkg/model"
)

var (
	ErrMissingAddress    = errors.New("device address is required")
	ErrMissingBaseOID    = errors.New("base oid is required")
	ErrMissingTargetName = errors.New("current target name is required")
	ErrDuplicateTarget   = errors.New("duplicate current target")
)

// Resolve 把设备配置展开为采集目标。
// 顺序固定：电压、电能、整机电流，然后按配置顺序的具名电流目标；没有配置任何类别时返回空
func Resolve(dev config.DeviceConfig) ([]model.PollTarget, error) {
	if dev.Address == "" {
		return nil, ErrMissingAddress
	}
	label := dev.Label()
	target := func(c model.Category, name, oid string) model.PollTarget {
		return model.PollTarget{Device: label, Address: dev.Address, Category: c, Target: name, BaseOID: oid}
	}

	var targets []model.PollTarget
	if dev.Voltage != nil {
		if dev.Voltage.BaseOID == "" {
			return nil, fmt.Errorf("device %s voltage: %w", label, ErrMissingBaseOID)
		}
		targets = append(targets, target(model.CategoryVoltage, "", dev.Voltage.BaseOID))
	}
	if dev.Energy != nil {
		if dev.Energy.BaseOID == "" {
			return nil, fmt.Errorf("device %s energy: %w", label, ErrMissingBaseOID)
		}
		targets = append(targets, target(model.CategoryEnergy, "", dev.Energy.BaseOID))
	}
	if dev.Current != nil {
		if dev.Current.BaseOID == "" && len(dev.Current.Targets) == 0 {
			return nil, fmt.Errorf("device %s current: %w", label, ErrMissingBaseOID)
		}
		if dev.Current.BaseOID != "" {
			targets = append(targets, target(model.CategoryCurrent, "", dev.Current.BaseOID))
		}
		seen := make(map[string]bool, len(dev.Current.Targets))
		for i, t := range dev.Current.Targets {
			if t.Name == "" {
				return nil, fmt.Errorf("device %s current target %d: %w", label, i, ErrMissingTargetName)
			}
			if t.BaseOID == "" {
				return nil, fmt.Errorf("device %s current target %s: %w", label, t.Name, ErrMissingBaseOID)
			}
			if seen[t.Name] {
				return nil, fmt.Errorf("device %s current target %s: %w", label, t.Name, ErrDuplicateTarget)
			}
			seen[t.Name] = true
			targets = append(targets, target(model.CategoryCurrent, t.Name, t.BaseOID))
		}
	}
	return targets, nil
}

// ResolveAll 解析全部设备，遇到第一个无效配置即返回
func ResolveAll(devs []config.DeviceConfig) (map[string][]model.PollTarget, error) {
	out := make(map[string][]model.PollTarget, len(devs))
	for i, d := range devs {
		targets, err := Resolve(d)
		if err != nil {
			return nil, fmt.Errorf("devices[%d]: %w", i, err)
		}
		out[d.Label()] = targets
	}
	return out, nil
}
