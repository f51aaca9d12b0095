// Package poller 遍历单台设备的指标树，把响应转换为归一化读数和失败记录
package poller

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/pdu-collector/pkg/config"
	"github.com/pdu-collector/pkg/convert"
	"github.com/pdu-collector/pkg/logger"
	"github.com/pdu-collector/pkg/model"
	"github.com/pdu-collector/pkg/resolver"
	"github.com/pdu-collector/pkg/transport"
)

// Device 已解析、可直接轮询的设备
type Device struct {
	Config   config.DeviceConfig
	Label    string
	Endpoint transport.Endpoint
	Targets  []model.PollTarget
	Zones    []Zone
	Conv     convert.Converter
}

// Zone 一组插座共用一路电压，Voltage 对应电压 OID 的最后一段
type Zone struct {
	Voltage string
	Outlets []config.OutletRange
}

func (z Zone) contains(outlet int) bool {
	for _, r := range z.Outlets {
		if r.Contains(outlet) {
			return true
		}
	}
	return false
}

// NewDevice 解析采集目标和电压分区；defaultScale 为全局电能倍率，dev.EnergyScale 可覆盖
func NewDevice(dev config.DeviceConfig, defaultScale float64) (*Device, error) {
	targets, err := resolver.Resolve(dev)
	if err != nil {
		return nil, err
	}
	zones := make([]Zone, 0, len(dev.VoltageZones))
	for _, z := range dev.VoltageZones {
		outlets, err := config.ParseOutlets(z.Outlets)
		if err != nil {
			return nil, fmt.Errorf("device %s voltage zone %s: %w", dev.Label(), z.Voltage, err)
		}
		zones = append(zones, Zone{Voltage: z.Voltage, Outlets: outlets})
	}
	return &Device{
		Config:   dev,
		Label:    dev.Label(),
		Endpoint: transport.Endpoint{Address: dev.Address, Port: dev.Port, Community: dev.Community},
		Targets:  targets,
		Zones:    zones,
		Conv:     convert.New(dev.ScaleOr(defaultScale)),
	}, nil
}

// Poller 通过 transport 查询设备
type Poller struct {
	transport transport.Transport
}

func New(t transport.Transport) *Poller {
	return &Poller{transport: t}
}

// Poll 按顺序遍历 d 的全部目标。每次 walk 和 uptime 查询各自独立失败：
// walk 中途出错则丢弃该 walk 的全部读数，只记一条以 base OID 为 key 的失败记录。
// 传输错误不会作为 error 返回
func (p *Poller) Poll(ctx context.Context, d *Device) model.CycleOutcome {
	start := time.Now()
	out := model.CycleOutcome{Device: d.Label}

	for _, t := range d.Targets {
		readings, err := p.walk(ctx, d, t)
		if err != nil {
			out.Failures = append(out.Failures, failure(d.Label, t.Category, t.Target, t.BaseOID, err))
			logger.Warn("walk failed",
				zap.String("device", d.Label),
				zap.String("category", string(t.Category)),
				zap.String("target", t.Target),
				zap.String("oid", t.BaseOID),
				zap.Error(err))
			continue
		}
		out.Succeeded++
		out.Readings = append(out.Readings, readings...)
		logger.Debug("walk done",
			zap.String("device", d.Label),
			zap.String("category", string(t.Category)),
			zap.String("oid", t.BaseOID),
			zap.Int("readings", len(readings)))
	}

	if oid := d.Config.UptimeOID; oid != "" {
		r, err := p.uptime(ctx, d, oid)
		if err != nil {
			out.Failures = append(out.Failures, failure(d.Label, model.CategoryUptime, "", oid, err))
			logger.Warn("uptime query failed", zap.String("device", d.Label), zap.String("oid", oid), zap.Error(err))
		} else {
			out.Succeeded++
			out.Readings = append(out.Readings, r)
		}
	}

	out.Readings = append(out.Readings, DerivePower(out.Readings, d.Zones)...)
	out.Duration = time.Since(start)
	return out
}

// walk 先缓存整棵树，中途出错时已收到的值一并丢弃
func (p *Poller) walk(ctx context.Context, d *Device, t model.PollTarget) ([]model.NormalizedReading, error) {
	var readings []model.NormalizedReading
	err := p.transport.Walk(ctx, d.Endpoint, t.BaseOID, func(v transport.Variable) error {
		raw, err := transport.Float(v.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", v.OID, err)
		}
		readings = append(readings, d.Conv.Convert(model.Observation{
			Identifier: v.OID,
			Raw:        raw,
			Category:   t.Category,
			Device:     d.Label,
			Target:     t.Target,
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return readings, nil
}

func (p *Poller) uptime(ctx context.Context, d *Device, oid string) (model.NormalizedReading, error) {
	v, err := p.transport.Get(ctx, d.Endpoint, oid)
	if err != nil {
		return model.NormalizedReading{}, err
	}
	raw, err := transport.Float(v.Value)
	if err != nil {
		return model.NormalizedReading{}, err
	}
	return d.Conv.Convert(model.Observation{Identifier: oid, Raw: raw, Category: model.CategoryUptime, Device: d.Label}), nil
}

func failure(device string, c model.Category, target, oid string, err error) model.FailureRecord {
	return model.FailureRecord{
		Device:     device,
		Category:   c,
		Target:     target,
		Identifier: oid,
		Reason:     string(transport.Classify(err)),
	}
}

// DerivePower 用同周期的电压 × 电流推导功率。
// 配置了分区时按插座编号查找所在分区的电压，不在任何分区的插座跳过；
// 未配置分区时使用第一个电压读数
func DerivePower(readings []model.NormalizedReading, zones []Zone) []model.NormalizedReading {
	volts := make(map[string]float64)
	var first *model.NormalizedReading
	for i := range readings {
		r := &readings[i]
		if r.Labels.Category != model.CategoryVoltage {
			continue
		}
		if first == nil {
			first = r
		}
		if _, ok := volts[r.Labels.Index()]; !ok {
			volts[r.Labels.Index()] = r.Value
		}
	}
	if first == nil {
		return nil
	}

	var power []model.NormalizedReading
	for _, r := range readings {
		if r.Labels.Category != model.CategoryCurrent {
			continue
		}
		v, ok := first.Value, true
		if len(zones) > 0 {
			v, ok = zoneVoltage(r.Labels.Index(), zones, volts)
		}
		if !ok {
			continue
		}
		labels := r.Labels
		labels.Category = model.CategoryPower
		power = append(power, model.NormalizedReading{Labels: labels, Value: convert.PowerWatts(v, r.Value)})
	}
	return power
}

func zoneVoltage(index string, zones []Zone, volts map[string]float64) (float64, bool) {
	outlet, err := strconv.Atoi(index)
	if err != nil {
		return 0, false
	}
	for _, z := range zones {
		if z.contains(outlet) {
			v, ok := volts[z.Voltage]
			return v, ok
		}
	}
	return 0, false
}
