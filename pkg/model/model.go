// Package model 一个采集周期中流转的数据：resolver 生成的采集目标、transport 读到的观测值，
// 以及写入注册器的归一化读数和失败记录
package model

import (
	"strings"
	"time"
)

// Category 指标类别
type Category string

const (
	CategoryVoltage Category = "voltage"
	CategoryEnergy  Category = "energy"
	CategoryCurrent Category = "current"
	// CategoryPower 由电压和电流推导，不直接采集
	CategoryPower Category = "power"
	// CategoryUptime 单值查询
	CategoryUptime Category = "uptime"
)

// PollTarget 对一台设备的一次树遍历
type PollTarget struct {
	Device   string
	Address  string
	Category Category
	Target   string
	BaseOID  string
}

// Observation walk 返回的一个 (OID, 原始值) 对
type Observation struct {
	Identifier string
	Raw        float64
	Category   Category
	Device     string
	Target     string
}

// Labels 读数在注册器中的 key
type Labels struct {
	Device     string
	Category   Category
	Target     string
	Identifier string
}

// Key 标签组合的稳定字符串形式
func (l Labels) Key() string {
	return strings.Join([]string{l.Device, string(l.Category), l.Target, l.Identifier}, "\x00")
}

// Index 返回 OID 最后一段，例如 ".1.3.6.1.4.1.318.7" 返回 "7"
func (l Labels) Index() string {
	if i := strings.LastIndexByte(l.Identifier, '.'); i >= 0 {
		return l.Identifier[i+1:]
	}
	return l.Identifier
}

// NormalizedReading 标准单位的读数
type NormalizedReading struct {
	Labels Labels
	Value  float64
}

// FailureRecord 一次失败的查询，Reason 为失败分类
type FailureRecord struct {
	Device     string
	Category   Category
	Target     string
	Identifier string
	Reason     string
}

// CycleOutcome 一台设备在一个周期内的全部结果
type CycleOutcome struct {
	Device   string
	Readings []NormalizedReading
	Failures []FailureRecord
	// Succeeded 成功完成的查询数，空 walk 也算成功
	Succeeded int
	Duration  time.Duration
}

// Up 至少一次查询成功，或者没有需要查询的目标
func (o CycleOutcome) Up() bool {
	return o.Succeeded > 0 || len(o.Failures) == 0
}
