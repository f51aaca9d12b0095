package config

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// Validate HTTP服务配置校验
func (h *ServerConfig) Validate() error {
	if err := valid.Struct(h); err != nil {
		return err
	}
	if h.Addr == "" {
		return errors.New("server.addr cannot be empty")
	}
	if _, err := net.ResolveTCPAddr("tcp", h.Addr); err != nil {
		return fmt.Errorf("server.addr format invalid (expected: :port or ip:port), got %s: %w", h.Addr, err)
	}
	return nil
}

// Validate 采集周期校验
func (m *MonitorConfig) Validate() error {
	if err := valid.Struct(m); err != nil {
		return err
	}
	if m.Interval < time.Second || m.Interval > time.Hour {
		return fmt.Errorf("monitor.interval must be between 1s and 1h, got %s", m.Interval)
	}
	// deadline 限制单个周期，可以大于 interval，但不超过一小时
	if m.Deadline > time.Hour {
		return fmt.Errorf("monitor.deadline must not exceed 1h, got %s", m.Deadline)
	}
	return nil
}
