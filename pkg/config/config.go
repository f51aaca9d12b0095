package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var valid = validator.New()

// EnvPrefix 环境变量前缀，例如 PDU_MONITOR_INTERVAL
const EnvPrefix = "PDU"

// 电能累计模式
const (
	EnergyModeAbsolute = "absolute"
	EnergyModeDelta    = "delta"
)

// DefaultEnergyScale 电表原始值（百瓦时）→ 瓦时
const DefaultEnergyScale = 10.0

// Config 全局配置结构体
type Config struct {
	Server  ServerConfig   `yaml:"server" mapstructure:"server"`
	Monitor MonitorConfig  `yaml:"monitor" mapstructure:"monitor"`
	SNMP    SNMPConfig     `yaml:"snmp" mapstructure:"snmp"`
	Devices []DeviceConfig `yaml:"devices" mapstructure:"devices" validate:"dive"`
	Log     ZapLogConfig   `yaml:"log" mapstructure:"log"`
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr" validate:"required,hostname_port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" validate:"required,gt=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" validate:"required,gt=0"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"required,gt=0"`
}

// MonitorConfig 采集周期配置
type MonitorConfig struct {
	Interval       time.Duration     `yaml:"interval" mapstructure:"interval" validate:"required,gt=0"`
	Deadline       time.Duration     `yaml:"deadline" mapstructure:"deadline" validate:"required,gt=0"`
	EnergyScale    float64           `yaml:"energy_scale" mapstructure:"energy_scale" validate:"gt=0"`
	EnergyMode     string            `yaml:"energy_mode" mapstructure:"energy_mode" validate:"required,oneof=absolute delta"`
	EstimateEnergy bool              `yaml:"estimate_energy" mapstructure:"estimate_energy"`
	EnableProcess  bool              `yaml:"enable_process" mapstructure:"enable_process"`
	Self           SelfMonitorConfig `yaml:"self" mapstructure:"self"`
}

// SelfMonitorConfig 主机自监控开关
type SelfMonitorConfig struct {
	Enable bool `yaml:"enable" mapstructure:"enable"`
}

// SNMPConfig 全部设备共用的 SNMP 默认参数
type SNMPConfig struct {
	Port           uint16        `yaml:"port" mapstructure:"port" validate:"required"`
	Community      string        `yaml:"community" mapstructure:"community" validate:"required"`
	Version        string        `yaml:"version" mapstructure:"version" validate:"required,oneof=1 2c"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"required,gt=0"`
	Retries        int           `yaml:"retries" mapstructure:"retries" validate:"gte=0"`
	MaxRepetitions uint32        `yaml:"max_repetitions" mapstructure:"max_repetitions" validate:"gt=0"`
}

// ZapLogConfig 日志配置
type ZapLogConfig struct {
	Level     string `yaml:"level" mapstructure:"level" validate:"required,oneof=debug info warn error dpanic panic fatal"`
	Format    string `yaml:"format" mapstructure:"format" validate:"required,oneof=json console"`
	Path      string `yaml:"path" mapstructure:"path" validate:"required"`
	MaxSize   int    `yaml:"max_size" mapstructure:"max_size" validate:"gt=0"`
	MaxBackup int    `yaml:"max_backup" mapstructure:"max_backup" validate:"gte=0"`
	MaxAge    int    `yaml:"max_age" mapstructure:"max_age" validate:"gte=0"`
}

// NewDefaultConfig 创建默认配置
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         "0.0.0.0:9110",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Monitor: MonitorConfig{
			Interval:    30 * time.Second,
			Deadline:    20 * time.Second,
			EnergyScale: DefaultEnergyScale,
			EnergyMode:  EnergyModeAbsolute,
		},
		SNMP: SNMPConfig{
			Port:           161,
			Community:      "public",
			Version:        "2c",
			Timeout:        5 * time.Second,
			Retries:        1,
			MaxRepetitions: 10,
		},
		Log: ZapLogConfig{
			Level:     "info",
			Format:    "console",
			Path:      "./logs",
			MaxSize:   100,
			MaxBackup: 30,
			MaxAge:    7,
		},
	}
}

// LoadConfigWithCli 支持 time.Duration，(Flags + YAML + ENV)
func LoadConfigWithCli(cmd *cobra.Command) (*Config, error) {
	v := viper.New()

	if err := bindFlags(v, cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}
	return load(v)
}

// LoadFile 在默认值之上读取单个 YAML 文件
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	// ENV -> Viper (PDU_MONITOR_INTERVAL -> monitor.interval)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := NewDefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("new decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// bindFlags 把 flag 绑定到对应配置 key，"server.read-timeout" → "server.read_timeout"
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	return bindErr
}

// Validate 配置校验
func (c *Config) Validate() error {
	if err := valid.Struct(c); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Monitor.Validate(); err != nil {
		return err
	}
	if err := c.validateDevices(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return nil
}
