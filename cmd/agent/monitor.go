package agent

import (
	"github.com/spf13/cobra"
)

func initMonitorFlags(root *cobra.Command) {
	f := root.PersistentFlags()

	f.Duration("monitor.interval", defaultCfg.Monitor.Interval, "-> Pause between polling cycles | 采集间隔")
	f.Duration("monitor.deadline", defaultCfg.Monitor.Deadline, "-> Upper bound of one polling cycle | 单周期截止时间")
	f.Float64("monitor.energy-scale", defaultCfg.Monitor.EnergyScale, "-> Raw energy units to watt-hours | 电能换算倍率")
	f.String("monitor.energy-mode", defaultCfg.Monitor.EnergyMode, "-> Energy readings are [absolute,delta] | 电能读数类型")
	f.Bool("monitor.estimate-energy", defaultCfg.Monitor.EstimateEnergy, "-> Integrate outlet power into estimated energy | 功率积分估算电能")
	f.Bool("monitor.enable-process", defaultCfg.Monitor.EnableProcess, "-> Export process metrics | 进程指标")
	f.Bool("monitor.self.enable", defaultCfg.Monitor.Self.Enable, "-> Export CPU/load of this host | 主机自监控")
}
