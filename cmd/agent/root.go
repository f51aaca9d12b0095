package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdu-collector/cmd/server"
	"github.com/pdu-collector/pkg/config"
	"github.com/pdu-collector/pkg/logger"
	"github.com/pdu-collector/pkg/registers"
	"github.com/pdu-collector/pkg/signal"
	"github.com/pdu-collector/pkg/transport"
	"github.com/pdu-collector/pkg/util"
)

const shutdownTimeout = 10 * time.Second

var rootCmd = &cobra.Command{
	Use:          "pdu-collector",
	Short:        "PDU electrical telemetry collector (voltage/current/energy over SNMP) for Prometheus",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigWithCli(cmd)
		if err != nil {
			return fmt.Errorf("%w\n请检查配置文件路径或使用 -c 参数指定", err)
		}
		if err := runServer(cmd.Context(), cfg); err != nil {
			return fmt.Errorf("服务启动失败: %w", err)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "configs/config.yaml", "配置文件路径")
	// 注册分组 flag
	initServerFlags(rootCmd)
	initMonitorFlags(rootCmd)
	initSNMPFlags(rootCmd)
	initLogFlags(rootCmd)

	rootCmd.AddCommand(configCmd)
}

func runServer(ctx context.Context, cfg *config.Config) error {
	zl, err := logger.InitLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("日志初始化失败: %w", err)
	}
	// 程序退出时刷盘
	defer logger.Sync()
	logger.SetDefaultCollector("pdu-collector")

	util.PrintBanner(os.Stdout, "PDU Collector", util.ColorCyan)
	util.PrintStartupInfo(os.Stdout, server.Version, cfg.Server.Addr, len(cfg.Devices))

	registry, agent, err := registers.InitPromRegistry(ctx, cfg, transport.NewSNMP(cfg.SNMP))
	if err != nil {
		return fmt.Errorf("init collectors: %w", err)
	}

	httpServer := server.NewHTTPServer(cfg.Server, zl, registry)
	if err := httpServer.Start(); err != nil {
		_ = agent.Shutdown(context.Background())
		return fmt.Errorf("start HTTP server failed: %w", err)
	}
	logger.Info("pdu collector started",
		zap.String("addr", httpServer.Addr()),
		zap.Int("devices", len(cfg.Devices)),
		zap.Duration("interval", cfg.Monitor.Interval),
		zap.Duration("deadline", cfg.Monitor.Deadline))

	// 关闭顺序：HTTP服务 → 采集器
	return signal.WaitForShutdown(ctx, shutdownTimeout, func(ctx context.Context) error {
		return errors.Join(httpServer.Shutdown(ctx), agent.Shutdown(ctx))
	})
}
