package agent

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pdu-collector/pkg/config"
	"github.com/pdu-collector/pkg/resolver"
)

// configCmd 校验配置并输出最终生效的配置（默认值 + 文件 + 环境变量 + flag）
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Validate the configuration and print the effective settings as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigWithCli(cmd)
		if err != nil {
			return err
		}
		targets, err := resolver.ResolveAll(cfg.Devices)
		if err != nil {
			return fmt.Errorf("resolve devices: %w", err)
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, d := range cfg.Devices {
			fmt.Fprintf(out, "# %s: %d poll targets\n", d.Label(), len(targets[d.Label()]))
			for _, t := range targets[d.Label()] {
				name := t.Target
				if name == "" {
					name = "-"
				}
				fmt.Fprintf(out, "#   %-8s %-12s %s\n", t.Category, name, t.BaseOID)
			}
		}
		return nil
	},
}
