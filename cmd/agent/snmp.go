package agent

import (
	"github.com/spf13/cobra"
)

func initSNMPFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	p := "snmp."

	f.Uint16(p+"port", defaultCfg.SNMP.Port, "-> Default SNMP port | SNMP 端口")
	f.String(p+"community", defaultCfg.SNMP.Community, "-> Default community | 团体名")
	f.String(p+"version", defaultCfg.SNMP.Version, "-> SNMP version [1,2c] | SNMP 版本")
	f.Duration(p+"timeout", defaultCfg.SNMP.Timeout, "-> Per request timeout | 单次请求超时")
	f.Int(p+"retries", defaultCfg.SNMP.Retries, "-> Retries per request | 重试次数")
	f.Uint32(p+"max-repetitions", defaultCfg.SNMP.MaxRepetitions, "-> GETBULK max repetitions | 批量获取数量")
}
