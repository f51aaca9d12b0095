package util

import (
	"fmt"
	"io"

	"github.com/common-nighthawk/go-figure"
)

// 定义颜色常量
const (
	ColorReset  = "\x1b[0m"
	ColorRed    = "\x1b[1;31m"
	ColorGreen  = "\x1b[1;32m"
	ColorYellow = "\x1b[1;33m"
	ColorBlue   = "\x1b[1;34m"
	ColorCyan   = "\x1b[1;36m"
)

// PrintBanner 打印整体统一颜色的 ASCII banner；color 为上面的颜色常量
func PrintBanner(w io.Writer, text, color string) {
	fig := figure.NewFigure(text, "", true)
	for _, line := range fig.Slicify() {
		fmt.Fprintln(w, color+line+ColorReset)
	}
}

// PrintStartupInfo 在 banner 下方打印关键启动参数
func PrintStartupInfo(w io.Writer, version, addr string, devices int) {
	fmt.Fprintf(w, "%sversion:%s %s  %slisten:%s %s  %sdevices:%s %d\n",
		ColorGreen, ColorReset, version,
		ColorGreen, ColorReset, addr,
		ColorGreen, ColorReset, devices)
}
