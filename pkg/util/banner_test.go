package util

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "PDU", ColorCyan)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.NotEmpty(t, lines)
	for _, l := range lines {
		assert.True(t, strings.HasPrefix(l, ColorCyan))
		assert.True(t, strings.HasSuffix(l, ColorReset))
	}
}

func TestPrintStartupInfo(t *testing.T) {
	var buf bytes.Buffer
	PrintStartupInfo(&buf, "v1.0.0", "0.0.0.0:9110", 3)
	assert.Contains(t, buf.String(), "0.0.0.0:9110")
	assert.Contains(t, buf.String(), " 3\n")
}
