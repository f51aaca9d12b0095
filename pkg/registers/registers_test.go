package registers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdu-collector/pkg/config"
	"github.com/pdu-collector/pkg/metrics"
	"github.com/pdu-collector/pkg/transport"
	"github.com/pdu-collector/pkg/transport/transporttest"
)

const voltageOID = ".1.3.6.1.4.1.318.1.1.26.6.3.1.6"

func testConfig(devs ...config.DeviceConfig) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Devices = devs
	return cfg
}

func voltageDevice(name, address string) config.DeviceConfig {
	return config.DeviceConfig{Name: name, Address: address, Voltage: &config.CategoryConfig{BaseOID: voltageOID}}
}

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	srv := httptest.NewServer(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestEndToEnd_VoltageScrape(t *testing.T) {
	fake := transporttest.New()
	fake.SetWalk("10.0.0.5", voltageOID, transporttest.Walk{Vars: []transport.Variable{
		{OID: voltageOID + ".10", Value: 229.5},
		{OID: voltageOID + ".11", Value: 230.1},
	}})

	reg := prometheus.NewRegistry()
	agent, err := Build(testConfig(voltageDevice("pdu1", "10.0.0.5")), fake, metrics.NewMetricFactory(metrics.NewPromRegistry(reg)))
	require.NoError(t, err)
	require.NoError(t, agent.InitAll())

	report := agent.CollectAll(context.Background())
	require.Empty(t, report.Failed)

	body := scrape(t, reg)
	assert.Contains(t, body, `pdu_voltage_volts{device="pdu1",oid=".1.3.6.1.4.1.318.1.1.26.6.3.1.6.10",target=""} 229.5`)
	assert.Contains(t, body, `pdu_voltage_volts{device="pdu1",oid=".1.3.6.1.4.1.318.1.1.26.6.3.1.6.11",target=""} 230.1`)
	assert.Equal(t, 2, strings.Count(body, "pdu_voltage_volts{"))
	assert.NotContains(t, body, "pdu_poll_failures_total{")
	assert.Contains(t, body, `pdu_device_up{device="pdu1"} 1`)
}

func TestSlowDeviceDoesNotBlockOthers(t *testing.T) {
	fake := transporttest.New()
	fake.SetWalk("10.0.0.1", voltageOID, transporttest.Walk{Vars: []transport.Variable{{OID: voltageOID + ".1", Value: 231}}})
	fake.SetWalk("10.0.0.2", voltageOID, transporttest.Walk{Block: true})

	cfg := testConfig(voltageDevice("fast", "10.0.0.1"), voltageDevice("slow", "10.0.0.2"))
	cfg.Monitor.Interval = time.Hour
	cfg.Monitor.Deadline = 3 * time.Second

	reg := prometheus.NewRegistry()
	factory := metrics.NewMetricFactory(metrics.NewPromRegistry(reg))
	agent, err := Build(cfg, fake, factory)
	require.NoError(t, err)

	started := time.Now()
	require.NoError(t, agent.Start(context.Background()))

	// 慢设备的 walk 到达 deadline 之前，其它设备的读数已经可见
	require.Eventually(t, func() bool {
		return strings.Contains(scrape(t, reg), `pdu_voltage_volts{device="fast",oid=".1.3.6.1.4.1.318.1.1.26.6.3.1.6.1",target=""} 231`)
	}, time.Second, 10*time.Millisecond)
	assert.Less(t, time.Since(started), cfg.Monitor.Deadline)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, agent.Shutdown(ctx))

	// 慢 walk 被 Shutdown 取消，只计为失败，不产生读数
	body := scrape(t, reg)
	assert.NotContains(t, body, `pdu_voltage_volts{device="slow"`)
	assert.Equal(t, 1, mustGatherAndCount(t, reg, "pdu_poll_failures_total"))
}

func TestRegisterCollectors(t *testing.T) {
	cfg := testConfig(voltageDevice("a", "10.0.0.1"), voltageDevice("", "10.0.0.2"))
	cfg.Monitor.Self.Enable = true

	agent, err := Build(cfg, transporttest.New(), metrics.NewMetricFactory(metrics.NewPromRegistry(prometheus.NewRegistry())))
	require.NoError(t, err)

	var names []string
	for _, c := range agent.Collectors() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"pdu/a", "pdu/10.0.0.2", "host"}, names)

	_, err = Build(testConfig(), transporttest.New(), metrics.NewMetricFactory(metrics.NewPromRegistry(prometheus.NewRegistry())))
	assert.Error(t, err)
}

func TestInitPromRegistry_FailsOnInvalidDevice(t *testing.T) {
	cfg := testConfig(config.DeviceConfig{Address: "10.0.0.1", Energy: &config.CategoryConfig{}})
	_, _, err := InitPromRegistry(context.Background(), cfg, transporttest.New())
	assert.Error(t, err)
}

func mustGatherAndCount(t *testing.T, reg *prometheus.Registry, name string) int {
	t.Helper()
	n, err := testutil.GatherAndCount(reg, name)
	require.NoError(t, err)
	return n
}
