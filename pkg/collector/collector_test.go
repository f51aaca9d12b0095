package collector

import (
	"context"
	"runtime"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdu-collector/pkg/config"
	"github.com/pdu-collector/pkg/metrics"
	"github.com/pdu-collector/pkg/monitor"
	"github.com/pdu-collector/pkg/poller"
	"github.com/pdu-collector/pkg/sink"
	"github.com/pdu-collector/pkg/transport"
	"github.com/pdu-collector/pkg/transport/transporttest"
)

const (
	addr       = "10.1.0.7"
	voltageOID = ".1.3.6.1.4.1.318.1.1.26.6.3.1.6"
	currentOID = ".1.3.6.1.4.1.318.1.1.26.9.4.3.1.6"
)

type fixture struct {
	factory *metrics.MetricFactory
	pdu     monitor.PDUMetrics
	agent   monitor.AgentMetrics
	sink    *sink.Sink
}

func newFixture() fixture {
	factory := metrics.NewMetricFactory(metrics.NewPromRegistry(prometheus.NewRegistry()))
	pdu := monitor.NewPDUMetrics(factory, false)
	return fixture{
		factory: factory,
		pdu:     pdu,
		agent:   monitor.NewAgentMetrics(factory),
		sink:    sink.New(sink.NewPromWriter(pdu), sink.Options{}),
	}
}

func TestDeviceCollector(t *testing.T) {
	fx := newFixture()
	fake := transporttest.New()
	fake.SetWalk(addr, voltageOID, transporttest.Walk{Vars: []transport.Variable{{OID: voltageOID + ".1", Value: 230}}})
	fake.SetWalk(addr, currentOID, transporttest.Walk{Err: transport.ErrUnreachable})

	c := NewDeviceCollector(config.DeviceConfig{
		Name:    "rack-a1",
		Address: addr,
		Voltage: &config.CategoryConfig{BaseOID: voltageOID},
		Current: &config.CurrentConfig{BaseOID: currentOID},
	}, 10, poller.New(fake), fx.sink, fx.agent)

	assert.Equal(t, "pdu/rack-a1", c.Name())
	assert.Error(t, c.Collect(context.Background()), "not initialized")
	require.NoError(t, c.Init())

	err := c.Collect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 queries failed")

	assert.Equal(t, 230.0, testutil.ToFloat64(fx.pdu.Voltage.WithLabelValues("rack-a1", "", voltageOID+".1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.pdu.Failures.WithLabelValues("rack-a1", "current", currentOID, "unreachable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.pdu.Up.WithLabelValues("rack-a1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(fx.agent.CollectErrors.WithLabelValues("pdu/rack-a1")))
	assert.NoError(t, c.Close())
}

func TestDeviceCollector_InitRejectsBadConfig(t *testing.T) {
	fx := newFixture()
	c := NewDeviceCollector(config.DeviceConfig{Address: addr, Energy: &config.CategoryConfig{}},
		10, poller.New(transporttest.New()), fx.sink, fx.agent)
	assert.Error(t, c.Init())
}

func TestHostCollector(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("host metrics are read from /proc")
	}
	fx := newFixture()
	host := monitor.NewHostMetrics(fx.factory)
	c := NewHostCollector(host, fx.agent)

	require.NoError(t, c.Init())
	require.NoError(t, c.Collect(context.Background()))

	ratio := testutil.ToFloat64(host.UsageRatio)
	assert.GreaterOrEqual(t, ratio, 0.0)
	assert.LessOrEqual(t, ratio, 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(host.Load1), 0.0)
	assert.NoError(t, c.Close())
}
