package sink

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdu-collector/pkg/config"
	"github.com/pdu-collector/pkg/metrics"
	"github.com/pdu-collector/pkg/model"
	"github.com/pdu-collector/pkg/monitor"
)

const (
	dev     = "pdu1"
	voltOID = ".1.3.6.1.4.1.318.1.1.26.6.3.1.6.1"
	nrgOID  = ".1.3.6.1.4.1.318.1.1.26.9.4.3.1.11.3"
	curOID  = ".1.3.6.1.4.1.318.1.1.26.9.4.3.1.6.3"
)

func newTestSink(t *testing.T, opts Options) (*Sink, monitor.PDUMetrics) {
	t.Helper()
	factory := metrics.NewMetricFactory(metrics.NewPromRegistry(prometheus.NewRegistry()))
	m := monitor.NewPDUMetrics(factory, opts.EstimateEnergy)
	return New(NewPromWriter(m), opts), m
}

func reading(c model.Category, oid string, v float64) model.NormalizedReading {
	return model.NormalizedReading{Labels: model.Labels{Device: dev, Category: c, Identifier: oid}, Value: v}
}

func energyOutcome(v float64) model.CycleOutcome {
	return model.CycleOutcome{Device: dev, Succeeded: 1, Readings: []model.NormalizedReading{reading(model.CategoryEnergy, nrgOID, v)}}
}

func failedOutcome(c model.Category, oid string) model.CycleOutcome {
	return model.CycleOutcome{Device: dev, Failures: []model.FailureRecord{{Device: dev, Category: c, Identifier: oid, Reason: "timeout"}}}
}

func TestApply_GaugeKeptOnFailedRead(t *testing.T) {
	s, m := newTestSink(t, Options{})
	volts := m.Voltage.WithLabelValues(dev, "", voltOID)

	s.Apply(model.CycleOutcome{Device: dev, Succeeded: 1, Readings: []model.NormalizedReading{reading(model.CategoryVoltage, voltOID, 229.5)}})
	assert.Equal(t, 229.5, testutil.ToFloat64(volts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Up.WithLabelValues(dev)))
	assert.Equal(t, 0, testutil.CollectAndCount(m.Failures))

	s.Apply(failedOutcome(model.CategoryVoltage, ".1.3.6.1.4.1.318.1.1.26.6.3.1.6"))
	assert.Equal(t, 229.5, testutil.ToFloat64(volts))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Up.WithLabelValues(dev)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Failures.WithLabelValues(dev, "voltage", ".1.3.6.1.4.1.318.1.1.26.6.3.1.6", "timeout")))
}

func TestApply_Gauges(t *testing.T) {
	s, m := newTestSink(t, Options{})
	s.Apply(model.CycleOutcome{Device: dev, Succeeded: 2, Readings: []model.NormalizedReading{
		{Labels: model.Labels{Device: dev, Category: model.CategoryCurrent, Target: "srv1", Identifier: curOID}, Value: 0.3},
		{Labels: model.Labels{Device: dev, Category: model.CategoryPower, Target: "srv1", Identifier: curOID}, Value: 69},
		reading(model.CategoryUptime, ".1.3.6.1.2.1.1.3.0", 123456),
	}})

	assert.Equal(t, 0.3, testutil.ToFloat64(m.Current.WithLabelValues(dev, "srv1", curOID)))
	assert.Equal(t, 69.0, testutil.ToFloat64(m.Power.WithLabelValues(dev, "srv1", curOID)))
	assert.Equal(t, 123456.0, testutil.ToFloat64(m.Uptime.WithLabelValues(dev)))

	expected := `
# HELP pdu_device_up Whether the last poll of the PDU had at least one successful query
# TYPE pdu_device_up gauge
pdu_device_up{device="pdu1"} 1
`
	assert.NoError(t, testutil.CollectAndCompare(m.Up, strings.NewReader(expected)))
}

func TestApply_EnergyAbsolute(t *testing.T) {
	s, m := newTestSink(t, Options{EnergyMode: config.EnergyModeAbsolute})
	counter := m.Energy.WithLabelValues(dev, "", nrgOID)

	steps := []struct {
		outcome model.CycleOutcome
		want    float64
	}{
		{energyOutcome(1000), 0}, // 基线
		{energyOutcome(1500), 500},
		{failedOutcome(model.CategoryEnergy, nrgOID), 500},
		{energyOutcome(1400), 500}, // 电表回退
		{energyOutcome(2000), 1100},
	}
	for i, step := range steps {
		s.Apply(step.outcome)
		assert.Equal(t, step.want, testutil.ToFloat64(counter), "step %d", i)
	}
}

func TestApply_EnergyIgnoresInfinite(t *testing.T) {
	s, m := newTestSink(t, Options{EnergyMode: config.EnergyModeAbsolute})
	counter := m.Energy.WithLabelValues(dev, "", nrgOID)

	for _, v := range []float64{1000, math.Inf(1), 1100, 1200} {
		s.Apply(energyOutcome(v))
	}
	assert.Equal(t, 200.0, testutil.ToFloat64(counter))

	d, dm := newTestSink(t, Options{EnergyMode: config.EnergyModeDelta})
	d.Apply(energyOutcome(10))
	d.Apply(energyOutcome(math.Inf(1)))
	d.Apply(energyOutcome(math.NaN()))
	assert.Equal(t, 10.0, testutil.ToFloat64(dm.Energy.WithLabelValues(dev, "", nrgOID)))
}

func TestApply_EnergyDelta(t *testing.T) {
	s, m := newTestSink(t, Options{EnergyMode: config.EnergyModeDelta})
	counter := m.Energy.WithLabelValues(dev, "", nrgOID)

	s.Apply(energyOutcome(50))
	s.Apply(energyOutcome(70))
	s.Apply(energyOutcome(-30))
	assert.Equal(t, 120.0, testutil.ToFloat64(counter))
}

func TestApply_EnergyNeverDecreases(t *testing.T) {
	for _, mode := range []string{config.EnergyModeAbsolute, config.EnergyModeDelta} {
		t.Run(mode, func(t *testing.T) {
			s, m := newTestSink(t, Options{EnergyMode: mode})
			counter := m.Energy.WithLabelValues(dev, "", nrgOID)
			rnd := rand.New(rand.NewSource(7))

			prev := 0.0
			for i := 0; i < 500; i++ {
				if rnd.Intn(3) == 0 {
					s.Apply(failedOutcome(model.CategoryEnergy, nrgOID))
				} else {
					s.Apply(energyOutcome(rnd.Float64()*2000 - 500))
				}
				got := testutil.ToFloat64(counter)
				require.GreaterOrEqual(t, got, prev, "cycle %d", i)
				prev = got
			}
		})
	}
}

func TestApply_EstimatedEnergy(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s, m := newTestSink(t, Options{EstimateEnergy: true, Now: func() time.Time { return now }})
	power := func(w float64) model.CycleOutcome {
		return model.CycleOutcome{Device: dev, Succeeded: 1, Readings: []model.NormalizedReading{reading(model.CategoryPower, curOID, w)}}
	}
	est := m.EstimatedEnergy.WithLabelValues(dev, "", curOID)

	s.Apply(power(100))
	assert.Equal(t, 0.0, testutil.ToFloat64(est))

	now = now.Add(time.Hour)
	s.Apply(power(200))
	assert.InDelta(t, 150.0, testutil.ToFloat64(est), 1e-9)

	now = now.Add(30 * time.Minute)
	s.Apply(power(200))
	assert.InDelta(t, 250.0, testutil.ToFloat64(est), 1e-9)
}

func TestApply_Concurrent(t *testing.T) {
	s, m := newTestSink(t, Options{EnergyMode: config.EnergyModeDelta})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Apply(energyOutcome(1))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1000.0, testutil.ToFloat64(m.Energy.WithLabelValues(dev, "", nrgOID)))
}

func TestPromWriter_IgnoresUnknownAndBadInput(t *testing.T) {
	_, m := newTestSink(t, Options{})
	w := NewPromWriter(m)

	w.SetGauge("nope", prometheus.Labels{}, 1)
	w.AddCounter(metrics.EnergyWattHoursTotal, prometheus.Labels{metrics.LabelDevice: dev}, 1)
	w.AddCounter(metrics.EstimatedEnergyTotal, readingLabels(model.Labels{Device: dev}), 1)
	w.AddCounter(metrics.EnergyWattHoursTotal, readingLabels(model.Labels{Device: dev, Identifier: nrgOID}), -5)
	w.AddCounter(metrics.EnergyWattHoursTotal, readingLabels(model.Labels{Device: dev, Identifier: nrgOID}), math.Inf(1))

	assert.Equal(t, 0, testutil.CollectAndCount(m.Energy))
}
