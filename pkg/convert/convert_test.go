package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdu-collector/pkg/model"
)

func TestNormalize(t *testing.T) {
	c := New(0)

	assert.Equal(t, 0.3, c.Normalize(model.CategoryCurrent, 300))
	assert.Equal(t, 120.0, c.Normalize(model.CategoryEnergy, 12))
	assert.Equal(t, 229.5, c.Normalize(model.CategoryVoltage, 229.5))
	assert.Equal(t, 12.0, c.Normalize(model.CategoryUptime, 1200))
}

func TestNormalize_ScaleOverride(t *testing.T) {
	assert.Equal(t, 12000.0, New(1000).Normalize(model.CategoryEnergy, 12))
	assert.Equal(t, DefaultEnergyScale, New(-1).EnergyScale)
}

func TestNormalize_NoClamping(t *testing.T) {
	c := New(DefaultEnergyScale)
	assert.Equal(t, -0.5, c.Normalize(model.CategoryCurrent, -500))
	assert.Equal(t, -20.0, c.Normalize(model.CategoryEnergy, -2))
}

func TestPowerWatts(t *testing.T) {
	assert.InDelta(t, 69.0, PowerWatts(230, 0.3), 1e-9)
}

func TestConvert(t *testing.T) {
	r := New(0).Convert(model.Observation{
		Identifier: ".1.3.6.1.4.1.318.1.1.26.9.4.3.1.6.4",
		Raw:        1200,
		Category:   model.CategoryCurrent,
		Device:     "pdu1",
		Target:     "srv1",
	})
	assert.Equal(t, model.Labels{
		Device:     "pdu1",
		Category:   model.CategoryCurrent,
		Target:     "srv1",
		Identifier: ".1.3.6.1.4.1.318.1.1.26.9.4.3.1.6.4",
	}, r.Labels)
	assert.Equal(t, 1.2, r.Value)
}
