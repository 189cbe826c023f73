package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "zero intersection tolerance rejected",
			mutate:  func(c *Config) { c.IntersectionTolerance = 0 },
			wantErr: ErrToleranceNotPositive,
		},
		{
			name:    "negative intersection tolerance rejected",
			mutate:  func(c *Config) { c.IntersectionTolerance = -1 },
			wantErr: ErrToleranceNotPositive,
		},
		{
			name:    "near-miss below intersection tolerance rejected",
			mutate:  func(c *Config) { c.NearMissTolerance = 0.5 },
			wantErr: ErrNearMissTooSmall,
		},
		{
			name:    "negative min trail length rejected",
			mutate:  func(c *Config) { c.MinTrailLength = -10 },
			wantErr: ErrMinLengthNegative,
		},
		{
			name:    "negative min segment length rejected",
			mutate:  func(c *Config) { c.MinSegmentLength = -1 },
			wantErr: ErrMinLengthNegative,
		},
		{
			name:    "zero node tolerance rejected",
			mutate:  func(c *Config) { c.NodeTolerance = 0 },
			wantErr: ErrNodeToleranceInvalid,
		},
		{
			name:    "zero split iterations rejected",
			mutate:  func(c *Config) { c.MaxSplitIterations = 0 },
			wantErr: ErrIterationsNotPositive,
		},
		{
			name:    "tolerance percent above 100 rejected",
			mutate:  func(c *Config) { c.TolerancePercent = 150 },
			wantErr: ErrTolerancePercentRange,
		},
		{
			name:    "zero max routes rejected",
			mutate:  func(c *Config) { c.MaxRoutes = 0 },
			wantErr: ErrMaxRoutesNotPositive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)

			err := c.Validate()

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	var c Config
	c.TargetDistanceKm = 15

	c.ApplyDefaults()

	d := DefaultConfig()
	assert.Equal(t, d.IntersectionTolerance, c.IntersectionTolerance)
	assert.Equal(t, d.NodeTolerance, c.NodeTolerance)
	assert.Equal(t, d.MaxSplitIterations, c.MaxSplitIterations)
	assert.Equal(t, 15.0, c.TargetDistanceKm, "explicit value must survive defaulting")
	assert.NoError(t, c.Validate())
}
