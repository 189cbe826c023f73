package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntersectionKindSplittable(t *testing.T) {
	tests := []struct {
		kind IntersectionKind
		want bool
	}{
		{KindXCrossing, true},
		{KindTIntersection, true},
		{KindSharedEndpoint, false},
		{KindDual, true},
		{KindDoubleX, true},
		{KindPIntersection, true},
		{KindNearMiss, true},
		{KindDegenerate, false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Splittable())
		})
	}
}

func TestIntersectionKindString(t *testing.T) {
	assert.Equal(t, "x-crossing", KindXCrossing.String())
	assert.Equal(t, "shared-endpoint", KindSharedEndpoint.String())
	assert.Equal(t, "unknown", IntersectionKind(99).String())
}

func TestTrailValidate(t *testing.T) {
	tests := []struct {
		name    string
		trail   Trail
		wantErr error
	}{
		{
			name:  "two points ok",
			trail: Trail{Name: "Mesa", Geom: []Point{{Lon: -105.29, Lat: 39.99}, {Lon: -105.28, Lat: 39.98}}},
		},
		{
			name:    "single point rejected",
			trail:   Trail{Name: "Mesa", Geom: []Point{{Lon: -105.29, Lat: 39.99}}},
			wantErr: ErrTrailTooFewPoints,
		},
		{
			name:    "missing name rejected",
			trail:   Trail{Geom: []Point{{Lon: -105.29, Lat: 39.99}, {Lon: -105.28, Lat: 39.98}}},
			wantErr: ErrTrailNoName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trail.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEdgeOther(t *testing.T) {
	e := Edge{Source: 3, Target: 7}
	assert.Equal(t, int64(7), e.Other(3))
	assert.Equal(t, int64(3), e.Other(7))
}

func TestDiagnosticsMerge(t *testing.T) {
	var a, b Diagnostics
	a.Warn(ErrDegenerateSplit, "splitter", "t1", "segment 2m below 5m minimum")
	a.SegmentsDropped = 1
	b.Warn(ErrGeometry, "detector", "t2", "self-intersecting geometry")
	b.TrailsRejected = 1

	a.Merge(&b)

	assert.Len(t, a.Warnings, 2)
	assert.Equal(t, 1, a.SegmentsDropped)
	assert.Equal(t, 1, a.TrailsRejected)
	assert.True(t, a.HasWarning(ErrGeometry))
	assert.False(t, a.HasWarning(ErrSearchBudget))
}
