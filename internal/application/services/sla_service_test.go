package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alhafibarefoot/HelpDesk-sub002/pkg/constants"
)

func TestComputeStatus_WarningThenBreach(t *testing.T) {
	svc := NewSLAService()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// 24h SLA, warn at 75%: at T0+18h we are at exactly 75% used
	st := svc.ComputeStatus(t0, 24, 75, t0.Add(18*time.Hour))
	assert.InDelta(t, 18.0, st.ElapsedHours, 1e-9)
	assert.InDelta(t, 6.0, st.RemainingHours, 1e-9)
	assert.InDelta(t, 75.0, st.PercentageUsed, 1e-9)
	assert.False(t, st.IsOverdue)
	assert.True(t, st.NeedsWarning)
	assert.Equal(t, constants.SLAStatusAtRisk, svc.StatusLabel(st))

	// at T0+25h the step is overdue; warning flag drops away
	st = svc.ComputeStatus(t0, 24, 75, t0.Add(25*time.Hour))
	assert.True(t, st.IsOverdue)
	assert.False(t, st.NeedsWarning)
	assert.InDelta(t, 0.0, st.RemainingHours, 1e-9)
	assert.Greater(t, st.PercentageUsed, 100.0)
	assert.Equal(t, constants.SLAStatusBreached, svc.StatusLabel(st))
}

func TestComputeStatus_ExactDeadlineIsOverdue(t *testing.T) {
	svc := NewSLAService()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	st := svc.ComputeStatus(t0, 24, 75, t0.Add(24*time.Hour))
	assert.True(t, st.IsOverdue)
	assert.InDelta(t, 0.0, st.RemainingHours, 1e-9)
}

func TestComputeStatus_ClockSkewFloorsElapsedAtZero(t *testing.T) {
	svc := NewSLAService()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	st := svc.ComputeStatus(t0, 8, 50, t0.Add(-time.Hour))
	assert.Equal(t, 0.0, st.ElapsedHours)
	assert.Equal(t, 0.0, st.PercentageUsed)
	assert.False(t, st.IsOverdue)
	assert.False(t, st.NeedsWarning)
	assert.Equal(t, constants.SLAStatusOnTrack, svc.StatusLabel(st))
}

func TestComputeStatus_FractionalHours(t *testing.T) {
	svc := NewSLAService()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	st := svc.ComputeStatus(t0, 1.5, 50, t0.Add(45*time.Minute))
	assert.InDelta(t, 0.75, st.ElapsedHours, 1e-9)
	assert.InDelta(t, 0.75, st.RemainingHours, 1e-9)
	assert.InDelta(t, 50.0, st.PercentageUsed, 1e-9)
	assert.True(t, st.NeedsWarning)
}

func TestDeadlineFor(t *testing.T) {
	svc := NewSLAService()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, t0.Add(90*time.Minute), svc.DeadlineFor(t0, 1.5))
}
