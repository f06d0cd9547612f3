package services

import (
	"time"

	"github.com/alhafibarefoot/HelpDesk-sub002/pkg/constants"
)

// SLAStatus is the computed SLA position of a request's current step.
// All hour values are real numbers; rounding is a presentation concern and
// never happens here.
type SLAStatus struct {
	ElapsedHours   float64 `json:"elapsed_hours"`
	RemainingHours float64 `json:"remaining_hours"`
	PercentageUsed float64 `json:"percentage_used"`
	IsOverdue      bool    `json:"is_overdue"`
	NeedsWarning   bool    `json:"needs_warning"`
	Label          string  `json:"status,omitempty"`
}

// SLAService computes deadlines and SLA status for workflow steps
type SLAService struct{}

// NewSLAService creates a new SLAService
func NewSLAService() *SLAService {
	return &SLAService{}
}

// ComputeStatus evaluates where a step stands against its SLA at the given
// instant. The deadline instant itself counts as overdue.
func (s *SLAService) ComputeStatus(stepStartedAt time.Time, durationHours, warningThresholdPct float64, now time.Time) SLAStatus {
	elapsed := now.Sub(stepStartedAt).Hours()
	if elapsed < 0 {
		elapsed = 0
	}

	pctUsed := 0.0
	if durationHours > 0 {
		pctUsed = 100 * elapsed / durationHours
	}

	deadline := s.DeadlineFor(stepStartedAt, durationHours)
	overdue := !now.Before(deadline)

	remaining := durationHours - elapsed
	if remaining < 0 {
		remaining = 0
	}

	return SLAStatus{
		ElapsedHours:   elapsed,
		RemainingHours: remaining,
		PercentageUsed: pctUsed,
		IsOverdue:      overdue,
		NeedsWarning:   !overdue && pctUsed >= warningThresholdPct,
	}
}

// DeadlineFor returns the step deadline for a step entered at start
func (s *SLAService) DeadlineFor(start time.Time, durationHours float64) time.Time {
	return start.Add(time.Duration(durationHours * float64(time.Hour)))
}

// StatusLabel maps a computed status onto the request sla_status value
func (s *SLAService) StatusLabel(status SLAStatus) string {
	switch {
	case status.IsOverdue:
		return constants.SLAStatusBreached
	case status.NeedsWarning:
		return constants.SLAStatusAtRisk
	default:
		return constants.SLAStatusOnTrack
	}
}
