package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeValidationCompleted = "validation.completed"
	EventTypeValidationFailed    = "validation.failed"
)

// ValidationCompletedEvent fires when a run reaches a terminal status through
// normal execution, whether it passed or found compliance issues.
type ValidationCompletedEvent struct {
	BaseEvent
	RunID             uuid.UUID `json:"run_id"`
	OrganizationID    uuid.UUID `json:"organization_id"`
	Pipeline          string    `json:"pipeline"`
	Status            string    `json:"status"`
	TotalIssues       int       `json:"total_issues"`
	CriticalIssues    int       `json:"critical_issues"`
	AffectedEmployees int       `json:"affected_employees"`
}

func NewValidationCompletedEvent(runID, orgID uuid.UUID, pipeline, status string, totalIssues, criticalIssues, affectedEmployees int) *ValidationCompletedEvent {
	return &ValidationCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeValidationCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"run_id":             runID.String(),
				"organization_id":    orgID.String(),
				"pipeline":           pipeline,
				"status":             status,
				"total_issues":       totalIssues,
				"critical_issues":    criticalIssues,
				"affected_employees": affectedEmployees,
			},
		},
		RunID:             runID,
		OrganizationID:    orgID,
		Pipeline:          pipeline,
		Status:            status,
		TotalIssues:       totalIssues,
		CriticalIssues:    criticalIssues,
		AffectedEmployees: affectedEmployees,
	}
}

// ValidationFailedEvent fires when the engine itself faulted mid-run. These
// runs are retry candidates; the worker listens for this event.
type ValidationFailedEvent struct {
	BaseEvent
	RunID          uuid.UUID `json:"run_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Pipeline       string    `json:"pipeline"`
	Reason         string    `json:"reason"`
}

func NewValidationFailedEvent(runID, orgID uuid.UUID, pipeline, reason string) *ValidationFailedEvent {
	return &ValidationFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeValidationFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"run_id":          runID.String(),
				"organization_id": orgID.String(),
				"pipeline":        pipeline,
				"reason":          reason,
			},
		},
		RunID:          runID,
		OrganizationID: orgID,
		Pipeline:       pipeline,
		Reason:         reason,
	}
}
