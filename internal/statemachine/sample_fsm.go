// Package statemachine drives entity lifecycles with looplab/fsm.
package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	apperrors "labtrack/internal/errors"
	"labtrack/internal/models"
)

// Sample lifecycle events.
const (
	EventStartTesting = "start_testing"
	EventComplete     = "complete"
	EventArchive      = "archive"
	EventReject       = "reject"
)

// SampleFSM wraps a sample with its lifecycle state machine.
type SampleFSM struct {
	sample *models.Sample
	fsm    *fsm.FSM
}

// NewSampleFSM creates a state machine positioned at the sample's status.
func NewSampleFSM(sample *models.Sample) *SampleFSM {
	status := sample.Status
	if status == "" {
		status = models.SampleStatusReceived
	}

	return &SampleFSM{
		sample: sample,
		fsm: fsm.NewFSM(
			string(status),
			fsm.Events{
				// received → in_testing
				{Name: EventStartTesting, Src: []string{string(models.SampleStatusReceived)}, Dst: string(models.SampleStatusInTesting)},

				// in_testing → completed
				{Name: EventComplete, Src: []string{string(models.SampleStatusInTesting)}, Dst: string(models.SampleStatusCompleted)},

				// completed → archived
				{Name: EventArchive, Src: []string{string(models.SampleStatusCompleted)}, Dst: string(models.SampleStatusArchived)},

				// any open state → rejected
				{Name: EventReject, Src: []string{
					string(models.SampleStatusReceived),
					string(models.SampleStatusInTesting),
					string(models.SampleStatusCompleted),
				}, Dst: string(models.SampleStatusRejected)},
			},
			fsm.Callbacks{},
		),
	}
}

// eventFor maps a requested target status to the event reaching it.
var eventFor = map[models.SampleStatus]string{
	models.SampleStatusInTesting: EventStartTesting,
	models.SampleStatusCompleted: EventComplete,
	models.SampleStatusArchived:  EventArchive,
	models.SampleStatusRejected:  EventReject,
}

// TransitionTo moves the sample to target and updates its status field.
func (s *SampleFSM) TransitionTo(ctx context.Context, target models.SampleStatus) error {
	if target == s.sample.Status {
		return nil
	}
	event, ok := eventFor[target]
	if !ok || !s.fsm.Can(event) {
		return apperrors.WithMessage(apperrors.ErrInvalidStatusTransition,
			fmt.Sprintf("Sample cannot move from %s to %s", s.sample.Status, target))
	}

	if err := s.fsm.Event(ctx, event); err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidStatusTransition, err)
	}
	s.sample.Status = models.SampleStatus(s.fsm.Current())
	return nil
}

// Available lists the statuses reachable from the current one.
func (s *SampleFSM) Available() []models.SampleStatus {
	var out []models.SampleStatus
	for status, event := range eventFor {
		if s.fsm.Can(event) {
			out = append(out, status)
		}
	}
	return out
}
