// Package pod walks a trip through the fixed proof-of-delivery stages.
package pod

import (
	"context"
	"errors"
	"fmt"
)

// Stage is a proof-of-delivery status.
type Stage string

const (
	StageStarted      Stage = "started"
	StageComplete     Stage = "complete"
	StagePodReceived  Stage = "pod_received"
	StagePodSubmitted Stage = "pod_submitted"
	StageSettled      Stage = "settled"
)

var stages = []Stage{StageStarted, StageComplete, StagePodReceived, StagePodSubmitted, StageSettled}

var (
	ErrFinalStage        = errors.New("already at final step")
	ErrUnknownStage      = errors.New("unknown pod stage")
	ErrInvalidTransition = errors.New("pod stage can only advance to the next step")
	ErrStatusRejected    = errors.New("pod status update was rejected")
)

// Stages returns the stages in order.
func Stages() []Stage {
	out := make([]Stage, len(stages))
	copy(out, stages)
	return out
}

// Index returns the position of s, or -1 when unknown.
func Index(s Stage) int {
	for i, st := range stages {
		if st == s {
			return i
		}
	}
	return -1
}

// ParseStage accepts a stage name; empty means started.
func ParseStage(v string) (Stage, error) {
	if v == "" {
		return StageStarted, nil
	}
	s := Stage(v)
	if Index(s) < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, v)
	}
	return s, nil
}

// Next returns the stage following s.
func Next(s Stage) (Stage, error) {
	i := Index(s)
	if i < 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownStage, s)
	}
	if i == len(stages)-1 {
		return "", ErrFinalStage
	}
	return stages[i+1], nil
}

// ValidateTransition checks that requested is the immediate successor of current.
func ValidateTransition(current, requested Stage) error {
	next, err := Next(current)
	if err != nil {
		return err
	}
	if requested != next {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, requested)
	}
	return nil
}

// StatusUpdater persists a stage change for a trip.
type StatusUpdater interface {
	UpdateTripPodStatus(ctx context.Context, tripID uint, next Stage) (bool, error)
}

// Tracker advances trips one stage at a time. Failed updates are not retried.
type Tracker struct {
	updater StatusUpdater
}

func NewTracker(u StatusUpdater) *Tracker {
	return &Tracker{updater: u}
}

// Advance moves the trip from current to the next stage and returns it.
func (t *Tracker) Advance(ctx context.Context, tripID uint, current Stage) (Stage, error) {
	next, err := Next(current)
	if err != nil {
		return current, err
	}
	ok, err := t.updater.UpdateTripPodStatus(ctx, tripID, next)
	if err != nil {
		return current, fmt.Errorf("update pod status of trip %d: %w", tripID, err)
	}
	if !ok {
		return current, ErrStatusRejected
	}
	return next, nil
}
