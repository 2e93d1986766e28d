// internal/matching/state.go

package matching

import (
	"errors"
	"fmt"
)

// Stage is where a match sits in the approval workflow
type Stage string

const (
	StagePending                 Stage = "pending"
	StageAcceptedByOne           Stage = "accepted_by_one"
	StageAcceptedByBoth          Stage = "accepted_by_both"
	StagePaymentRequired         Stage = "payment_required"
	StagePaymentCompleted        Stage = "payment_completed"
	StageVirtualMeetingRequired  Stage = "virtual_meeting_required"
	StageVirtualMeetingCompleted Stage = "virtual_meeting_completed"
	StageMatchmakerApproved      Stage = "matchmaker_approved"
	StageDateApproved            Stage = "date_approved"
	StageDeclined                Stage = "declined"
	StageExpired                 Stage = "expired"
)

// Terminal reports whether no further transition is possible
func (s Stage) Terminal() bool {
	return s == StageDateApproved || s == StageDeclined || s == StageExpired
}

// Event drives a stage change
type Event string

const (
	EventAccept            Event = "accept"
	EventRequirePayment    Event = "require_payment"
	EventCompletePayment   Event = "complete_payment"
	EventRequireMeeting    Event = "require_meeting"
	EventScheduleMeeting   Event = "schedule_meeting"
	EventCompleteMeeting   Event = "complete_meeting"
	EventMatchmakerApprove Event = "matchmaker_approve"
	EventApproveDate       Event = "approve_date"
	EventDecline           Event = "decline"
	EventExpire            Event = "expire"

	// audit only, never changes the stage
	EventSendProposal Event = "send_proposal"
)

var (
	ErrInvalidTransition        = errors.New("invalid stage transition")
	ErrVirtualMeetingIncomplete = errors.New("virtual meeting has not been completed")
	ErrMeetingNotScheduled      = errors.New("virtual meeting has not been scheduled")
)

// transitions is the whole workflow: event → from → to
var transitions = map[Event]map[Stage]Stage{
	EventAccept: {
		StagePending:       StageAcceptedByOne,
		StageAcceptedByOne: StageAcceptedByBoth,
	},
	EventRequirePayment: {
		StageAcceptedByBoth: StagePaymentRequired,
	},
	EventCompletePayment: {
		StagePaymentRequired: StagePaymentCompleted,
	},
	EventRequireMeeting: {
		StageAcceptedByBoth:   StageVirtualMeetingRequired,
		StagePaymentCompleted: StageVirtualMeetingRequired,
	},
	EventScheduleMeeting: {
		StageVirtualMeetingRequired: StageVirtualMeetingRequired,
	},
	EventCompleteMeeting: {
		StageVirtualMeetingRequired: StageVirtualMeetingCompleted,
	},
	EventMatchmakerApprove: {
		StageVirtualMeetingCompleted: StageMatchmakerApproved,
	},
	EventApproveDate: {
		StageVirtualMeetingCompleted: StageDateApproved,
		StageMatchmakerApproved:      StageDateApproved,
	},
	EventDecline: {
		StagePending:         StageDeclined,
		StageAcceptedByOne:   StageDeclined,
		StageAcceptedByBoth:  StageDeclined,
		StagePaymentRequired: StageDeclined,
	},
	EventExpire: {
		StagePending:       StageExpired,
		StageAcceptedByOne: StageExpired,
	},
}

// Next returns the stage event leads to from, or ErrInvalidTransition
func Next(from Stage, event Event) (Stage, error) {
	if to, ok := transitions[event][from]; ok {
		return to, nil
	}
	return "", fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, from)
}

// Can reports whether event is allowed from stage
func Can(from Stage, event Event) bool {
	_, ok := transitions[event][from]
	return ok
}
