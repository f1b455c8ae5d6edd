package graph

import (
	"errors"
	"fmt"
)

// Reason classifies why a workflow mutation was not applied.
type Reason string

const (
	// ReasonSelfReference means the proposed includes name the workflow itself.
	ReasonSelfReference Reason = "self_reference"
	// ReasonNotFound means a referenced workflow does not exist.
	ReasonNotFound Reason = "not_found"
	// ReasonCycleDetected means accepting the proposed includes would create
	// a cycle back to the workflow under mutation.
	ReasonCycleDetected Reason = "cycle_detected"
	// ReasonForbidden means the caller is not the owner of the workflow.
	ReasonForbidden Reason = "forbidden"
	// ReasonStoreUnavailable means the backing store could not be read or
	// written; the request itself may be valid.
	ReasonStoreUnavailable Reason = "store_unavailable"
)

// RejectionError is the typed outcome for a mutation that was not applied.
// All reasons except ReasonStoreUnavailable are expected validation results
// the caller can act on; ReasonStoreUnavailable wraps an infrastructure
// failure and signals "try again later" rather than "your request is invalid".
type RejectionError struct {
	Reason Reason
	// WorkflowID is the offending workflow: the missing include for
	// ReasonNotFound, otherwise the workflow under mutation.
	WorkflowID string
	// Err is the underlying store error for ReasonStoreUnavailable.
	Err error
}

func (e *RejectionError) Error() string {
	switch e.Reason {
	case ReasonSelfReference:
		return fmt.Sprintf("workflow %s cannot include itself", e.WorkflowID)
	case ReasonNotFound:
		return fmt.Sprintf("workflow %s does not exist", e.WorkflowID)
	case ReasonCycleDetected:
		return fmt.Sprintf("including these workflows would create a cycle back to %s", e.WorkflowID)
	case ReasonForbidden:
		return fmt.Sprintf("caller does not own workflow %s", e.WorkflowID)
	case ReasonStoreUnavailable:
		return fmt.Sprintf("workflow store unavailable: %v", e.Err)
	default:
		return fmt.Sprintf("workflow mutation rejected: %s", e.Reason)
	}
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

// AsRejection returns the RejectionError wrapped in err, if any.
func AsRejection(err error) (*RejectionError, bool) {
	var rejection *RejectionError
	if errors.As(err, &rejection) {
		return rejection, true
	}
	return nil, false
}
