package enums

import "slices"

// ReturnStatus tracks a return request through review and refund.
type ReturnStatus string

const (
	ReturnStatusRequested ReturnStatus = "REQUESTED"
	ReturnStatusApproved  ReturnStatus = "APPROVED"
	ReturnStatusRejected  ReturnStatus = "REJECTED"
	ReturnStatusRefunded  ReturnStatus = "REFUNDED"
)

var returnStatuses = set[ReturnStatus]{
	ReturnStatusRequested, ReturnStatusApproved, ReturnStatusRejected, ReturnStatusRefunded,
}

// REJECTED and REFUNDED have no outgoing edges.
var returnTransitions = map[ReturnStatus][]ReturnStatus{
	ReturnStatusRequested: {ReturnStatusApproved, ReturnStatusRejected},
	ReturnStatusApproved:  {ReturnStatusRefunded},
}

func (s ReturnStatus) String() string { return string(s) }
func (s ReturnStatus) IsValid() bool  { return returnStatuses.has(s) }

// CanTransitionTo reports whether a return in status s may move to next.
func (s ReturnStatus) CanTransitionTo(next ReturnStatus) bool {
	return slices.Contains(returnTransitions[s], next)
}

func ParseReturnStatus(raw string) (ReturnStatus, error) {
	return returnStatuses.parse("return status", raw)
}
