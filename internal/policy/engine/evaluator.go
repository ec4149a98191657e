package engine

import "context"

// Deny reasons returned in Decision.Reason.
const (
	ReasonInvalidRole = "invalid_role"
	ReasonNoRoleBound = "no_role_bound"
	ReasonRoleDiffers = "role_differs"
)

// Input is the policy input for one onboarding request.
type Input struct {
	// RequestedRole is the role named by the onboarding route.
	RequestedRole string
	// ProfileRole is the role bound to the caller's base profile; empty when none is bound.
	ProfileRole string
}

// Decision is the result of evaluating the onboarding policy.
type Decision struct {
	// ValidRole reports whether RequestedRole can be chosen through onboarding.
	ValidRole bool
	// AllowWrite reports whether a role profile of RequestedRole may be written.
	AllowWrite bool
	// Reason names why AllowWrite is false; empty when allowed.
	Reason string
}

// Evaluator evaluates the onboarding role policy.
type Evaluator interface {
	Evaluate(ctx context.Context, in Input) (Decision, error)
}
