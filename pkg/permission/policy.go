package permission

// VerificationStatus is the caller-supplied snapshot of a user's trust
// level. Evaluate never reads ambient state: the status is loaded by the
// request handler and passed in explicitly.
type VerificationStatus struct {
	EmailVerified bool
	HasUsername   bool
}

// VerificationState is the derived classification of a status. It is never
// stored; it exists so clients can render the right onboarding step.
type VerificationState string

const (
	StateNotVerified   VerificationState = "not_verified"
	StateEmailVerified VerificationState = "email_verified"
	StateFullyVerified VerificationState = "fully_verified"
)

// StateOf derives the verification state from the two stored flags.
func StateOf(status VerificationStatus) VerificationState {
	switch {
	case status.EmailVerified && status.HasUsername:
		return StateFullyVerified
	case status.EmailVerified:
		return StateEmailVerified
	default:
		return StateNotVerified
	}
}

// CheckRequest describes the interaction a user is attempting.
type CheckRequest struct {
	Interaction InteractionType
	Anonymous   bool
}

// CheckResult is the policy decision. When the action is denied, exactly one
// of the two requirement flags is set and Message carries the remediation
// text shown to the user.
type CheckResult struct {
	Allowed                   bool
	RequiresEmailVerification bool
	RequiresUsername          bool
	Message                   string
}

// Remediation messages. Kept friendly and fixed: internal state never leaks
// into user-visible text.
const (
	MsgEmailRequired    = "Please verify your email address to continue"
	MsgUsernameRequired = "Please choose a username to continue"
)

// Evaluate decides whether the interaction is allowed for the given status.
// It is a pure function of its inputs: deterministic, idempotent, no I/O.
// The email requirement is checked before the username requirement so a user
// is walked through onboarding in order.
//
// Evaluate panics if the interaction type is unknown; that is a programmer
// error, not a runtime condition. Callers holding client input should check
// Known first.
func Evaluate(status VerificationStatus, request CheckRequest) CheckResult {
	req, ok := RequirementFor(request.Interaction, request.Anonymous)
	if !ok {
		panic("permission: unknown interaction type: " + string(request.Interaction))
	}

	if req.NeedsEmail && !status.EmailVerified {
		return CheckResult{
			RequiresEmailVerification: true,
			Message:                   MsgEmailRequired,
		}
	}

	if req.NeedsUsername && !status.HasUsername {
		return CheckResult{
			RequiresUsername: true,
			Message:          MsgUsernameRequired,
		}
	}

	return CheckResult{Allowed: true}
}
