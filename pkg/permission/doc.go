// Package permission decides whether a user may perform an interaction
// given their verification status.
//
// The policy is a static table mapping each interaction type to the
// requirements it carries (verified email, chosen username). Evaluate is a
// pure function: it receives the user's status explicitly and returns a
// CheckResult carrying the allow/deny decision plus the remediation the
// user must complete to proceed.
//
//	status := permission.VerificationStatus{EmailVerified: true}
//	result := permission.Evaluate(status, permission.CheckRequest{
//		Interaction: permission.InteractionComment,
//	})
//	if !result.Allowed {
//		// result.RequiresUsername is true; prompt for a username
//	}
//
// Anonymous posting is the one special case: publishing a post with
// Anonymous set waives the username requirement, matching the requirement
// profile of InteractionPublishAnonymous.
package permission
