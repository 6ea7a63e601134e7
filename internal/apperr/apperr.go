// Package apperr defines the error-kind taxonomy shared by the coordinator,
// transport, and rule packages. Callers check membership with errors.Is;
// each sentinel documents whether the Loop recovers from it, surfaces it to
// the client, or treats it as fatal.
package apperr

import "errors"

var (
	// ErrParseFailure: LLM output was not recognizable JSON after one repair
	// attempt. Recovered — the caller substitutes a default narrative.
	ErrParseFailure = errors.New("apperr: parse failure")

	// ErrAgentFailure: a sub-agent returned success=false. Recovered — the
	// Loop appends an empty-content entry and continues.
	ErrAgentFailure = errors.New("apperr: agent failure")

	// ErrAgentNotFound: the coordinator dispatched to an unregistered agent
	// name. Recovered — the iteration is skipped.
	ErrAgentNotFound = errors.New("apperr: agent not found")

	// ErrLoopExceeded: iterations exhausted without a RESPOND action.
	// Surfaced as complete(success=false).
	ErrLoopExceeded = errors.New("apperr: loop iteration limit exceeded")

	// ErrTimeout: a per-call or per-turn timeout elapsed. Surfaced as
	// error + complete(success=false); pending_resume is cleared.
	ErrTimeout = errors.New("apperr: timeout")

	// ErrTransitionRefused: target_location was not reachable from the
	// current location. Logged; the narrative is still delivered.
	ErrTransitionRefused = errors.New("apperr: scene transition refused")

	// ErrResumeInvalid: a dice_result arrived with no pending_resume.
	// Surfaced as error.
	ErrResumeInvalid = errors.New("apperr: no pending resume state")

	// ErrProtocolBusy: an inbound message arrived mid-turn while the
	// session was not awaiting a dice_result. Surfaced as error; the
	// running turn proceeds unaffected.
	ErrProtocolBusy = errors.New("apperr: session busy")

	// ErrWorldPackError: the world pack is missing or malformed. Fatal at
	// session creation.
	ErrWorldPackError = errors.New("apperr: world pack error")
)
