package crash

// Error is a game error with a code that is stable across the wire.
type Error struct {
	Code string
}

func (e *Error) Error() string { return e.Code }

// Structural errors.
var (
	ErrNoActiveRound       = &Error{Code: "NO_ACTIVE_ROUND"}
	ErrBettingClosed       = &Error{Code: "BETTING_CLOSED"}
	ErrGameNotRunning      = &Error{Code: "GAME_NOT_RUNNING"}
	ErrCurveAlreadyCrashed = &Error{Code: "CURVE_ALREADY_CRASHED"}
)

// Input errors.
var (
	ErrInvalidSlot       = &Error{Code: "INVALID_SLOT"}
	ErrBelowMin          = &Error{Code: "BELOW_MIN"}
	ErrAboveMax          = &Error{Code: "ABOVE_MAX"}
	ErrInvalidAutoTarget = &Error{Code: "INVALID_AUTO_TARGET"}
	ErrInvalidMultiplier = &Error{Code: "INVALID_MULTIPLIER"}
	ErrInvalidVariant    = &Error{Code: "INVALID_VARIANT"}
	ErrInvalidSeedLength = &Error{Code: "INVALID_SEED_LENGTH"}
)

// State errors.
var (
	ErrDuplicateBet   = &Error{Code: "DUPLICATE_BET"}
	ErrNoBet          = &Error{Code: "NO_BET"}
	ErrAlreadySettled = &Error{Code: "ALREADY_SETTLED"}
	ErrTooLate        = &Error{Code: "TOO_LATE"}
)

// Throttling, funds, authz and systemic errors.
var (
	ErrRateLimited        = &Error{Code: "RATE_LIMITED"}
	ErrInsufficientFunds  = &Error{Code: "INSUFFICIENT_FUNDS"}
	ErrAuthRequired       = &Error{Code: "AUTH_REQUIRED"}
	ErrWalletUnavailable  = &Error{Code: "WALLET_UNAVAILABLE"}
	ErrCommitmentMismatch = &Error{Code: "COMMITMENT_MISMATCH"}
)

// CodeOf returns the wire code for an error, falling back to the error
// message for errors that did not originate in the game domain.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	if ge, ok := err.(*Error); ok {
		return ge.Code
	}
	return err.Error()
}
