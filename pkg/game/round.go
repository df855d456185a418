package game

// Round is the mutable state of one word-guessing round. Exactly one Round
// exists per engine and it is mutated in place, never copied. When Running is
// false the other fields are meaningless.
type Round struct {
	CurrentWord     string
	CurrentCategory string
	PointValue      int
	Running         bool
}

// Meta keys used to persist round state across restarts.
const (
	metaRoundEnd         = "round_end"
	metaUpdateRound      = "update_round"
	metaDistributePoints = "distribute_points"
	metaCurrentWord      = "cur_word"
	metaCurrentCategory  = "cur_cat"
	metaCurrentPoints    = "cur_points"
)

// RecoveryState classifies the persisted flag triad at engine startup.
type RecoveryState int

const (
	// RecoveryFresh means no round state was persisted; a new round starts.
	RecoveryFresh RecoveryState = iota
	// RecoveryResuming means a round snapshot was saved on teardown and the
	// engine resumes it.
	RecoveryResuming
	// RecoveryEnded means the previous round ended cleanly.
	RecoveryEnded
	// RecoveryEndedPendingPayout means the previous process stopped between
	// collecting the final ranking and paying out tokens; the payout must be
	// replayed before anything else.
	RecoveryEndedPendingPayout
)

func (s RecoveryState) String() string {
	switch s {
	case RecoveryFresh:
		return "fresh"
	case RecoveryResuming:
		return "resuming"
	case RecoveryEnded:
		return "ended"
	case RecoveryEndedPendingPayout:
		return "ended-pending-payout"
	default:
		return "unknown"
	}
}

// ComputeRecoveryState maps the raw persisted flags onto a RecoveryState.
func ComputeRecoveryState(roundEnded, distributePoints, hasSavedRound bool) RecoveryState {
	switch {
	case roundEnded && distributePoints:
		return RecoveryEndedPendingPayout
	case roundEnded:
		return RecoveryEnded
	case hasSavedRound:
		return RecoveryResuming
	default:
		return RecoveryFresh
	}
}
