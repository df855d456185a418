package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeRecoveryState(t *testing.T) {
	tests := []struct {
		name             string
		roundEnded       bool
		distributePoints bool
		hasSavedRound    bool
		want             RecoveryState
	}{
		{
			name: "nothing persisted",
			want: RecoveryFresh,
		},
		{
			name:          "snapshot saved",
			hasSavedRound: true,
			want:          RecoveryResuming,
		},
		{
			name:       "round ended cleanly",
			roundEnded: true,
			want:       RecoveryEnded,
		},
		{
			name:             "crashed before payout",
			roundEnded:       true,
			distributePoints: true,
			want:             RecoveryEndedPendingPayout,
		},
		{
			name:             "stale payout flag without round end",
			distributePoints: true,
			want:             RecoveryFresh,
		},
		{
			name:          "round end wins over stale snapshot",
			roundEnded:    true,
			hasSavedRound: true,
			want:          RecoveryEnded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeRecoveryState(tt.roundEnded, tt.distributePoints, tt.hasSavedRound)
			assert.Equal(t, tt.want, got)
		})
	}
}
