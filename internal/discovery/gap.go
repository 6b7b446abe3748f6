package discovery

import (
	"fmt"

	"github.com/mrz1836/alphscan/internal/chain"
	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

// GapState is the outcome of evaluating one probed batch of a group.
type GapState struct {
	// Gap is the number of consecutive inactive addresses at the tail of
	// everything probed so far for the group.
	Gap int

	// Active holds the addresses found active in this batch only,
	// in derivation order.
	Active []chain.Address
}

// EvaluateGap walks addresses and activity pairwise. When the batch has no
// active entry the returned gap is priorGap plus the batch length; otherwise
// it counts the inactive entries after the last active one.
func EvaluateGap(addresses []chain.Address, activity []bool, priorGap int) (GapState, error) {
	if len(addresses) != len(activity) {
		return GapState{}, scanerr.WithDetails(scanerr.ErrActivityMismatch, map[string]string{
			"addresses": fmt.Sprint(len(addresses)),
			"flags":     fmt.Sprint(len(activity)),
		})
	}

	state := GapState{Gap: priorGap, Active: []chain.Address{}}
	for i, used := range activity {
		if used {
			state.Active = append(state.Active, addresses[i])
			state.Gap = 0
			continue
		}
		state.Gap++
	}
	return state, nil
}
