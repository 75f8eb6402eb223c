package tranche

import (
	"math/big"
	"strconv"

	"tranchepool/core/types"
)

// EventTypeYieldRefreshed is emitted when the fixed senior yield tracker is
// advanced during a profit distribution.
const EventTypeYieldRefreshed = "tranches.yield_refreshed"

// NewYieldRefreshedEvent returns the canonical payload for a yield tracker
// refresh, carrying the senior payout applied during the event.
func NewYieldRefreshedEvent(tracker *YieldTracker, seniorPaid *big.Int) *types.Event {
	attrs := make(map[string]string)
	if tracker != nil {
		attrs["lastUpdated"] = strconv.FormatInt(tracker.LastUpdated, 10)
		if tracker.UnpaidYield != nil {
			attrs["unpaidYield"] = tracker.UnpaidYield.String()
		}
	}
	if seniorPaid != nil {
		attrs["seniorPaid"] = seniorPaid.String()
	}
	return &types.Event{Type: EventTypeYieldRefreshed, Attributes: attrs}
}
