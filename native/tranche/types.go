package tranche

import "math/big"

// TrancheIndex identifies a tranche's position in the loss waterfall. The
// ordering is load-bearing: senior precedes junior in every persisted array.
type TrancheIndex int

const (
	// Senior is the tranche last exposed to loss and first made whole.
	Senior TrancheIndex = iota
	// Junior is the first-loss tranche.
	Junior

	trancheCount
)

// Assets is the ordered pair of tranche asset values denominated in the
// pool's base unit. At every quiescent point the pair sums to the total pool
// assets.
type Assets [trancheCount]*big.Int

// NewAssets builds an asset pair, treating nil entries as zero.
func NewAssets(senior, junior *big.Int) Assets {
	return Assets{copyOrZero(senior), copyOrZero(junior)}
}

// Clone returns a deep copy with nil entries normalized to zero.
func (a Assets) Clone() Assets {
	return Assets{copyOrZero(a[Senior]), copyOrZero(a[Junior])}
}

// Total reports the combined asset value of both tranches.
func (a Assets) Total() *big.Int {
	total := copyOrZero(a[Senior])
	if a[Junior] != nil {
		total.Add(total, a[Junior])
	}
	return total
}

// Losses is the ordered pair of cumulative unrecovered loss per tranche.
// Values only decrease when a recovery event pays a tranche back.
type Losses [trancheCount]*big.Int

// NewLosses builds a loss pair, treating nil entries as zero.
func NewLosses(senior, junior *big.Int) Losses {
	return Losses{copyOrZero(senior), copyOrZero(junior)}
}

// Clone returns a deep copy with nil entries normalized to zero.
func (l Losses) Clone() Losses {
	return Losses{copyOrZero(l[Senior]), copyOrZero(l[Junior])}
}

// Total reports the combined outstanding loss across both tranches.
func (l Losses) Total() *big.Int {
	total := copyOrZero(l[Senior])
	if l[Junior] != nil {
		total.Add(total, l[Junior])
	}
	return total
}

// YieldTracker carries the fixed senior yield policy's only mutable state:
// the unpaid senior entitlement and the instant it was last accrued to.
type YieldTracker struct {
	// LastUpdated is the unix time the unpaid yield was last accrued to.
	LastUpdated int64 `json:"lastUpdated"`
	// UnpaidYield is the senior entitlement accrued but not yet paid out of
	// profit. Never negative.
	UnpaidYield *big.Int `json:"unpaidYield"`
}

// Clone returns a deep copy of the tracker.
func (t *YieldTracker) Clone() *YieldTracker {
	if t == nil {
		return nil
	}
	return &YieldTracker{
		LastUpdated: t.LastUpdated,
		UnpaidYield: copyOrZero(t.UnpaidYield),
	}
}

func copyOrZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
