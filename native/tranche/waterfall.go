package tranche

import (
	"errors"
	"math/big"
)

var (
	// ErrInvalidAmount reports a nil or negative value event.
	ErrInvalidAmount = errors.New("tranches policy: amount must be non-negative")
	// ErrLossExceedsCapacity is returned when a reported loss is larger than
	// the total pool assets. The credit layer must never report such a loss;
	// failing fast surfaces the upstream bug instead of guessing a clamp.
	ErrLossExceedsCapacity = errors.New("tranches policy: loss exceeds total pool assets")
	// ErrInvalidTimeRange is returned when a profit event carries a timestamp
	// earlier than the yield tracker's last accrual instant.
	ErrInvalidTimeRange = errors.New("tranches policy: time range is negative")
)

// DistLoss allocates a loss event across the tranches with junior-first
// absorption. Assets shrink by the absorbed amounts and the cumulative loss
// ledgers grow by the same amounts; the pair of returned vectors always
// conserves value. The inputs are never mutated.
func DistLoss(loss *big.Int, assets Assets, losses Losses) (Assets, Losses, error) {
	if loss == nil || loss.Sign() < 0 {
		return Assets{}, Losses{}, ErrInvalidAmount
	}
	newAssets := assets.Clone()
	newLosses := losses.Clone()
	if loss.Sign() == 0 {
		return newAssets, newLosses, nil
	}
	if loss.Cmp(newAssets.Total()) > 0 {
		return Assets{}, Losses{}, ErrLossExceedsCapacity
	}

	juniorAbsorbed := minBig(loss, newAssets[Junior])
	seniorAbsorbed := new(big.Int).Sub(loss, juniorAbsorbed)

	newAssets[Junior].Sub(newAssets[Junior], juniorAbsorbed)
	newAssets[Senior].Sub(newAssets[Senior], seniorAbsorbed)
	newLosses[Junior].Add(newLosses[Junior], juniorAbsorbed)
	newLosses[Senior].Add(newLosses[Senior], seniorAbsorbed)

	return newAssets, newLosses, nil
}

// DistLossRecovery applies a recovery event against outstanding losses with
// senior-first priority, the inverse of the absorption order. Any recovery
// beyond the outstanding losses is returned to the caller, which is
// responsible for crediting it elsewhere. The inputs are never mutated.
func DistLossRecovery(recovery *big.Int, assets Assets, losses Losses) (*big.Int, Assets, Losses, error) {
	if recovery == nil || recovery.Sign() < 0 {
		return nil, Assets{}, Losses{}, ErrInvalidAmount
	}
	newAssets := assets.Clone()
	newLosses := losses.Clone()
	remaining := new(big.Int).Set(recovery)
	if recovery.Sign() == 0 {
		return remaining, newAssets, newLosses, nil
	}

	seniorRecovered := minBig(remaining, newLosses[Senior])
	newLosses[Senior].Sub(newLosses[Senior], seniorRecovered)
	newAssets[Senior].Add(newAssets[Senior], seniorRecovered)
	remaining.Sub(remaining, seniorRecovered)

	juniorRecovered := minBig(remaining, newLosses[Junior])
	newLosses[Junior].Sub(newLosses[Junior], juniorRecovered)
	newAssets[Junior].Add(newAssets[Junior], juniorRecovered)
	remaining.Sub(remaining, juniorRecovered)

	return remaining, newAssets, newLosses, nil
}
