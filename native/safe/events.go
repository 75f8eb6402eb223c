package safe

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"tranchepool/core/types"
)

const (
	// EventTypeDeposited is emitted when custodial value enters the safe.
	EventTypeDeposited = "poolsafe.deposited"
	// EventTypeWithdrawn is emitted when custodial value leaves the safe.
	EventTypeWithdrawn = "poolsafe.withdrawn"
	// EventTypeProfitAdded is emitted when the pool credits unprocessed
	// profit to a tranche vault.
	EventTypeProfitAdded = "poolsafe.profit_added"
	// EventTypeProfitReset is emitted when a tranche vault folds its profit
	// into the share price and clears the accumulator.
	EventTypeProfitReset = "poolsafe.profit_reset"
)

// NewDepositedEvent returns the canonical payload for a deposit.
func NewDepositedEvent(caller, from common.Address, amount, balance *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeDeposited,
		Attributes: map[string]string{
			"caller":  caller.Hex(),
			"from":    from.Hex(),
			"amount":  amount.String(),
			"balance": balance.String(),
		},
	}
}

// NewWithdrawnEvent returns the canonical payload for a withdrawal.
func NewWithdrawnEvent(caller, to common.Address, amount, balance *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeWithdrawn,
		Attributes: map[string]string{
			"caller":  caller.Hex(),
			"to":      to.Hex(),
			"amount":  amount.String(),
			"balance": balance.String(),
		},
	}
}

// NewProfitAddedEvent returns the canonical payload for an unprocessed
// profit credit.
func NewProfitAddedEvent(tranche common.Address, amount, total *big.Int) *types.Event {
	return &types.Event{
		Type: EventTypeProfitAdded,
		Attributes: map[string]string{
			"tranche": tranche.Hex(),
			"amount":  amount.String(),
			"total":   total.String(),
		},
	}
}

// NewProfitResetEvent returns the canonical payload for a profit reset.
func NewProfitResetEvent(tranche common.Address) *types.Event {
	return &types.Event{
		Type: EventTypeProfitReset,
		Attributes: map[string]string{
			"tranche": tranche.Hex(),
		},
	}
}
