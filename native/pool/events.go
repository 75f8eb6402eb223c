package pool

import (
	"math/big"

	"tranchepool/core/types"
	"tranchepool/native/tranche"
)

const (
	// EventTypeProfitDistributed is emitted after a profit event is split
	// across the tranches.
	EventTypeProfitDistributed = "pool.profit_distributed"
	// EventTypeLossDistributed is emitted after a loss event is absorbed.
	EventTypeLossDistributed = "pool.loss_distributed"
	// EventTypeLossRecovered is emitted after a recovery event pays
	// outstanding losses back.
	EventTypeLossRecovered = "pool.loss_recovered"
)

// NewProfitDistributedEvent returns the canonical payload for a profit event.
func NewProfitDistributedEvent(profit *big.Int, assets tranche.Assets) *types.Event {
	attrs := map[string]string{"profit": profit.String()}
	addTrancheAttrs(attrs, assets, tranche.Losses{})
	return &types.Event{Type: EventTypeProfitDistributed, Attributes: attrs}
}

// NewLossDistributedEvent returns the canonical payload for a loss event.
func NewLossDistributedEvent(loss *big.Int, assets tranche.Assets, losses tranche.Losses) *types.Event {
	attrs := map[string]string{"loss": loss.String()}
	addTrancheAttrs(attrs, assets, losses)
	return &types.Event{Type: EventTypeLossDistributed, Attributes: attrs}
}

// NewLossRecoveredEvent returns the canonical payload for a recovery event.
// remaining carries the portion that re-entered the pool as profit.
func NewLossRecoveredEvent(recovery, remaining *big.Int, assets tranche.Assets, losses tranche.Losses) *types.Event {
	attrs := map[string]string{
		"recovery":  recovery.String(),
		"remaining": remaining.String(),
	}
	addTrancheAttrs(attrs, assets, losses)
	return &types.Event{Type: EventTypeLossRecovered, Attributes: attrs}
}

func addTrancheAttrs(attrs map[string]string, assets tranche.Assets, losses tranche.Losses) {
	if assets[tranche.Senior] != nil {
		attrs["seniorAssets"] = assets[tranche.Senior].String()
	}
	if assets[tranche.Junior] != nil {
		attrs["juniorAssets"] = assets[tranche.Junior].String()
	}
	if losses[tranche.Senior] != nil {
		attrs["seniorLoss"] = losses[tranche.Senior].String()
	}
	if losses[tranche.Junior] != nil {
		attrs["juniorLoss"] = losses[tranche.Junior].String()
	}
}
