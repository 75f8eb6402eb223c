package tranche

import (
	"math/big"

	"tranchepool/native/registry"
)

// Policy splits a profit event across the tranches. Implementations are
// interchangeable: loss and recovery distribution are policy independent and
// live as package functions. A policy never touches the pool ledger; callers
// apply the returned asset vector.
type Policy interface {
	// Name reports the policy identifier used in configuration and events.
	Name() string
	// DistProfit returns the asset vector after crediting the profit event.
	// asOf is the unix time of the event; only time-sensitive policies
	// consume it. The sum of the result always equals the sum of the input
	// assets plus the profit.
	DistProfit(profit *big.Int, assets Assets, asOf int64) (Assets, error)
}

// RiskAdjustedPolicy splits profit pro rata by tranche assets with the junior
// side weighted by a configured risk adjustment, then caps the junior share.
type RiskAdjustedPolicy struct {
	cache *registry.Cache

	riskAdjustBps     uint64
	maxJuniorShareBps uint64
}

// NewRiskAdjustedPolicy constructs the policy bound to the supplied registry.
func NewRiskAdjustedPolicy(reg *registry.Registry) (*RiskAdjustedPolicy, error) {
	p := &RiskAdjustedPolicy{}
	cache, err := registry.NewCache("tranches.riskadjusted", reg, p.refreshConfig)
	if err != nil {
		return nil, err
	}
	p.cache = cache
	return p, nil
}

// Cache exposes the policy's config cache for sync and rebind workflows.
func (p *RiskAdjustedPolicy) Cache() *registry.Cache { return p.cache }

func (p *RiskAdjustedPolicy) refreshConfig(reg *registry.Registry) (bool, error) {
	riskAdjust := reg.TranchesRiskAdjustmentBps()
	maxShare := reg.MaxJuniorProfitShareBps()
	changed := p.riskAdjustBps != riskAdjust || p.maxJuniorShareBps != maxShare
	p.riskAdjustBps = riskAdjust
	p.maxJuniorShareBps = maxShare
	return changed, nil
}

func (p *RiskAdjustedPolicy) Name() string { return "riskadjusted" }

// DistProfit weights the junior share by the risk adjustment, floors the
// division, applies the configured junior cap and routes the remainder to
// senior so conservation holds exactly.
func (p *RiskAdjustedPolicy) DistProfit(profit *big.Int, assets Assets, _ int64) (Assets, error) {
	if profit == nil || profit.Sign() < 0 {
		return Assets{}, ErrInvalidAmount
	}
	newAssets := assets.Clone()
	if profit.Sign() == 0 {
		return newAssets, nil
	}

	juniorWeight := new(big.Int).Mul(newAssets[Junior], new(big.Int).SetUint64(p.riskAdjustBps))
	seniorWeight := new(big.Int).Mul(newAssets[Senior], basisPoints)
	denom := new(big.Int).Add(juniorWeight, seniorWeight)

	var juniorProfit *big.Int
	if denom.Sign() == 0 {
		// Empty pool: the junior tranche is the residual claimant.
		juniorProfit = new(big.Int).Set(profit)
	} else {
		juniorProfit = new(big.Int).Mul(profit, juniorWeight)
		juniorProfit.Quo(juniorProfit, denom)
	}
	if p.maxJuniorShareBps > 0 {
		if capped := bpsShare(profit, p.maxJuniorShareBps); juniorProfit.Cmp(capped) > 0 {
			juniorProfit = capped
		}
	}
	seniorProfit := new(big.Int).Sub(profit, juniorProfit)

	newAssets[Senior].Add(newAssets[Senior], seniorProfit)
	newAssets[Junior].Add(newAssets[Junior], juniorProfit)
	return newAssets, nil
}
