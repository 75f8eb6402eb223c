package tranche

import (
	"errors"
	"math/big"

	"tranchepool/core/types"
	"tranchepool/native/calendar"
	"tranchepool/native/registry"
)

var errNilYieldState = errors.New("tranches policy: yield state not configured")

// YieldState persists the fixed senior yield tracker between profit events.
type YieldState interface {
	GetYieldTracker() (*YieldTracker, error)
	PutYieldTracker(tracker *YieldTracker) error
}

// FixedSeniorYieldPolicy entitles the senior tranche to a target annualized
// yield accrued continuously on its asset base. Each profit event refreshes
// the unpaid entitlement for the elapsed interval, pays it down out of the
// available profit and routes the remainder to junior.
type FixedSeniorYieldPolicy struct {
	cache  *registry.Cache
	cal    calendar.Calendar
	state  YieldState
	events types.Emitter

	yieldBps uint64
}

// NewFixedSeniorYieldPolicy constructs the policy bound to the supplied
// registry and calendar.
func NewFixedSeniorYieldPolicy(reg *registry.Registry, cal calendar.Calendar) (*FixedSeniorYieldPolicy, error) {
	if cal == nil {
		return nil, registry.ErrInvalidArgument
	}
	p := &FixedSeniorYieldPolicy{cal: cal}
	cache, err := registry.NewCache("tranches.fixedyield", reg, p.refreshConfig)
	if err != nil {
		return nil, err
	}
	p.cache = cache
	return p, nil
}

// SetState wires the policy to the external tracker persistence layer.
func (p *FixedSeniorYieldPolicy) SetState(state YieldState) { p.state = state }

// SetEmitter wires the sink receiving yield tracker refresh events.
func (p *FixedSeniorYieldPolicy) SetEmitter(events types.Emitter) { p.events = events }

// Cache exposes the policy's config cache for sync and rebind workflows.
func (p *FixedSeniorYieldPolicy) Cache() *registry.Cache { return p.cache }

func (p *FixedSeniorYieldPolicy) refreshConfig(reg *registry.Registry) (bool, error) {
	yieldBps := reg.SeniorYieldBps()
	changed := p.yieldBps != yieldBps
	p.yieldBps = yieldBps
	return changed, nil
}

func (p *FixedSeniorYieldPolicy) Name() string { return "fixedyield" }

// DistProfit accrues the senior entitlement for the interval since the
// tracker's last update, pays it down out of the profit and routes whatever
// remains to junior. The tracker advance is the policy's only side effect.
func (p *FixedSeniorYieldPolicy) DistProfit(profit *big.Int, assets Assets, asOf int64) (Assets, error) {
	if p.state == nil {
		return Assets{}, errNilYieldState
	}
	if profit == nil || profit.Sign() < 0 {
		return Assets{}, ErrInvalidAmount
	}
	newAssets := assets.Clone()

	tracker, err := p.ensureTracker(asOf)
	if err != nil {
		return Assets{}, err
	}
	if asOf < tracker.LastUpdated {
		return Assets{}, ErrInvalidTimeRange
	}

	accrued := accruedYield(newAssets[Senior], p.yieldBps, asOf-tracker.LastUpdated, p.cal.SecondsPerYear())
	tracker.UnpaidYield.Add(tracker.UnpaidYield, accrued)
	tracker.LastUpdated = asOf

	seniorProfit := minBig(tracker.UnpaidYield, profit)
	tracker.UnpaidYield.Sub(tracker.UnpaidYield, seniorProfit)
	juniorProfit := new(big.Int).Sub(profit, seniorProfit)

	newAssets[Senior].Add(newAssets[Senior], seniorProfit)
	newAssets[Junior].Add(newAssets[Junior], juniorProfit)

	if err := p.state.PutYieldTracker(tracker); err != nil {
		return Assets{}, err
	}
	if p.events != nil {
		p.events.Emit(NewYieldRefreshedEvent(tracker, seniorProfit))
	}
	return newAssets, nil
}

// UnpaidSeniorYield reports the tracker's outstanding senior entitlement.
func (p *FixedSeniorYieldPolicy) UnpaidSeniorYield() (*big.Int, error) {
	if p.state == nil {
		return nil, errNilYieldState
	}
	tracker, err := p.state.GetYieldTracker()
	if err != nil {
		return nil, err
	}
	if tracker == nil || tracker.UnpaidYield == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(tracker.UnpaidYield), nil
}

func (p *FixedSeniorYieldPolicy) ensureTracker(asOf int64) (*YieldTracker, error) {
	tracker, err := p.state.GetYieldTracker()
	if err != nil {
		return nil, err
	}
	if tracker == nil {
		// First distribution: accrual starts now, nothing owed retroactively.
		return &YieldTracker{LastUpdated: asOf, UnpaidYield: big.NewInt(0)}, nil
	}
	tracker = tracker.Clone()
	if tracker.UnpaidYield == nil {
		tracker.UnpaidYield = big.NewInt(0)
	}
	return tracker, nil
}

// accruedYield computes deployed * bps * elapsed / (10_000 * secondsPerYear)
// with truncating division. Truncation favours the protocol and keeps the
// rounding bias in one direction across events.
func accruedYield(deployed *big.Int, bps uint64, elapsed, secondsPerYear int64) *big.Int {
	if deployed == nil || deployed.Sign() <= 0 || bps == 0 || elapsed <= 0 || secondsPerYear <= 0 {
		return big.NewInt(0)
	}
	num := new(big.Int).Mul(deployed, new(big.Int).SetUint64(bps))
	num.Mul(num, big.NewInt(elapsed))
	den := new(big.Int).Mul(basisPoints, big.NewInt(secondsPerYear))
	return num.Quo(num, den)
}
