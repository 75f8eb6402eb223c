package pool

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"tranchepool/core/types"
	nativecommon "tranchepool/native/common"
	"tranchepool/native/registry"
	"tranchepool/native/safe"
	"tranchepool/native/tranche"
	"tranchepool/observability/metrics"
)

var (
	errNilState  = errors.New("pool: tranche state not configured")
	errNilSafe   = errors.New("pool: safe not configured")
	errNilPolicy = errors.New("pool: tranches policy not configured")
)

const moduleName = "pool"

// TrancheState persists the tranche asset and loss vectors between events.
type TrancheState interface {
	GetTranches() (tranche.Assets, tranche.Losses, error)
	PutTranches(assets tranche.Assets, losses tranche.Losses) error
}

// Pool orchestrates the PnL waterfall: it feeds profit, loss and recovery
// events reported by the credit layer into the tranches policy and realizes
// the results against the safe. The engine stays pure; all side effects
// happen here.
type Pool struct {
	cache  *registry.Cache
	policy tranche.Policy
	safe   *safe.Safe
	state  TrancheState
	events types.Emitter
	pauses nativecommon.PauseView
	meter  *metrics.PoolMetrics

	self        common.Address
	seniorVault common.Address
	juniorVault common.Address
}

// New constructs a pool bound to the supplied registry.
func New(reg *registry.Registry, policy tranche.Policy, poolSafe *safe.Safe) (*Pool, error) {
	if policy == nil {
		return nil, errNilPolicy
	}
	if poolSafe == nil {
		return nil, errNilSafe
	}
	p := &Pool{policy: policy, safe: poolSafe}
	cache, err := registry.NewCache(moduleName, reg, p.refreshConfig)
	if err != nil {
		return nil, err
	}
	p.cache = cache
	return p, nil
}

// SetState wires the pool to the external persistence layer.
func (p *Pool) SetState(state TrancheState) { p.state = state }

// SetEmitter wires the sink receiving distribution events.
func (p *Pool) SetEmitter(events types.Emitter) { p.events = events }

// SetPauses wires the module pause switches.
func (p *Pool) SetPauses(pauses nativecommon.PauseView) { p.pauses = pauses }

// SetMetrics wires the prometheus collectors updated on distributions.
func (p *Pool) SetMetrics(meter *metrics.PoolMetrics) { p.meter = meter }

// Cache exposes the pool's config cache for sync and rebind workflows.
func (p *Pool) Cache() *registry.Cache { return p.cache }

// Policy reports the active profit distribution policy.
func (p *Pool) Policy() tranche.Policy { return p.policy }

func (p *Pool) refreshConfig(reg *registry.Registry) (bool, error) {
	addrs := reg.Addresses()
	changed := p.self != addrs.Pool ||
		p.seniorVault != addrs.SeniorTrancheVault ||
		p.juniorVault != addrs.JuniorTrancheVault
	p.self = addrs.Pool
	p.seniorVault = addrs.SeniorTrancheVault
	p.juniorVault = addrs.JuniorTrancheVault
	return changed, nil
}

// Tranches reports the current asset and loss vectors.
func (p *Pool) Tranches() (tranche.Assets, tranche.Losses, error) {
	return p.ensureTranches()
}

// DistributeProfit routes a profit event through the active policy, credits
// each tranche's gain as unprocessed profit in the safe and persists the new
// asset vector.
func (p *Pool) DistributeProfit(profit *big.Int, asOf int64) error {
	if p == nil || p.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(p.pauses, moduleName); err != nil {
		return err
	}
	assets, losses, err := p.ensureTranches()
	if err != nil {
		return err
	}
	newAssets, err := p.applyProfit(profit, assets, asOf)
	if err != nil {
		return err
	}
	if err := p.state.PutTranches(newAssets, losses); err != nil {
		return err
	}
	p.meter.ObserveProfit(profit)
	p.meter.ObserveTrancheAssets(newAssets)
	p.emit(NewProfitDistributedEvent(profit, newAssets))
	return nil
}

// DistributeLoss absorbs a loss event junior first and persists the updated
// asset and loss vectors.
func (p *Pool) DistributeLoss(loss *big.Int) error {
	if p == nil || p.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(p.pauses, moduleName); err != nil {
		return err
	}
	assets, losses, err := p.ensureTranches()
	if err != nil {
		return err
	}
	newAssets, newLosses, err := tranche.DistLoss(loss, assets, losses)
	if err != nil {
		return err
	}
	if err := p.state.PutTranches(newAssets, newLosses); err != nil {
		return err
	}
	p.meter.ObserveLoss(loss)
	p.meter.ObserveTrancheAssets(newAssets)
	p.emit(NewLossDistributedEvent(loss, newAssets, newLosses))
	return nil
}

// DistributeLossRecovery pays outstanding losses back senior first. Recovery
// beyond the outstanding losses re-enters the pool as profit through the
// active policy.
func (p *Pool) DistributeLossRecovery(recovery *big.Int, asOf int64) error {
	if p == nil || p.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(p.pauses, moduleName); err != nil {
		return err
	}
	assets, losses, err := p.ensureTranches()
	if err != nil {
		return err
	}
	remaining, newAssets, newLosses, err := tranche.DistLossRecovery(recovery, assets, losses)
	if err != nil {
		return err
	}
	if remaining.Sign() > 0 {
		newAssets, err = p.applyProfit(remaining, newAssets, asOf)
		if err != nil {
			return err
		}
	}
	if err := p.state.PutTranches(newAssets, newLosses); err != nil {
		return err
	}
	p.meter.ObserveRecovery(recovery)
	p.meter.ObserveTrancheAssets(newAssets)
	p.emit(NewLossRecoveredEvent(recovery, remaining, newAssets, newLosses))
	return nil
}

// applyProfit runs the policy and mirrors each tranche's gain into the
// safe's unprocessed profit accumulators.
func (p *Pool) applyProfit(profit *big.Int, assets tranche.Assets, asOf int64) (tranche.Assets, error) {
	newAssets, err := p.policy.DistProfit(profit, assets, asOf)
	if err != nil {
		return tranche.Assets{}, err
	}
	seniorGain := new(big.Int).Sub(newAssets[tranche.Senior], assets[tranche.Senior])
	juniorGain := new(big.Int).Sub(newAssets[tranche.Junior], assets[tranche.Junior])
	if err := p.safe.AddUnprocessedProfit(p.self, p.seniorVault, seniorGain); err != nil {
		return tranche.Assets{}, err
	}
	if err := p.safe.AddUnprocessedProfit(p.self, p.juniorVault, juniorGain); err != nil {
		return tranche.Assets{}, err
	}
	return newAssets, nil
}

func (p *Pool) ensureTranches() (tranche.Assets, tranche.Losses, error) {
	if p == nil || p.state == nil {
		return tranche.Assets{}, tranche.Losses{}, errNilState
	}
	assets, losses, err := p.state.GetTranches()
	if err != nil {
		return tranche.Assets{}, tranche.Losses{}, err
	}
	return assets.Clone(), losses.Clone(), nil
}

func (p *Pool) emit(evt *types.Event) {
	if p.events == nil {
		return
	}
	p.events.Emit(evt)
}
