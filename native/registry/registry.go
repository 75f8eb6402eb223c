package registry

import (
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"tranchepool/core/types"
)

var (
	// ErrUnauthorized is returned when a caller lacks the owner authority
	// required for configuration mutations.
	ErrUnauthorized = errors.New("pool config: caller not authorized")
	// ErrInvalidArgument is returned for malformed configuration input such
	// as a nil registry reference or zero address.
	ErrInvalidArgument = errors.New("pool config: invalid argument")
)

// Params groups the tunable pool parameters owned by the registry.
type Params struct {
	// SeniorYieldBps is the target annualized senior yield in basis points,
	// consumed by the fixed senior yield policy.
	SeniorYieldBps uint64
	// TranchesRiskAdjustmentBps weights the junior tranche share of profit
	// under the risk-adjusted policy.
	TranchesRiskAdjustmentBps uint64
	// MaxJuniorProfitShareBps caps the junior share of any single profit
	// event. Zero disables the cap.
	MaxJuniorProfitShareBps uint64
	// LiquidityCap bounds the custodial balance the pool accepts.
	LiquidityCap *big.Int
}

// Clone returns a deep copy of the parameter set.
func (p Params) Clone() Params {
	clone := p
	if p.LiquidityCap != nil {
		clone.LiquidityCap = new(big.Int).Set(p.LiquidityCap)
	}
	return clone
}

// Addresses groups the collaborator identities owned by the registry.
type Addresses struct {
	SeniorTrancheVault common.Address
	JuniorTrancheVault common.Address
	FirstLossCovers    []common.Address
	Credit             common.Address
	FeeManager         common.Address
	Pool               common.Address
}

// Clone returns a deep copy of the address set.
func (a Addresses) Clone() Addresses {
	clone := a
	if len(a.FirstLossCovers) > 0 {
		clone.FirstLossCovers = append([]common.Address(nil), a.FirstLossCovers...)
	}
	return clone
}

// Registry is the single source of truth for every collaborator address and
// tunable parameter in the pool. Dependent components never read it on the
// hot path; they hold a local cache refreshed through the Cache mixin.
type Registry struct {
	id     string
	owner  common.Address
	addrs  Addresses
	params Params
	events types.Emitter
}

// New constructs a registry owned by the supplied authority. The id labels
// the registry instance in rebind notifications.
func New(id string, owner common.Address, addrs Addresses, params Params) (*Registry, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidArgument
	}
	if isZeroAddress(owner) {
		return nil, ErrInvalidArgument
	}
	return &Registry{
		id:     strings.TrimSpace(id),
		owner:  owner,
		addrs:  addrs.Clone(),
		params: params.Clone(),
	}, nil
}

// SetEmitter wires the sink receiving configuration change events.
func (r *Registry) SetEmitter(events types.Emitter) {
	if r == nil {
		return
	}
	r.events = events
}

// ID reports the registry instance label.
func (r *Registry) ID() string {
	if r == nil {
		return ""
	}
	return r.id
}

// Owner reports the authority permitted to mutate configuration and to drive
// cache synchronization on dependents.
func (r *Registry) Owner() common.Address {
	if r == nil {
		return common.Address{}
	}
	return r.owner
}

// Addresses returns a copy of the collaborator address set.
func (r *Registry) Addresses() Addresses {
	if r == nil {
		return Addresses{}
	}
	return r.addrs.Clone()
}

// Params returns a copy of the tunable parameter set.
func (r *Registry) Params() Params {
	if r == nil {
		return Params{}
	}
	return r.params.Clone()
}

// SeniorTrancheVault reports the senior tranche vault identity.
func (r *Registry) SeniorTrancheVault() common.Address { return r.addrs.SeniorTrancheVault }

// JuniorTrancheVault reports the junior tranche vault identity.
func (r *Registry) JuniorTrancheVault() common.Address { return r.addrs.JuniorTrancheVault }

// FirstLossCovers reports the first loss cover identities.
func (r *Registry) FirstLossCovers() []common.Address {
	return append([]common.Address(nil), r.addrs.FirstLossCovers...)
}

// Credit reports the credit contract identity.
func (r *Registry) Credit() common.Address { return r.addrs.Credit }

// FeeManager reports the pool fee manager identity.
func (r *Registry) FeeManager() common.Address { return r.addrs.FeeManager }

// Pool reports the pool orchestrator identity.
func (r *Registry) Pool() common.Address { return r.addrs.Pool }

// SeniorYieldBps reports the fixed senior yield rate in basis points.
func (r *Registry) SeniorYieldBps() uint64 { return r.params.SeniorYieldBps }

// TranchesRiskAdjustmentBps reports the junior profit weighting in basis points.
func (r *Registry) TranchesRiskAdjustmentBps() uint64 { return r.params.TranchesRiskAdjustmentBps }

// MaxJuniorProfitShareBps reports the junior profit cap in basis points.
func (r *Registry) MaxJuniorProfitShareBps() uint64 { return r.params.MaxJuniorProfitShareBps }

// LiquidityCap reports the custodial balance ceiling. Nil means uncapped.
func (r *Registry) LiquidityCap() *big.Int {
	if r == nil || r.params.LiquidityCap == nil {
		return nil
	}
	return new(big.Int).Set(r.params.LiquidityCap)
}

// SetSeniorYieldBps updates the fixed senior yield rate. Owner only.
func (r *Registry) SetSeniorYieldBps(caller common.Address, bps uint64) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	r.params.SeniorYieldBps = bps
	r.emitUpdated("seniorYieldBps", formatUint(bps))
	return nil
}

// SetTranchesRiskAdjustmentBps updates the junior profit weighting. Owner only.
func (r *Registry) SetTranchesRiskAdjustmentBps(caller common.Address, bps uint64) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	r.params.TranchesRiskAdjustmentBps = bps
	r.emitUpdated("tranchesRiskAdjustmentBps", formatUint(bps))
	return nil
}

// SetLiquidityCap updates the custodial balance ceiling. Owner only.
func (r *Registry) SetLiquidityCap(caller common.Address, cap *big.Int) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	if cap == nil {
		r.params.LiquidityCap = nil
		r.emitUpdated("liquidityCap", "")
		return nil
	}
	if cap.Sign() < 0 {
		return ErrInvalidArgument
	}
	r.params.LiquidityCap = new(big.Int).Set(cap)
	r.emitUpdated("liquidityCap", cap.String())
	return nil
}

// SetFeeManager repoints the pool fee manager. Owner only.
func (r *Registry) SetFeeManager(caller common.Address, feeManager common.Address) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	if isZeroAddress(feeManager) {
		return ErrInvalidArgument
	}
	r.addrs.FeeManager = feeManager
	r.emitUpdated("feeManager", feeManager.Hex())
	return nil
}

// SetCredit repoints the credit contract. Owner only.
func (r *Registry) SetCredit(caller common.Address, credit common.Address) error {
	if err := r.authorize(caller); err != nil {
		return err
	}
	if isZeroAddress(credit) {
		return ErrInvalidArgument
	}
	r.addrs.Credit = credit
	r.emitUpdated("credit", credit.Hex())
	return nil
}

func (r *Registry) authorize(caller common.Address) error {
	if r == nil {
		return ErrInvalidArgument
	}
	if caller != r.owner {
		return ErrUnauthorized
	}
	return nil
}

func (r *Registry) emitUpdated(field, value string) {
	if r.events == nil {
		return
	}
	r.events.Emit(NewUpdatedEvent(r.id, field, value))
}

func isZeroAddress(addr common.Address) bool {
	return addr == (common.Address{})
}
