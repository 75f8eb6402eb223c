package safe

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"tranchepool/core/types"
	nativecommon "tranchepool/native/common"
	"tranchepool/native/registry"
	"tranchepool/observability/metrics"
)

var (
	errNilState = errors.New("pool safe: state not configured")
	errNilFees  = errors.New("pool safe: fee manager not configured")

	// ErrUnauthorized is returned when the caller is not in the capability
	// whitelist for the attempted operation.
	ErrUnauthorized = errors.New("pool safe: caller not authorized")
	// ErrInvalidArgument is returned for malformed input such as a zero
	// destination address, a negative amount or a non-tranche profit key.
	ErrInvalidArgument = errors.New("pool safe: invalid argument")
	// ErrInsufficientBalance is returned when a withdrawal exceeds the
	// custodial balance. The balance is never allowed to go negative.
	ErrInsufficientBalance = errors.New("pool safe: insufficient balance")
)

const moduleName = "poolsafe"

// Capability identifies the class of caller permitted to move custodial
// value. The whitelist is an explicit lookup table rebuilt by the config
// cache sync step, keeping the check O(1) and auditable.
type Capability int

const (
	CapabilityNone Capability = iota
	CapabilityTrancheVault
	CapabilityFirstLossCover
	CapabilityCredit
	CapabilityFeeManager
	CapabilityPool
)

// Ledger is the custodial accounting state: the total value actually held
// and the per-tranche profit credited but not yet reflected in share prices.
type Ledger struct {
	TotalBalance      *big.Int                    `json:"totalBalance"`
	UnprocessedProfit map[common.Address]*big.Int `json:"unprocessedProfit"`
}

// Clone returns a deep copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return nil
	}
	clone := &Ledger{TotalBalance: big.NewInt(0)}
	if l.TotalBalance != nil {
		clone.TotalBalance = new(big.Int).Set(l.TotalBalance)
	}
	clone.UnprocessedProfit = make(map[common.Address]*big.Int, len(l.UnprocessedProfit))
	for addr, amount := range l.UnprocessedProfit {
		if amount != nil {
			clone.UnprocessedProfit[addr] = new(big.Int).Set(amount)
		}
	}
	return clone
}

// LedgerState persists the safe's ledger between operations. Every mutation
// is all-or-nothing: the ledger is written back exactly once, after all
// checks pass.
type LedgerState interface {
	GetLedger() (*Ledger, error)
	PutLedger(ledger *Ledger) error
}

// FeeReserveView exposes the fee manager's outstanding reserve, consumed by
// the available-balance queries.
type FeeReserveView interface {
	TotalAvailableFees() (*big.Int, error)
}

// Safe is the sole holder of custodial value and the single point of truth
// for how much can safely be withdrawn.
type Safe struct {
	cache  *registry.Cache
	state  LedgerState
	events types.Emitter
	pauses nativecommon.PauseView
	fees   FeeReserveView
	meter  *metrics.PoolMetrics

	capabilities map[common.Address]Capability
	seniorVault  common.Address
	juniorVault  common.Address
	pool         common.Address
	liquidityCap *big.Int
}

// New constructs a safe bound to the supplied registry. The capability
// whitelist is populated from the registry snapshot immediately.
func New(reg *registry.Registry) (*Safe, error) {
	s := &Safe{}
	cache, err := registry.NewCache(moduleName, reg, s.refreshConfig)
	if err != nil {
		return nil, err
	}
	s.cache = cache
	return s, nil
}

// SetState wires the safe to the external persistence layer.
func (s *Safe) SetState(state LedgerState) { s.state = state }

// SetEmitter wires the sink receiving balance change events.
func (s *Safe) SetEmitter(events types.Emitter) { s.events = events }

// SetPauses wires the module pause switches.
func (s *Safe) SetPauses(pauses nativecommon.PauseView) { s.pauses = pauses }

// SetFeeReserve wires the fee manager collaborator consumed by the
// available-balance queries.
func (s *Safe) SetFeeReserve(fees FeeReserveView) { s.fees = fees }

// SetMetrics wires the prometheus collectors updated on balance changes.
func (s *Safe) SetMetrics(meter *metrics.PoolMetrics) { s.meter = meter }

// Cache exposes the safe's config cache for sync and rebind workflows.
func (s *Safe) Cache() *registry.Cache { return s.cache }

func (s *Safe) refreshConfig(reg *registry.Registry) (bool, error) {
	addrs := reg.Addresses()
	next := make(map[common.Address]Capability, len(addrs.FirstLossCovers)+4)
	if addrs.SeniorTrancheVault != (common.Address{}) {
		next[addrs.SeniorTrancheVault] = CapabilityTrancheVault
	}
	if addrs.JuniorTrancheVault != (common.Address{}) {
		next[addrs.JuniorTrancheVault] = CapabilityTrancheVault
	}
	for _, cover := range addrs.FirstLossCovers {
		if cover != (common.Address{}) {
			next[cover] = CapabilityFirstLossCover
		}
	}
	if addrs.Credit != (common.Address{}) {
		next[addrs.Credit] = CapabilityCredit
	}
	if addrs.FeeManager != (common.Address{}) {
		next[addrs.FeeManager] = CapabilityFeeManager
	}
	if addrs.Pool != (common.Address{}) {
		next[addrs.Pool] = CapabilityPool
	}

	cap := reg.LiquidityCap()
	changed := s.seniorVault != addrs.SeniorTrancheVault ||
		s.juniorVault != addrs.JuniorTrancheVault ||
		s.pool != addrs.Pool ||
		!capEqual(s.liquidityCap, cap) ||
		!tablesEqual(s.capabilities, next)

	s.capabilities = next
	s.seniorVault = addrs.SeniorTrancheVault
	s.juniorVault = addrs.JuniorTrancheVault
	s.pool = addrs.Pool
	s.liquidityCap = cap
	return changed, nil
}

// CapabilityOf reports the capability currently granted to the address.
func (s *Safe) CapabilityOf(addr common.Address) Capability {
	if s == nil || s.capabilities == nil {
		return CapabilityNone
	}
	return s.capabilities[addr]
}

// Deposit records custodial value received from an authorized mover. A zero
// amount succeeds without emitting a balance notification.
func (s *Safe) Deposit(caller, from common.Address, amount *big.Int) error {
	if s == nil || s.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(s.pauses, moduleName); err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidArgument
	}
	if !s.canMoveValue(caller) {
		s.meter.ObserveUnauthorized("deposit")
		return ErrUnauthorized
	}
	if amount.Sign() == 0 {
		return nil
	}

	ledger, err := s.ensureLedger()
	if err != nil {
		return err
	}
	ledger.TotalBalance.Add(ledger.TotalBalance, amount)
	if err := s.state.PutLedger(ledger); err != nil {
		return err
	}
	s.meter.ObserveDeposit()
	s.meter.ObserveTotalBalance(ledger.TotalBalance)
	s.emit(NewDepositedEvent(caller, from, amount, ledger.TotalBalance))
	return nil
}

// Withdraw releases custodial value to the supplied destination. The balance
// never goes negative; an oversized withdrawal is rejected outright.
func (s *Safe) Withdraw(caller, to common.Address, amount *big.Int) error {
	if s == nil || s.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(s.pauses, moduleName); err != nil {
		return err
	}
	if to == (common.Address{}) {
		return ErrInvalidArgument
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidArgument
	}
	if !s.canMoveValue(caller) {
		s.meter.ObserveUnauthorized("withdraw")
		return ErrUnauthorized
	}
	if amount.Sign() == 0 {
		return nil
	}

	ledger, err := s.ensureLedger()
	if err != nil {
		return err
	}
	if ledger.TotalBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	ledger.TotalBalance.Sub(ledger.TotalBalance, amount)
	if err := s.state.PutLedger(ledger); err != nil {
		return err
	}
	s.meter.ObserveWithdrawal()
	s.meter.ObserveTotalBalance(ledger.TotalBalance)
	s.emit(NewWithdrawnEvent(caller, to, amount, ledger.TotalBalance))
	return nil
}

// AddUnprocessedProfit credits profit to a tranche vault's accumulator ahead
// of its share price update. Only the pool may call it, and only for the
// currently cached tranche vault addresses.
func (s *Safe) AddUnprocessedProfit(caller, tranche common.Address, amount *big.Int) error {
	if s == nil || s.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(s.pauses, moduleName); err != nil {
		return err
	}
	if caller != s.pool || s.pool == (common.Address{}) {
		return ErrUnauthorized
	}
	if !s.isTrancheVault(tranche) {
		return ErrInvalidArgument
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidArgument
	}
	if amount.Sign() == 0 {
		return nil
	}

	ledger, err := s.ensureLedger()
	if err != nil {
		return err
	}
	current := ledger.UnprocessedProfit[tranche]
	if current == nil {
		current = big.NewInt(0)
	}
	ledger.UnprocessedProfit[tranche] = new(big.Int).Add(current, amount)
	if err := s.state.PutLedger(ledger); err != nil {
		return err
	}
	s.emit(NewProfitAddedEvent(tranche, amount, ledger.UnprocessedProfit[tranche]))
	return nil
}

// ResetUnprocessedProfit zeroes the caller's own accumulator once the vault
// has folded the profit into its share price. A vault can only reset itself.
func (s *Safe) ResetUnprocessedProfit(caller common.Address) error {
	if s == nil || s.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(s.pauses, moduleName); err != nil {
		return err
	}
	if !s.isTrancheVault(caller) {
		return ErrUnauthorized
	}

	ledger, err := s.ensureLedger()
	if err != nil {
		return err
	}
	ledger.UnprocessedProfit[caller] = big.NewInt(0)
	if err := s.state.PutLedger(ledger); err != nil {
		return err
	}
	s.emit(NewProfitResetEvent(caller))
	return nil
}

// UnprocessedProfit reports the profit credited to a tranche but not yet
// reflected in its share price.
func (s *Safe) UnprocessedProfit(tranche common.Address) (*big.Int, error) {
	ledger, err := s.ensureLedger()
	if err != nil {
		return nil, err
	}
	amount := ledger.UnprocessedProfit[tranche]
	if amount == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(amount), nil
}

// TotalBalance reports the custodial value currently held. The recorded
// value mirrors the externally held balance one to one.
func (s *Safe) TotalBalance() (*big.Int, error) {
	ledger, err := s.ensureLedger()
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(ledger.TotalBalance), nil
}

// AvailableBalanceForPool reports the custodial value the pool may deploy
// after the fee manager's reserve is set aside. Never negative.
func (s *Safe) AvailableBalanceForPool() (*big.Int, error) {
	balance, reserve, err := s.balanceAndReserve()
	if err != nil {
		return nil, err
	}
	if balance.Cmp(reserve) <= 0 {
		return big.NewInt(0), nil
	}
	return balance.Sub(balance, reserve), nil
}

// AvailableBalanceForFees reports how much of the fee reserve is actually
// covered by custodial value. Never exceeds the balance.
func (s *Safe) AvailableBalanceForFees() (*big.Int, error) {
	balance, reserve, err := s.balanceAndReserve()
	if err != nil {
		return nil, err
	}
	if balance.Cmp(reserve) < 0 {
		return balance, nil
	}
	return reserve, nil
}

// AvailableCapacity reports the headroom under the configured liquidity cap.
// Nil means the pool is uncapped.
func (s *Safe) AvailableCapacity() (*big.Int, error) {
	if s.liquidityCap == nil {
		return nil, nil
	}
	ledger, err := s.ensureLedger()
	if err != nil {
		return nil, err
	}
	if ledger.TotalBalance.Cmp(s.liquidityCap) >= 0 {
		return big.NewInt(0), nil
	}
	return new(big.Int).Sub(s.liquidityCap, ledger.TotalBalance), nil
}

func (s *Safe) balanceAndReserve() (*big.Int, *big.Int, error) {
	if s == nil || s.state == nil {
		return nil, nil, errNilState
	}
	if s.fees == nil {
		return nil, nil, errNilFees
	}
	ledger, err := s.ensureLedger()
	if err != nil {
		return nil, nil, err
	}
	reserve, err := s.fees.TotalAvailableFees()
	if err != nil {
		return nil, nil, err
	}
	if reserve == nil || reserve.Sign() < 0 {
		reserve = big.NewInt(0)
	}
	return new(big.Int).Set(ledger.TotalBalance), reserve, nil
}

func (s *Safe) canMoveValue(caller common.Address) bool {
	switch s.CapabilityOf(caller) {
	case CapabilityTrancheVault, CapabilityFirstLossCover, CapabilityCredit, CapabilityFeeManager:
		return true
	default:
		return false
	}
}

func (s *Safe) isTrancheVault(addr common.Address) bool {
	if addr == (common.Address{}) {
		return false
	}
	return addr == s.seniorVault || addr == s.juniorVault
}

func (s *Safe) ensureLedger() (*Ledger, error) {
	if s == nil || s.state == nil {
		return nil, errNilState
	}
	ledger, err := s.state.GetLedger()
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		ledger = &Ledger{}
	} else {
		ledger = ledger.Clone()
	}
	if ledger.TotalBalance == nil {
		ledger.TotalBalance = big.NewInt(0)
	}
	if ledger.UnprocessedProfit == nil {
		ledger.UnprocessedProfit = make(map[common.Address]*big.Int)
	}
	return ledger, nil
}

func (s *Safe) emit(evt *types.Event) {
	if s.events == nil {
		return
	}
	s.events.Emit(evt)
}

func capEqual(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Cmp(b) == 0
}

func tablesEqual(a, b map[common.Address]Capability) bool {
	if len(a) != len(b) {
		return false
	}
	for addr, capability := range a {
		if b[addr] != capability {
			return false
		}
	}
	return true
}
