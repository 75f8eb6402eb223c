package pool

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"tranchepool/native/registry"
	"tranchepool/native/safe"
	"tranchepool/native/tranche"
)

var (
	ownerAddr       = common.HexToAddress("0x00000000000000000000000000000000000000AA")
	seniorVaultAddr = common.HexToAddress("0x0000000000000000000000000000000000000001")
	juniorVaultAddr = common.HexToAddress("0x0000000000000000000000000000000000000002")
	poolAddr        = common.HexToAddress("0x0000000000000000000000000000000000000006")
)

type memTrancheState struct {
	assets tranche.Assets
	losses tranche.Losses
}

func (m *memTrancheState) GetTranches() (tranche.Assets, tranche.Losses, error) {
	return m.assets.Clone(), m.losses.Clone(), nil
}

func (m *memTrancheState) PutTranches(assets tranche.Assets, losses tranche.Losses) error {
	m.assets = assets.Clone()
	m.losses = losses.Clone()
	return nil
}

type memLedgerState struct {
	ledger *safe.Ledger
}

func (m *memLedgerState) GetLedger() (*safe.Ledger, error) { return m.ledger, nil }

func (m *memLedgerState) PutLedger(ledger *safe.Ledger) error {
	m.ledger = ledger
	return nil
}

func newTestPool(t *testing.T, params registry.Params) (*Pool, *safe.Safe, *memTrancheState) {
	t.Helper()
	reg, err := registry.New("primary", ownerAddr, registry.Addresses{
		SeniorTrancheVault: seniorVaultAddr,
		JuniorTrancheVault: juniorVaultAddr,
		Pool:               poolAddr,
	}, params)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	poolSafe, err := safe.New(reg)
	if err != nil {
		t.Fatalf("build safe: %v", err)
	}
	poolSafe.SetState(&memLedgerState{})

	policy, err := tranche.NewRiskAdjustedPolicy(reg)
	if err != nil {
		t.Fatalf("build policy: %v", err)
	}
	p, err := New(reg, policy, poolSafe)
	if err != nil {
		t.Fatalf("build pool: %v", err)
	}
	state := &memTrancheState{
		assets: tranche.NewAssets(big.NewInt(300_000), big.NewInt(100_000)),
		losses: tranche.NewLosses(big.NewInt(0), big.NewInt(0)),
	}
	p.SetState(state)
	return p, poolSafe, state
}

func mustAmount(t *testing.T, label string, got *big.Int, want int64) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s: got nil, want %d", label, want)
	}
	if got.Cmp(big.NewInt(want)) != 0 {
		t.Fatalf("%s: got %s, want %d", label, got, want)
	}
}

func TestDistributeProfitCreditsVaults(t *testing.T) {
	p, poolSafe, state := newTestPool(t, registry.Params{TranchesRiskAdjustmentBps: 20_000})

	// junior weight 100000*20000 vs senior weight 300000*10000: junior
	// takes 2/5 of the profit.
	if err := p.DistributeProfit(big.NewInt(10_000), 0); err != nil {
		t.Fatalf("distribute profit: %v", err)
	}

	mustAmount(t, "senior assets", state.assets[tranche.Senior], 306_000)
	mustAmount(t, "junior assets", state.assets[tranche.Junior], 104_000)

	seniorProfit, err := poolSafe.UnprocessedProfit(seniorVaultAddr)
	if err != nil {
		t.Fatalf("unprocessed profit: %v", err)
	}
	mustAmount(t, "senior unprocessed profit", seniorProfit, 6_000)
	juniorProfit, err := poolSafe.UnprocessedProfit(juniorVaultAddr)
	if err != nil {
		t.Fatalf("unprocessed profit: %v", err)
	}
	mustAmount(t, "junior unprocessed profit", juniorProfit, 4_000)
}

func TestDistributeLossJuniorFirst(t *testing.T) {
	p, _, state := newTestPool(t, registry.Params{})

	if err := p.DistributeLoss(big.NewInt(150_000)); err != nil {
		t.Fatalf("distribute loss: %v", err)
	}

	mustAmount(t, "junior assets", state.assets[tranche.Junior], 0)
	mustAmount(t, "junior losses", state.losses[tranche.Junior], 100_000)
	mustAmount(t, "senior assets", state.assets[tranche.Senior], 250_000)
	mustAmount(t, "senior losses", state.losses[tranche.Senior], 50_000)

	if err := p.DistributeLoss(big.NewInt(300_000)); !errors.Is(err, tranche.ErrLossExceedsCapacity) {
		t.Fatalf("expected ErrLossExceedsCapacity, got %v", err)
	}
	// A rejected loss leaves the persisted vectors untouched.
	mustAmount(t, "senior assets after rejection", state.assets[tranche.Senior], 250_000)
}

func TestDistributeLossRecoverySeniorFirst(t *testing.T) {
	p, _, state := newTestPool(t, registry.Params{})

	if err := p.DistributeLoss(big.NewInt(150_000)); err != nil {
		t.Fatalf("distribute loss: %v", err)
	}
	if err := p.DistributeLossRecovery(big.NewInt(80_000), 0); err != nil {
		t.Fatalf("distribute recovery: %v", err)
	}

	// Senior was owed 50,000; it is made whole first, then junior takes
	// the remaining 30,000 against its 100,000 of losses.
	mustAmount(t, "senior assets", state.assets[tranche.Senior], 300_000)
	mustAmount(t, "senior losses", state.losses[tranche.Senior], 0)
	mustAmount(t, "junior assets", state.assets[tranche.Junior], 30_000)
	mustAmount(t, "junior losses", state.losses[tranche.Junior], 70_000)
}

func TestRecoveryBeyondLossesBecomesProfit(t *testing.T) {
	p, poolSafe, state := newTestPool(t, registry.Params{TranchesRiskAdjustmentBps: 10_000})

	if err := p.DistributeLoss(big.NewInt(50_000)); err != nil {
		t.Fatalf("distribute loss: %v", err)
	}
	// 50,000 repays the junior loss in full; the excess 10,000 re-enters
	// as profit through the policy.
	if err := p.DistributeLossRecovery(big.NewInt(60_000), 0); err != nil {
		t.Fatalf("distribute recovery: %v", err)
	}

	mustAmount(t, "junior losses", state.losses[tranche.Junior], 0)
	total := new(big.Int).Add(state.assets[tranche.Senior], state.assets[tranche.Junior])
	mustAmount(t, "total assets", total, 410_000)

	seniorProfit, err := poolSafe.UnprocessedProfit(seniorVaultAddr)
	if err != nil {
		t.Fatalf("unprocessed profit: %v", err)
	}
	juniorProfit, err := poolSafe.UnprocessedProfit(juniorVaultAddr)
	if err != nil {
		t.Fatalf("unprocessed profit: %v", err)
	}
	profitTotal := new(big.Int).Add(seniorProfit, juniorProfit)
	mustAmount(t, "unprocessed profit total", profitTotal, 10_000)
}

func TestProfitLossRoundTripConserves(t *testing.T) {
	p, _, state := newTestPool(t, registry.Params{TranchesRiskAdjustmentBps: 12_345})

	if err := p.DistributeProfit(big.NewInt(77_777), 0); err != nil {
		t.Fatalf("distribute profit: %v", err)
	}
	if err := p.DistributeLoss(big.NewInt(123_456)); err != nil {
		t.Fatalf("distribute loss: %v", err)
	}
	if err := p.DistributeLossRecovery(big.NewInt(123_456), 0); err != nil {
		t.Fatalf("distribute recovery: %v", err)
	}

	total := new(big.Int).Add(state.assets[tranche.Senior], state.assets[tranche.Junior])
	mustAmount(t, "total assets", total, 400_000+77_777)
	mustAmount(t, "senior losses", state.losses[tranche.Senior], 0)
	mustAmount(t, "junior losses", state.losses[tranche.Junior], 0)
}

func TestDistributeProfitRejectsInvalidAmounts(t *testing.T) {
	p, _, _ := newTestPool(t, registry.Params{})

	if err := p.DistributeProfit(nil, 0); !errors.Is(err, tranche.ErrInvalidAmount) {
		t.Fatalf("nil profit: expected ErrInvalidAmount, got %v", err)
	}
	if err := p.DistributeProfit(big.NewInt(-1), 0); !errors.Is(err, tranche.ErrInvalidAmount) {
		t.Fatalf("negative profit: expected ErrInvalidAmount, got %v", err)
	}
}
