package tranche

import (
	"errors"
	"math/big"
	"testing"

	"tranchepool/native/calendar"
	"tranchepool/native/registry"
)

type mockYieldState struct {
	tracker *YieldTracker
}

func (m *mockYieldState) GetYieldTracker() (*YieldTracker, error) {
	return m.tracker, nil
}

func (m *mockYieldState) PutYieldTracker(tracker *YieldTracker) error {
	m.tracker = tracker
	return nil
}

func newFixedYieldPolicy(t *testing.T, yieldBps uint64, state *mockYieldState) *FixedSeniorYieldPolicy {
	t.Helper()
	reg := newTestRegistry(t, registry.Params{SeniorYieldBps: yieldBps})
	policy, err := NewFixedSeniorYieldPolicy(reg, calendar.NewStandard())
	if err != nil {
		t.Fatalf("build policy: %v", err)
	}
	policy.SetState(state)
	return policy
}

const yearSeconds = 365 * 86_400

func TestFixedYieldPaysSeniorEntitlementFirst(t *testing.T) {
	state := &mockYieldState{tracker: &YieldTracker{LastUpdated: 0, UnpaidYield: big.NewInt(0)}}
	policy := newFixedYieldPolicy(t, 1_000, state) // 10% APR

	assets := NewAssets(big.NewInt(1_000_000), big.NewInt(500_000))
	newAssets, err := policy.DistProfit(big.NewInt(150_000), assets, yearSeconds)
	if err != nil {
		t.Fatalf("dist profit: %v", err)
	}

	// One full year at 10% on 1,000,000 accrues 100,000 of senior yield.
	mustEqual(t, "senior assets", newAssets[Senior], 1_100_000)
	mustEqual(t, "junior assets", newAssets[Junior], 550_000)
	mustEqual(t, "unpaid yield", state.tracker.UnpaidYield, 0)
	if state.tracker.LastUpdated != yearSeconds {
		t.Fatalf("tracker not advanced: got %d", state.tracker.LastUpdated)
	}
}

func TestFixedYieldCarriesUnpaidEntitlement(t *testing.T) {
	state := &mockYieldState{tracker: &YieldTracker{LastUpdated: 0, UnpaidYield: big.NewInt(0)}}
	policy := newFixedYieldPolicy(t, 1_000, state)

	assets := NewAssets(big.NewInt(1_000_000), big.NewInt(500_000))
	newAssets, err := policy.DistProfit(big.NewInt(60_000), assets, yearSeconds)
	if err != nil {
		t.Fatalf("dist profit: %v", err)
	}

	// Profit covers only part of the accrued 100,000; all of it goes senior
	// and the shortfall stays tracked.
	mustEqual(t, "senior assets", newAssets[Senior], 1_060_000)
	mustEqual(t, "junior assets", newAssets[Junior], 500_000)
	mustEqual(t, "unpaid yield", state.tracker.UnpaidYield, 40_000)
	if state.tracker.UnpaidYield.Sign() < 0 {
		t.Fatalf("unpaid yield went negative: %s", state.tracker.UnpaidYield)
	}

	unpaid, err := policy.UnpaidSeniorYield()
	if err != nil {
		t.Fatalf("unpaid senior yield: %v", err)
	}
	mustEqual(t, "unpaid accessor", unpaid, 40_000)
}

func TestFixedYieldAccrualTruncates(t *testing.T) {
	state := &mockYieldState{tracker: &YieldTracker{LastUpdated: 0, UnpaidYield: big.NewInt(0)}}
	policy := newFixedYieldPolicy(t, 1_000, state)

	// 1 day at 10% on 999,999: 999999*1000*86400 / (10000*31536000)
	// = 273.97..., truncating to 273 in the protocol's favour.
	assets := NewAssets(big.NewInt(999_999), big.NewInt(0))
	newAssets, err := policy.DistProfit(big.NewInt(1_000), assets, 86_400)
	if err != nil {
		t.Fatalf("dist profit: %v", err)
	}
	mustEqual(t, "senior assets", newAssets[Senior], 1_000_272)
	mustEqual(t, "junior assets", newAssets[Junior], 727)
}

func TestFixedYieldRejectsNegativeTimeRange(t *testing.T) {
	state := &mockYieldState{tracker: &YieldTracker{LastUpdated: 1_000, UnpaidYield: big.NewInt(0)}}
	policy := newFixedYieldPolicy(t, 1_000, state)

	_, err := policy.DistProfit(big.NewInt(10), NewAssets(big.NewInt(100), big.NewInt(100)), 999)
	if !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
	// Rejection must not advance the tracker.
	if state.tracker.LastUpdated != 1_000 {
		t.Fatalf("tracker mutated on rejection: %d", state.tracker.LastUpdated)
	}
}

func TestFixedYieldFirstEventStartsAccrual(t *testing.T) {
	state := &mockYieldState{}
	policy := newFixedYieldPolicy(t, 1_000, state)

	assets := NewAssets(big.NewInt(1_000_000), big.NewInt(0))
	newAssets, err := policy.DistProfit(big.NewInt(5_000), assets, 12_345)
	if err != nil {
		t.Fatalf("dist profit: %v", err)
	}

	// No tracker existed, so nothing is owed retroactively: the whole profit
	// routes to junior and accrual starts at the event time.
	mustEqual(t, "senior assets", newAssets[Senior], 1_000_000)
	mustEqual(t, "junior assets", newAssets[Junior], 5_000)
	if state.tracker == nil || state.tracker.LastUpdated != 12_345 {
		t.Fatalf("tracker not initialized: %+v", state.tracker)
	}
}

func TestFixedYieldConservation(t *testing.T) {
	state := &mockYieldState{tracker: &YieldTracker{LastUpdated: 0, UnpaidYield: big.NewInt(12_321)}}
	policy := newFixedYieldPolicy(t, 777, state)

	assets := NewAssets(big.NewInt(123_457), big.NewInt(98_765))
	profit := big.NewInt(4_321)
	newAssets, err := policy.DistProfit(profit, assets, 1_234_567)
	if err != nil {
		t.Fatalf("dist profit: %v", err)
	}
	want := new(big.Int).Add(assets.Total(), profit)
	if newAssets.Total().Cmp(want) != 0 {
		t.Fatalf("conservation violated: got %s want %s", newAssets.Total(), want)
	}
}
