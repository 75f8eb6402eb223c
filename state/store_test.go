package state

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"tranchepool/native/safe"
	"tranchepool/native/tranche"
	"tranchepool/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(storage.NewMemDB())
}

func TestLedgerRoundTrip(t *testing.T) {
	store := newTestStore(t)

	ledger, err := store.GetLedger()
	require.NoError(t, err)
	require.Nil(t, ledger, "fresh store should report no ledger")

	vault := common.HexToAddress("0x0000000000000000000000000000000000000001")
	want := &safe.Ledger{
		TotalBalance: big.NewInt(1_234_567),
		UnprocessedProfit: map[common.Address]*big.Int{
			vault: big.NewInt(890),
		},
	}
	require.NoError(t, store.PutLedger(want))

	got, err := store.GetLedger()
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Zero(t, got.TotalBalance.Cmp(want.TotalBalance))
	require.Zero(t, got.UnprocessedProfit[vault].Cmp(big.NewInt(890)))

	require.Error(t, store.PutLedger(nil))
}

func TestTranchesDefaultToZero(t *testing.T) {
	store := newTestStore(t)

	assets, losses, err := store.GetTranches()
	require.NoError(t, err)
	require.Zero(t, assets[tranche.Senior].Sign())
	require.Zero(t, assets[tranche.Junior].Sign())
	require.Zero(t, losses[tranche.Senior].Sign())
	require.Zero(t, losses[tranche.Junior].Sign())
}

func TestTranchesRoundTrip(t *testing.T) {
	store := newTestStore(t)

	assets := tranche.NewAssets(big.NewInt(300_000), big.NewInt(100_000))
	losses := tranche.NewLosses(big.NewInt(0), big.NewInt(27_937))
	require.NoError(t, store.PutTranches(assets, losses))

	// Mutating the caller's vectors after the write must not leak into
	// the persisted record.
	assets[tranche.Senior].SetInt64(1)

	gotAssets, gotLosses, err := store.GetTranches()
	require.NoError(t, err)
	require.Zero(t, gotAssets[tranche.Senior].Cmp(big.NewInt(300_000)))
	require.Zero(t, gotAssets[tranche.Junior].Cmp(big.NewInt(100_000)))
	require.Zero(t, gotLosses[tranche.Senior].Sign())
	require.Zero(t, gotLosses[tranche.Junior].Cmp(big.NewInt(27_937)))
}

func TestTranchesPreserveExactBigValues(t *testing.T) {
	store := newTestStore(t)

	// Exceeds float64's 53-bit mantissa; a lossy codec would corrupt it.
	huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)

	require.NoError(t, store.PutTranches(
		tranche.NewAssets(huge, big.NewInt(0)),
		tranche.NewLosses(nil, nil),
	))

	gotAssets, _, err := store.GetTranches()
	require.NoError(t, err)
	require.Zero(t, gotAssets[tranche.Senior].Cmp(huge))
}

func TestYieldTrackerRoundTrip(t *testing.T) {
	store := newTestStore(t)

	tracker, err := store.GetYieldTracker()
	require.NoError(t, err)
	require.Nil(t, tracker, "fresh store should report no tracker")

	want := &tranche.YieldTracker{LastUpdated: 1_756_200_000, UnpaidYield: big.NewInt(40_000)}
	require.NoError(t, store.PutYieldTracker(want))

	got, err := store.GetYieldTracker()
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, want.LastUpdated, got.LastUpdated)
	require.Zero(t, got.UnpaidYield.Cmp(want.UnpaidYield))

	require.Error(t, store.PutYieldTracker(nil))
}
