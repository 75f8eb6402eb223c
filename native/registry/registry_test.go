package registry

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"tranchepool/core/types"
)

type eventRecorder struct {
	events []*types.Event
}

func (r *eventRecorder) Emit(evt *types.Event) {
	r.events = append(r.events, evt)
}

func (r *eventRecorder) last() *types.Event {
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

func testOwner() common.Address {
	return common.HexToAddress("0x00000000000000000000000000000000000000AA")
}

func testStranger() common.Address {
	return common.HexToAddress("0x00000000000000000000000000000000000000BB")
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := New("primary", testOwner(), Addresses{
		SeniorTrancheVault: common.HexToAddress("0x0000000000000000000000000000000000000001"),
		JuniorTrancheVault: common.HexToAddress("0x0000000000000000000000000000000000000002"),
		Pool:               common.HexToAddress("0x0000000000000000000000000000000000000003"),
	}, Params{SeniorYieldBps: 800})
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func TestNewRejectsInvalidIdentity(t *testing.T) {
	if _, err := New("  ", testOwner(), Addresses{}, Params{}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("blank id: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := New("primary", common.Address{}, Addresses{}, Params{}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("zero owner: expected ErrInvalidArgument, got %v", err)
	}
}

func TestSettersRequireOwner(t *testing.T) {
	reg := newTestRegistry(t)

	if err := reg.SetSeniorYieldBps(testStranger(), 900); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if got := reg.SeniorYieldBps(); got != 800 {
		t.Fatalf("rejected setter mutated params: %d", got)
	}

	if err := reg.SetSeniorYieldBps(testOwner(), 900); err != nil {
		t.Fatalf("owner setter: %v", err)
	}
	if got := reg.SeniorYieldBps(); got != 900 {
		t.Fatalf("senior yield not updated: %d", got)
	}
}

func TestSetLiquidityCap(t *testing.T) {
	reg := newTestRegistry(t)

	if err := reg.SetLiquidityCap(testOwner(), big.NewInt(-1)); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("negative cap: expected ErrInvalidArgument, got %v", err)
	}

	cap := big.NewInt(1_000_000)
	if err := reg.SetLiquidityCap(testOwner(), cap); err != nil {
		t.Fatalf("set cap: %v", err)
	}
	cap.SetInt64(7) // registry must hold its own copy
	if got := reg.LiquidityCap(); got.Cmp(big.NewInt(1_000_000)) != 0 {
		t.Fatalf("cap aliased caller value: %s", got)
	}

	if err := reg.SetLiquidityCap(testOwner(), nil); err != nil {
		t.Fatalf("clear cap: %v", err)
	}
	if got := reg.LiquidityCap(); got != nil {
		t.Fatalf("cap not cleared: %s", got)
	}
}

func TestAddressSettersRejectZero(t *testing.T) {
	reg := newTestRegistry(t)

	if err := reg.SetFeeManager(testOwner(), common.Address{}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("zero fee manager: expected ErrInvalidArgument, got %v", err)
	}
	if err := reg.SetCredit(testOwner(), common.Address{}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("zero credit: expected ErrInvalidArgument, got %v", err)
	}

	feeManager := common.HexToAddress("0x0000000000000000000000000000000000000042")
	if err := reg.SetFeeManager(testOwner(), feeManager); err != nil {
		t.Fatalf("set fee manager: %v", err)
	}
	if got := reg.FeeManager(); got != feeManager {
		t.Fatalf("fee manager not updated: %s", got.Hex())
	}
}

func TestSetterEmitsUpdatedEvent(t *testing.T) {
	reg := newTestRegistry(t)
	recorder := &eventRecorder{}
	reg.SetEmitter(recorder)

	if err := reg.SetTranchesRiskAdjustmentBps(testOwner(), 15_000); err != nil {
		t.Fatalf("set risk adjustment: %v", err)
	}
	evt := recorder.last()
	if evt == nil || evt.Type != EventTypeUpdated {
		t.Fatalf("expected %s event, got %+v", EventTypeUpdated, evt)
	}
	if evt.Attributes["field"] != "tranchesRiskAdjustmentBps" || evt.Attributes["value"] != "15000" {
		t.Fatalf("unexpected attributes: %v", evt.Attributes)
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	reg := newTestRegistry(t)

	addrs := reg.Addresses()
	addrs.Pool = common.HexToAddress("0x00000000000000000000000000000000000000FF")
	if reg.Pool() == addrs.Pool {
		t.Fatal("Addresses() aliased registry state")
	}

	covers := reg.FirstLossCovers()
	covers = append(covers, testStranger())
	if len(reg.FirstLossCovers()) == len(covers) {
		t.Fatal("FirstLossCovers() aliased registry state")
	}
}
