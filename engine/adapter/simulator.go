package adapter

import (
	"context"
	"fmt"
	"sync"
)

// Simulator is a deterministic backtest fill simulator: every Submit
// fills immediately at the last mark price it was told about, applying
// the configured fee and slippage. It is a stand-in ExecAdapter the
// engine drives identically to a live exchange client (spec.md §6
// "Simulator and exchange implementations are interchangeable").
type Simulator struct {
	mu sync.Mutex

	equity      float64
	available   float64
	unrealized  float64
	feeTaker    float64
	slippageBps float64

	markPrice map[string]float64
	positions map[string]Position

	nextOrderID int
}

// NewSimulator seeds the simulator with starting equity and a fee/
// slippage model (spec.md §6 "account: ... fee_model, slippage_bps").
func NewSimulator(startingEquity, feeTaker, slippageBps float64) *Simulator {
	return &Simulator{
		equity: startingEquity, available: startingEquity,
		feeTaker: feeTaker, slippageBps: slippageBps,
		markPrice: map[string]float64{},
		positions: map[string]Position{},
	}
}

// MarkPrice updates the price Submit will fill against for symbol; the
// CLI's backtest and replay loops call this once per bar before
// ProcessBar evaluates actions.
func (s *Simulator) MarkPrice(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markPrice[symbol] = price
	s.recomputeUnrealizedLocked()
}

func (s *Simulator) recomputeUnrealizedLocked() {
	var total float64
	for sym, pos := range s.positions {
		if !pos.Open {
			continue
		}
		mark, ok := s.markPrice[sym]
		if !ok {
			continue
		}
		direction := 1.0
		if pos.Side == SideShort {
			direction = -1.0
		}
		total += direction * (mark - pos.EntryPrice) / pos.EntryPrice * pos.Notional
	}
	s.unrealized = total
}

func (s *Simulator) Submit(ctx context.Context, intent OrderIntent) (OrderResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mark, ok := s.markPrice[intent.Symbol]
	if !ok {
		return OrderResult{Success: false, Error: ErrRejected, Message: "no mark price for symbol"}, nil
	}

	slip := mark * s.slippageBps / 10_000
	fillPrice := mark
	if intent.Side == SideLong {
		fillPrice += slip
	} else {
		fillPrice -= slip
	}
	fee := intent.Notional * s.feeTaker

	cur := s.positions[intent.Symbol]
	if intent.ReduceOnly {
		if !cur.Open {
			return OrderResult{Success: false, Error: ErrRejected, Message: "no open position to reduce"}, nil
		}
		direction := 1.0
		if cur.Side == SideShort {
			direction = -1.0
		}
		pnl := direction * (fillPrice - cur.EntryPrice) / cur.EntryPrice * cur.Notional
		s.equity += pnl - fee
		s.available = s.equity
		delete(s.positions, intent.Symbol)
	} else {
		s.positions[intent.Symbol] = Position{
			Open: true, Symbol: intent.Symbol, Side: intent.Side,
			EntryPrice: fillPrice, Notional: intent.Notional,
			StopLoss: intent.StopLoss, TakeProfit: intent.TakeProfit,
		}
		s.equity -= fee
		s.available = s.equity - intent.Notional
	}
	s.recomputeUnrealizedLocked()

	s.nextOrderID++
	return OrderResult{Success: true, OrderID: fmt.Sprintf("sim-%d", s.nextOrderID)}, nil
}

func (s *Simulator) CurrentPosition(ctx context.Context, symbol string) (Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positions[symbol], nil
}

func (s *Simulator) AccountStateOf(ctx context.Context) (AccountState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AccountState{Equity: s.equity, Available: s.available, UnrealizedPnL: s.unrealized}, nil
}

// Cancel is a no-op: the simulator fills synchronously inside Submit, so
// there is never an in-flight order to cancel.
func (s *Simulator) Cancel(ctx context.Context, orderID string) (bool, error) {
	return false, nil
}
