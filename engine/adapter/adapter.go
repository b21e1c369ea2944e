// Package adapter defines the Exec Adapter and Data Provider boundary
// interfaces (spec.md §6 "External interfaces"): the Play Engine talks to
// these, never to a concrete simulator or exchange client directly.
package adapter

import "context"

// Side is an order's direction.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// OrderIntent is what the engine hands to an ExecAdapter on an entry
// trigger or a reduce-only exit (spec.md §4.6 step 7).
type OrderIntent struct {
	Symbol       string
	Side         Side
	ReduceOnly   bool
	Notional     float64
	StopLoss     float64
	HasStopLoss  bool
	TakeProfit   float64
	HasTakeProfit bool
	ClientTag    string // e.g. "entry_breakout", for journal correlation
}

// OrderErrorReason is the closed set of exec-adapter failure reasons
// (spec.md §7).
type OrderErrorReason string

const (
	ErrExecTimeout         OrderErrorReason = "EXEC_TIMEOUT"
	ErrRejected            OrderErrorReason = "REJECTED"
	ErrInsufficientMargin  OrderErrorReason = "INSUFFICIENT_MARGIN"
	ErrPositionUnprotected OrderErrorReason = "POSITION_UNPROTECTED"
)

// OrderResult is the outcome of a submit call.
type OrderResult struct {
	Success bool
	OrderID string
	Error   OrderErrorReason
	Message string
}

// Position is the open position snapshot for one symbol, or the zero
// value with Open=false when flat.
type Position struct {
	Open         bool
	Symbol       string
	Side         Side
	EntryPrice   float64
	Notional     float64
	StopLoss     float64
	TakeProfit   float64
	OpenedAtTsMs int64
}

// AccountState is the account-level equity view (spec.md §6).
type AccountState struct {
	Equity        float64
	Available     float64
	UnrealizedPnL float64
}

// ExecAdapter is the four-method boundary a simulator and a live
// exchange client both implement interchangeably (spec.md §6).
type ExecAdapter interface {
	Submit(ctx context.Context, intent OrderIntent) (OrderResult, error)
	CurrentPosition(ctx context.Context, symbol string) (Position, error)
	AccountStateOf(ctx context.Context) (AccountState, error)
	Cancel(ctx context.Context, orderID string) (bool, error)
}

// JournalEventKind is the closed set of events the engine emits to the
// logger adapter (spec.md §4.6 step 8).
type JournalEventKind string

const (
	EventSignal JournalEventKind = "signal"
	EventFill   JournalEventKind = "fill"
	EventExit   JournalEventKind = "exit"
	EventError  JournalEventKind = "error"
)

// JournalEvent is one structured record the engine logs per bar. Fields
// beyond Kind/Symbol/TsMs are free-form and journal-sink specific.
type JournalEvent struct {
	Kind    JournalEventKind
	Symbol  string
	TsMs    int64
	Message string
	Fields  map[string]interface{}
}

// Journal receives engine events; a zerolog-backed implementation is the
// default, a no-op implementation is used in tests.
type Journal interface {
	Record(ev JournalEvent)
}
