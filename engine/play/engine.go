package play

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/cryptorun/engine/adapter"
	"github.com/cryptorun/engine/bar"
	"github.com/cryptorun/engine/indicator"
	"github.com/cryptorun/engine/snapshot"
	"github.com/cryptorun/engine/structure"
)

// featureBinding ties a declared feature to its live indicator instance
// and the feed role it is advanced on.
type featureBinding struct {
	spec indicator.Indicator
	multi indicator.MultiOutput // non-nil when spec also implements it
	decl FeatureSpec
}

// structureBinding ties a declared structure to its live detector.
// trend/zone entries borrow the SwingOutput of the first "swing"
// structure declared on the same tf role; a Play with no such swing
// structure leaves them permanently unconfirmed (an intentional
// simplification -- see DESIGN.md).
type structureBinding struct {
	kind  string // "swing", "trend", "zone"
	swing *structure.Swing
	trend *structure.Trend
	zone  *structure.Zone
	decl  StructureSpec
}

// Engine is the bar-loop orchestrator (spec.md §4.6). One Engine
// instance owns one symbol's feeds, indicators, structures, and position
// state; it is never shared across goroutines (spec.md §5).
type Engine struct {
	Play    *Play
	Symbol  string
	Feeds   *bar.MultiFeed
	Adapter adapter.ExecAdapter
	Journal adapter.Journal

	features   map[string]*featureBinding
	structures map[string]*structureBinding

	paused   bool
	canceled bool

	lastExecTsClose int64
}

// NewEngine wires indicator and structure instances for every declared
// feature/structure, keyed by feed role, and constructs empty feeds with
// the corresponding output keys pre-registered (spec.md §4.1/§4.2).
func NewEngine(p *Play, symbol string, ad adapter.ExecAdapter, journal adapter.Journal) (*Engine, error) {
	roleKeys := map[bar.Role][]string{}
	features := map[string]*featureBinding{}
	for _, f := range p.Features {
		ind, err := indicator.New(f.IndicatorType, f.Params)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", f.ID, err)
		}
		fb := &featureBinding{spec: ind, decl: f}
		if mo, ok := ind.(indicator.MultiOutput); ok {
			fb.multi = mo
			for _, name := range mo.OutputNames() {
				roleKeys[bar.Role(f.TF)] = append(roleKeys[bar.Role(f.TF)], f.ID+"."+name)
			}
		} else {
			roleKeys[bar.Role(f.TF)] = append(roleKeys[bar.Role(f.TF)], f.ID)
		}
		features[f.ID] = fb
	}

	structures := map[string]*structureBinding{}
	for _, s := range p.Structures {
		if s.Type != "swing" {
			continue
		}
		left := int(s.Confirmation["left"])
		right := int(s.Confirmation["right"])
		if left == 0 {
			left = 2
		}
		if right == 0 {
			right = 2
		}
		sw := structure.NewSwing(left, right)
		structures[s.ID] = &structureBinding{kind: "swing", swing: sw, decl: s}
		for _, field := range structureOutputNames("swing") {
			roleKeys[bar.Role(s.TF)] = append(roleKeys[bar.Role(s.TF)], s.ID+"."+field)
		}
	}
	for _, s := range p.Structures {
		switch s.Type {
		case "trend":
			structures[s.ID] = &structureBinding{kind: "trend", trend: structure.NewTrend(), decl: s}
			roleKeys[bar.Role(s.TF)] = append(roleKeys[bar.Role(s.TF)], s.ID+".state")
		case "zone":
			isSupply := s.Confirmation["is_supply"] != 0
			width := s.Confirmation["width"]
			structures[s.ID] = &structureBinding{kind: "zone", zone: structure.NewZone(isSupply, width), decl: s}
			for _, field := range []string{"state", "upper", "lower"} {
				roleKeys[bar.Role(s.TF)] = append(roleKeys[bar.Role(s.TF)], s.ID+"."+field)
			}
		}
	}

	feeds := map[bar.Role]*bar.Feed{}
	for _, role := range []bar.Role{bar.RoleExec, bar.RoleMed, bar.RoleHigh} {
		tf := tfForRole(p.Timeframes, role)
		if tf == "" {
			continue
		}
		feeds[role] = bar.NewFeed(symbol, tf, roleKeys[role], nil)
	}
	mf := bar.NewMultiFeed(feeds[bar.RoleExec], feeds[bar.RoleMed], feeds[bar.RoleHigh])

	return &Engine{
		Play: p, Symbol: symbol, Feeds: mf, Adapter: ad, Journal: journal,
		features: features, structures: structures,
	}, nil
}

func tfForRole(t Timeframes, role bar.Role) bar.Timeframe {
	switch role {
	case bar.RoleExec:
		return bar.Timeframe(t.Exec)
	case bar.RoleMed:
		return bar.Timeframe(t.MedTF)
	case bar.RoleHigh:
		return bar.Timeframe(t.HighTF)
	}
	return ""
}

// Pause stops new signal evaluation while indicator updates continue;
// Resume re-enables it from the next bar onward (spec.md §5).
func (e *Engine) Pause()  { e.paused = true }
func (e *Engine) Resume() { e.paused = false }

// Cancel is the cooperative cancel signal, checked between bars only
// (spec.md §5 "mid-bar cancellation is not supported").
func (e *Engine) Cancel() { e.canceled = true }

// Start/Stop are lifecycle hooks around the bar loop; this engine holds
// no background resources of its own to release, so Stop is a no-op
// beyond marking canceled.
func (e *Engine) Start(context.Context) error { return nil }
func (e *Engine) Stop(context.Context) error  { e.canceled = true; return nil }

// IngestBar feeds one closed bar for the given role into its feed,
// advancing every indicator/structure bound to that role (spec.md §4.6
// steps 1-2). role must be ingested in ts_close order across calls; a
// non-monotone timestamp is a fatal data error (spec.md §7).
func (e *Engine) IngestBar(role bar.Role, b bar.Bar) error {
	f := e.Feeds.Feeds[role]
	if f == nil {
		return fmt.Errorf("role %s has no feed configured", role)
	}

	indicatorVals := map[string]float64{}
	structureVals := map[string]float64{}

	// Structures advance in two deterministic passes -- every swing first,
	// then every trend/zone -- since map iteration order is randomized and
	// trend/zone reads the same-bar swing output (spec.md §5 determinism
	// is load-bearing; it must not depend on map iteration order).
	for _, sb := range e.structures {
		if bar.Role(sb.decl.TF) != role || sb.kind != "swing" {
			continue
		}
		sb.swing.Update(b.High, b.Low)
		out := sb.swing.Output()
		structureVals[sb.decl.ID+".high_level"] = out.HighLevel
		structureVals[sb.decl.ID+".low_level"] = out.LowLevel
		structureVals[sb.decl.ID+".high_version"] = float64(out.HighVersion)
		structureVals[sb.decl.ID+".low_version"] = float64(out.LowVersion)
		structureVals[sb.decl.ID+".pair_version"] = float64(out.PairVersion)
		structureVals[sb.decl.ID+".pair_direction"] = float64(out.PairDirection)
	}
	for _, sb := range e.structures {
		if bar.Role(sb.decl.TF) != role {
			continue
		}
		switch sb.kind {
		case "trend":
			if src := e.firstSwingBinding(role); src != nil {
				sb.trend.Update(src.swing.Output())
			}
			structureVals[sb.decl.ID+".state"] = float64(sb.trend.State())
		case "zone":
			if src := e.firstSwingBinding(role); src != nil {
				sb.zone.Update(src.swing.Output(), b.Close)
			}
			upper, lower := sb.zone.Bounds()
			structureVals[sb.decl.ID+".state"] = float64(sb.zone.State())
			structureVals[sb.decl.ID+".upper"] = upper
			structureVals[sb.decl.ID+".lower"] = lower
		}
	}

	var extra map[string]float64
	if src := e.firstSwingBinding(role); src != nil {
		extra = src.swing.Extra()
	}

	for _, fb := range e.features {
		if bar.Role(fb.decl.TF) != role {
			continue
		}
		in := indicator.Input{Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume, TsOpen: b.TsOpen, Extra: extra}
		fb.spec.Update(in)
		if fb.multi != nil {
			for _, name := range fb.multi.OutputNames() {
				if v, ok := fb.multi.Output(name); ok {
					indicatorVals[fb.decl.ID+"."+name] = v
				}
			}
		} else if v, ok := fb.spec.Value(); ok {
			indicatorVals[fb.decl.ID] = v
		}
	}

	if err := f.Append(b, indicatorVals, structureVals); err != nil {
		return err
	}
	if role == bar.RoleExec {
		e.lastExecTsClose = b.TsClose
	}
	return nil
}

func (e *Engine) firstSwingBinding(role bar.Role) *structureBinding {
	for _, sb := range e.structures {
		if sb.kind == "swing" && bar.Role(sb.decl.TF) == role {
			return sb
		}
	}
	return nil
}

// BarResult is what ProcessBar returns: the per-bar outcome for journaling
// and for tests asserting determinism.
type BarResult struct {
	ExitEval  map[string]EvalResult
	EntryEval map[string]EvalResult
	Orders    []adapter.OrderIntent
}

// ProcessBar runs steps 3-8 of spec.md §4.6 for the exec bar already
// ingested via IngestBar(RoleExec, ...): recompute forward-fill, build a
// snapshot, evaluate exits before entries, apply risk checks, and submit
// any resulting order intents.
func (e *Engine) ProcessBar(ctx context.Context, fieldTypes snapshot.FieldTypes) (BarResult, error) {
	res := BarResult{ExitEval: map[string]EvalResult{}, EntryEval: map[string]EvalResult{}}
	if e.canceled {
		return res, nil
	}

	execFeed := e.Feeds.Feeds[bar.RoleExec]
	execIdx := execFeed.Length() - 1
	snap := snapshot.New(e.Feeds, execIdx, fieldTypes)
	ev := NewEvaluator(snap, e.Play.Setups, bar.Timeframe(e.Play.Timeframes.Exec))

	if e.paused {
		return res, nil
	}

	pos, err := e.Adapter.CurrentPosition(ctx, e.Symbol)
	if err != nil {
		return res, fmt.Errorf("current position: %w", err)
	}

	// Step 5: exits precede entries.
	for _, name := range e.Play.ActionOrder {
		if !strings.HasPrefix(name, "exit_") {
			continue
		}
		result := ev.Eval(e.Play.Actions[name])
		res.ExitEval[name] = result
		if result.OK && pos.Open {
			intent := adapter.OrderIntent{Symbol: e.Symbol, Side: opposite(pos.Side), ReduceOnly: true, ClientTag: name}
			if _, err := e.Adapter.Submit(ctx, intent); err != nil {
				e.Journal.Record(adapter.JournalEvent{Kind: adapter.EventError, Symbol: e.Symbol,
					TsMs: e.lastExecTsClose, Message: "exit submit failed: " + err.Error()})
				continue
			}
			e.Journal.Record(adapter.JournalEvent{Kind: adapter.EventExit, Symbol: e.Symbol,
				TsMs: e.lastExecTsClose, Message: name})
			pos.Open = false
		}
	}

	// Step 6: risk checks.
	if pos.Open && e.Play.RiskPolicy.MaxPositionsPerSymbol <= 0 {
		return res, nil
	}
	if pos.Open && !e.Play.RiskPolicy.AllowScaleIn {
		return res, nil // already at the one allowed position, no entries this bar
	}

	// Step 7: entries.
	for _, name := range e.Play.ActionOrder {
		if !strings.HasPrefix(name, "entry_") {
			continue
		}
		result := ev.Eval(e.Play.Actions[name])
		res.EntryEval[name] = result
		if !result.OK {
			continue
		}
		intent, err := e.buildEntryIntent(name, snap)
		if err != nil {
			e.Journal.Record(adapter.JournalEvent{Kind: adapter.EventError, Symbol: e.Symbol,
				TsMs: e.lastExecTsClose, Message: "size/risk computation failed: " + err.Error()})
			continue
		}
		orderRes, err := e.Adapter.Submit(ctx, intent)
		if err != nil || !orderRes.Success {
			e.Journal.Record(adapter.JournalEvent{Kind: adapter.EventError, Symbol: e.Symbol,
				TsMs: e.lastExecTsClose, Message: "entry submit failed"})
			continue
		}
		res.Orders = append(res.Orders, intent)
		e.Journal.Record(adapter.JournalEvent{Kind: adapter.EventSignal, Symbol: e.Symbol,
			TsMs: e.lastExecTsClose, Message: name})
	}

	return res, nil
}

func opposite(s adapter.Side) adapter.Side {
	if s == adapter.SideLong {
		return adapter.SideShort
	}
	return adapter.SideLong
}

// buildEntryIntent derives stop-loss/take-profit and size from the risk
// model (spec.md §4.6 step 7), clamped to account limits.
func (e *Engine) buildEntryIntent(actionName string, snap *snapshot.Snapshot) (adapter.OrderIntent, error) {
	side := adapter.SideLong
	if strings.Contains(actionName, "short") {
		side = adapter.SideShort
	}

	close, ok := snap.Get("close", bar.RoleExec, 0)
	if !ok {
		return adapter.OrderIntent{}, fmt.Errorf("no close price available to size entry")
	}

	intent := adapter.OrderIntent{Symbol: e.Symbol, Side: side, ClientTag: actionName}

	stopDistance, err := e.applyStopLoss(&intent, snap, side, close)
	if err != nil {
		return adapter.OrderIntent{}, err
	}
	if err := e.applyTakeProfit(&intent, side, close, stopDistance); err != nil {
		return adapter.OrderIntent{}, err
	}

	acct := e.Play.Account
	sizing := e.Play.RiskModel.Sizing
	var notional float64
	switch sizing.Model {
	case "fixed_notional":
		notional = sizing.Value
	case "percent_equity":
		notional = acct.StartingEquityUSDT * sizing.Value
	case "risk_based":
		if stopDistance <= 0 {
			return adapter.OrderIntent{}, fmt.Errorf("risk_based sizing requires a non-zero stop-loss distance")
		}
		riskUSDT := acct.StartingEquityUSDT * sizing.Value
		notional = riskUSDT * close / stopDistance
	default:
		return adapter.OrderIntent{}, fmt.Errorf("unknown sizing model %q", sizing.Model)
	}
	if acct.MaxNotionalUSDT > 0 && notional > acct.MaxNotionalUSDT {
		notional = acct.MaxNotionalUSDT
	}
	if acct.MinTradeNotionalUSDT > 0 && notional < acct.MinTradeNotionalUSDT {
		return adapter.OrderIntent{}, fmt.Errorf("sized notional %.2f below min_trade_notional_usdt", notional)
	}
	intent.Notional = notional

	return intent, nil
}

// applyStopLoss sets intent.StopLoss/HasStopLoss from the risk model's
// stop_loss leg and returns the price distance between entry and stop,
// used by take-profit (rr_ratio) and risk_based sizing.
func (e *Engine) applyStopLoss(intent *adapter.OrderIntent, snap *snapshot.Snapshot, side adapter.Side, close float64) (float64, error) {
	sl := e.Play.RiskModel.StopLoss
	var distance float64

	switch sl.Type {
	case "percent":
		distance = close * sl.Value
	case "fixed":
		intent.HasStopLoss = true
		intent.StopLoss = sl.Value
		return math.Abs(close - sl.Value), nil
	case "atr_multiple":
		atr, ok := e.atrFeatureValue(snap)
		if !ok {
			return 0, fmt.Errorf("atr_multiple stop_loss requires an atr feature declared on the exec timeframe")
		}
		distance = atr * sl.Value
	default:
		return 0, fmt.Errorf("unknown stop_loss type %q", sl.Type)
	}

	intent.HasStopLoss = true
	if side == adapter.SideLong {
		intent.StopLoss = close - distance
	} else {
		intent.StopLoss = close + distance
	}
	return distance, nil
}

// applyTakeProfit sets intent.TakeProfit/HasTakeProfit from the risk
// model's take_profit leg. rr_ratio derives the TP distance from the
// stop-loss distance already computed by applyStopLoss (spec.md §4.6
// step 7, scenario S5: TP at entry ± rr_ratio*|entry-SL|).
func (e *Engine) applyTakeProfit(intent *adapter.OrderIntent, side adapter.Side, close, stopDistance float64) error {
	tp := e.Play.RiskModel.TakeProfit
	var distance float64

	switch tp.Type {
	case "rr_ratio":
		if stopDistance <= 0 {
			return fmt.Errorf("rr_ratio take_profit requires a stop-loss distance")
		}
		distance = tp.Value * stopDistance
	case "percent":
		distance = close * tp.Value
	case "fixed":
		intent.HasTakeProfit = true
		intent.TakeProfit = tp.Value
		return nil
	default:
		return fmt.Errorf("unknown take_profit type %q", tp.Type)
	}

	intent.HasTakeProfit = true
	if side == adapter.SideLong {
		intent.TakeProfit = close + distance
	} else {
		intent.TakeProfit = close - distance
	}
	return nil
}

// atrFeatureValue reads the first declared exec-timeframe ATR feature's
// current value off the snapshot, for atr_multiple stop-loss sizing.
func (e *Engine) atrFeatureValue(snap *snapshot.Snapshot) (float64, bool) {
	for _, f := range e.Play.Features {
		if f.IndicatorType == "atr" && f.TF == string(bar.RoleExec) {
			return snap.Get(f.ID, bar.RoleExec, 0)
		}
	}
	return 0, false
}
