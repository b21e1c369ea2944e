package play

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cryptorun/engine/bar"
	"github.com/cryptorun/engine/indicator"
)

// FeatureSpec is one entry of a Play file's features list (spec.md §6
// "Play artefact (file format)").
type FeatureSpec struct {
	ID            string             `yaml:"id"`
	TF            string             `yaml:"tf"`
	IndicatorType string             `yaml:"indicator_type"`
	Params        map[string]float64 `yaml:"params"`
	InputSource   string             `yaml:"input_source"`
}

// StructureSpec is one entry of a Play file's structures list.
type StructureSpec struct {
	ID           string             `yaml:"id"`
	TF           string             `yaml:"tf"`
	Type         string             `yaml:"type"` // "swing" or "trend"
	Params       map[string]float64 `yaml:"params"`
	Confirmation map[string]float64 `yaml:"confirmation"`
}

// RiskLeg is one side of a risk model (stop_loss or take_profit).
type RiskLeg struct {
	Type  string  `yaml:"type"`
	Value float64 `yaml:"value"`
}

// SizingSpec is the position-sizing side of a risk model.
type SizingSpec struct {
	Model       string  `yaml:"model"`
	Value       float64 `yaml:"value"`
	MaxLeverage float64 `yaml:"max_leverage"`
}

// RiskModel bundles stop-loss, take-profit, and sizing policy
// (spec.md §4.6 step 7).
type RiskModel struct {
	StopLoss   RiskLeg    `yaml:"stop_loss"`
	TakeProfit RiskLeg    `yaml:"take_profit"`
	Sizing     SizingSpec `yaml:"sizing"`
}

// FeeModel is the taker/maker fee schedule applied by the simulator.
type FeeModel struct {
	Taker float64 `yaml:"taker"`
	Maker float64 `yaml:"maker"`
}

// Account holds the account-level limits clamped against in sizing
// (spec.md §4.6 step 7).
type Account struct {
	StartingEquityUSDT   float64  `yaml:"starting_equity_usdt"`
	MaxLeverage          float64  `yaml:"max_leverage"`
	MarginMode           string   `yaml:"margin_mode"`
	MinTradeNotionalUSDT float64  `yaml:"min_trade_notional_usdt"`
	MaxNotionalUSDT      float64  `yaml:"max_notional_usdt"`
	MaxMarginUSDT        float64  `yaml:"max_margin_usdt"`
	Fees                 FeeModel `yaml:"fee_model"`
	SlippageBps          float64  `yaml:"slippage_bps"`
}

// RiskPolicy gates position management (spec.md §4.6 step 6).
type RiskPolicy struct {
	MaxPositionsPerSymbol int  `yaml:"max_positions_per_symbol"`
	AllowFlip             bool `yaml:"allow_flip"`
	AllowScaleIn          bool `yaml:"allow_scale_in"`
	AllowScaleOut         bool `yaml:"allow_scale_out"`
}

// Timeframes declares the Play's canonical role set (spec.md §3).
type Timeframes struct {
	Exec   string `yaml:"exec"`
	MedTF  string `yaml:"med_tf"`
	HighTF string `yaml:"high_tf"`
}

// rawPlayFile mirrors the on-disk YAML shape 1:1; Actions stays
// undecoded (RawCond-shaped interface{} trees) until Compile runs.
type rawPlayFile struct {
	ID             string                   `yaml:"id"`
	Version        string                   `yaml:"version"`
	SymbolUniverse []string                 `yaml:"symbol_universe"`
	Timeframes     Timeframes               `yaml:"timeframes"`
	Features       []FeatureSpec            `yaml:"features"`
	Structures     []StructureSpec          `yaml:"structures"`
	Setups         map[string]RawCond       `yaml:"setups"`
	Actions        map[string]interface{}   `yaml:"actions"`
	RiskPolicy     RiskPolicy               `yaml:"risk_policy"`
	RiskModel      RiskModel                `yaml:"risk_model"`
	Account        Account                  `yaml:"account"`
}

// Play is a fully compiled, ready-to-run strategy: every action
// condition has already been parsed to an Expr and validated against the
// declared feature/structure registry (spec.md §4.5 "compile time").
type Play struct {
	ID             string
	Version        string
	SymbolUniverse []string
	Timeframes     Timeframes
	Features       []FeatureSpec
	Structures     []StructureSpec
	RiskPolicy     RiskPolicy
	RiskModel      RiskModel
	Account        Account

	Registry *Registry
	Setups   *SetupStore

	// Actions maps "entry_<name>"/"exit_<name>" to its compiled tree, in
	// declaration order (spec.md §5 "order of rule evaluation across
	// multiple action blocks is declaration order").
	ActionOrder []string
	Actions     map[string]Expr
}

// LoadPlay reads, parses, and compiles a Play file from disk. Any
// compile error here is a spec.md §7 "compile error": surfaced at load,
// the engine never starts.
func LoadPlay(path string) (*Play, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read play file: %w", err)
	}
	var raw rawPlayFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse play yaml: %w", err)
	}
	return CompilePlay(&raw)
}

// CompilePlay builds the declared registry from features/structures,
// then compiles setups and every action condition against it.
func CompilePlay(raw *rawPlayFile) (*Play, error) {
	reg := NewRegistry()
	for _, f := range raw.Features {
		names, err := indicatorOutputNames(f.IndicatorType, f.Params)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", f.ID, err)
		}
		reg.Features[f.ID] = FeatureDecl{
			ID: f.ID, TF: bar.Role(f.TF), IndicatorType: f.IndicatorType,
			OutputNames: names,
		}
	}
	for _, s := range raw.Structures {
		reg.Structures[s.ID] = FeatureDecl{
			ID: s.ID, TF: bar.Role(s.TF), IndicatorType: s.Type,
			OutputNames: structureOutputNames(s.Type),
		}
	}

	setups := NewSetupStore(raw.Setups, reg)
	// Eagerly validate every setup compiles; Resolve still caches lazily
	// for evaluator use.
	for id := range raw.Setups {
		if _, err := setups.Resolve(id); err != nil {
			return nil, err
		}
	}

	order := make([]string, 0, len(raw.Actions))
	for name := range raw.Actions {
		order = append(order, name)
	}
	sortActionNames(order)

	actions := make(map[string]Expr, len(raw.Actions))
	for _, name := range order {
		e, err := Compile(raw.Actions[name], reg)
		if err != nil {
			return nil, fmt.Errorf("action %q: %w", name, err)
		}
		actions[name] = e
	}

	return &Play{
		ID: raw.ID, Version: raw.Version, SymbolUniverse: raw.SymbolUniverse,
		Timeframes: raw.Timeframes, Features: raw.Features, Structures: raw.Structures,
		RiskPolicy: raw.RiskPolicy, RiskModel: raw.RiskModel, Account: raw.Account,
		Registry: reg, Setups: setups,
		ActionOrder: order, Actions: actions,
	}, nil
}

func sortActionNames(names []string) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
}

// indicatorOutputNames returns the declared output-field set for an
// indicator kind, used to validate "indicator.<id>.<field>" refs at
// compile time. Single-output indicators return a nil slice (bare
// "indicator.<id>" is the only legal form). The names come straight from
// the instantiated indicator's own MultiOutput.OutputNames(), so the
// registry can never drift from what the indicator factory actually
// builds.
func indicatorOutputNames(kind string, params indicator.Params) ([]string, error) {
	ind, err := indicator.New(kind, params)
	if err != nil {
		return nil, err
	}
	if mo, ok := ind.(indicator.MultiOutput); ok {
		return mo.OutputNames(), nil
	}
	return nil, nil
}

// structureOutputNames returns the declared field set for a structure
// type (spec.md §4.3).
func structureOutputNames(kind string) []string {
	switch kind {
	case "swing":
		return []string{"high_level", "low_level", "high_version", "low_version",
			"pair_version", "pair_direction"}
	case "trend":
		return []string{"state"}
	case "zone":
		return []string{"state", "upper", "lower"}
	default:
		return nil
	}
}
