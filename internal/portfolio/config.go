package portfolio

import (
	"encoding/json"
	"math"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-portfolio/internal/types"
	"github.com/rxtech-lab/argo-portfolio/pkg/errors"
)

// ConflictPolicy decides what happens when an entry and an exit signal land on
// the same tick for the same column.
type ConflictPolicy string

const (
	// ConflictPolicyIgnore drops both signals.
	ConflictPolicyIgnore ConflictPolicy = "IGNORE"
	// ConflictPolicyPreferExit honors the exit and drops the entry.
	ConflictPolicyPreferExit ConflictPolicy = "PREFER_EXIT"
	// ConflictPolicyPreferEntry honors the entry and drops the exit.
	ConflictPolicyPreferEntry ConflictPolicy = "PREFER_ENTRY"
)

// AllConflictPolicies lists every supported conflict policy, for schema
// generation.
var AllConflictPolicies = []any{
	string(ConflictPolicyIgnore),
	string(ConflictPolicyPreferExit),
	string(ConflictPolicyPreferEntry),
}

// GroupSpec names a set of columns sharing one cash pool. Orders across the
// group's columns at the same tick are processed in CallSeq order; later
// columns in the sequence see the cash state left by earlier ones.
type GroupSpec struct {
	// Columns are the column indices belonging to this group.
	Columns []int `yaml:"columns" json:"columns" jsonschema:"title=Columns,description=Column indices sharing one cash pool"`
	// CallSeq is the deterministic processing order of the group's columns at
	// each tick. Must be a permutation of Columns. Defaults to ascending order.
	CallSeq []int `yaml:"call_seq,omitempty" json:"call_seq,omitempty" jsonschema:"title=Call Sequence,description=Deterministic per-tick processing order; a permutation of columns"`
}

type Config struct {
	InitialCash float64 `yaml:"initial_cash" json:"initial_cash" jsonschema:"title=Initial Cash,description=Starting cash per column (or per group) in quote currency,minimum=0"`
	// Fees is the proportional fee applied to the traded value of every fill.
	Fees float64 `yaml:"fees" json:"fees" jsonschema:"title=Fees,description=Proportional fee on traded value,minimum=0"`
	// FixedFees is the flat fee charged per fill.
	FixedFees float64 `yaml:"fixed_fees" json:"fixed_fees" jsonschema:"title=Fixed Fees,description=Flat fee per fill,minimum=0"`
	// Slippage is the proportional adverse price impact: buys fill higher and
	// sells fill lower by this fraction.
	Slippage      float64 `yaml:"slippage" json:"slippage" jsonschema:"title=Slippage,description=Proportional adverse price impact,minimum=0"`
	AllowShort    bool    `yaml:"allow_short" json:"allow_short" jsonschema:"title=Allow Short,description=Permit positions to go negative"`
	AllowLeverage bool    `yaml:"allow_leverage" json:"allow_leverage" jsonschema:"title=Allow Leverage,description=Permit buys beyond available cash by booking a margin loan"`
	// ConflictPolicy resolves simultaneous entry and exit signals on one tick.
	ConflictPolicy ConflictPolicy `yaml:"conflict_policy" json:"conflict_policy" jsonschema:"title=Conflict Policy,description=Resolution of simultaneous entry and exit signals"`
	// OrderSize and OrderSizeType size the orders generated from entry
	// signals. The default is 100% of current equity.
	OrderSize     float64        `yaml:"order_size" json:"order_size" jsonschema:"title=Order Size,description=Size of signal-generated orders"`
	OrderSizeType types.SizeType `yaml:"order_size_type" json:"order_size_type" jsonschema:"title=Order Size Type,description=Size type of signal-generated orders"`
	// Groups maps a group name to the columns sharing one cash pool.
	// Ungrouped columns are fully isolated from each other.
	Groups map[string]GroupSpec `yaml:"groups,omitempty" json:"groups,omitempty" jsonschema:"title=Groups,description=Named sets of columns sharing one cash pool"`
	// Workers bounds the number of concurrent column simulations.
	// Zero means one worker per CPU.
	Workers int `yaml:"workers" json:"workers" jsonschema:"title=Workers,description=Concurrent column simulations; 0 uses one per CPU,minimum=0"`
}

// UnmarshalYAML implements custom unmarshaling for Config so that omitted
// fields pick up the same defaults DefaultConfig uses.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type rawConfig Config

	raw := rawConfig(DefaultConfig())
	if err := unmarshal(&raw); err != nil {
		return err
	}

	*c = Config(raw)

	return nil
}

// Validate checks the configuration before a run. Structural problems here are
// fatal; they are never surfaced mid-simulation.
func (c *Config) Validate() error {
	if math.IsNaN(c.InitialCash) || math.IsInf(c.InitialCash, 0) || c.InitialCash <= 0 {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "initial_cash must be finite and positive, got %v", c.InitialCash)
	}

	if c.Fees < 0 || c.Fees >= 1 || math.IsNaN(c.Fees) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "fees must be in [0, 1), got %v", c.Fees)
	}

	if c.FixedFees < 0 || math.IsNaN(c.FixedFees) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "fixed_fees must be non-negative, got %v", c.FixedFees)
	}

	if c.Slippage < 0 || c.Slippage >= 1 || math.IsNaN(c.Slippage) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "slippage must be in [0, 1), got %v", c.Slippage)
	}

	switch c.ConflictPolicy {
	case ConflictPolicyIgnore, ConflictPolicyPreferExit, ConflictPolicyPreferEntry:
	default:
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown conflict_policy %q", c.ConflictPolicy)
	}

	switch c.OrderSizeType {
	case types.SizeTypeShares, types.SizeTypeValue, types.SizeTypePercent,
		types.SizeTypeTargetPercent, types.SizeTypeTargetValue:
	default:
		return errors.Newf(errors.ErrCodeInvalidSizeType, "unknown order_size_type %q", c.OrderSizeType)
	}

	if c.OrderSize <= 0 || math.IsNaN(c.OrderSize) || math.IsInf(c.OrderSize, 0) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "order_size must be finite and positive, got %v", c.OrderSize)
	}

	if c.Workers < 0 {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "workers must be non-negative, got %d", c.Workers)
	}

	return c.validateGroups()
}

// validateGroups checks that group members are unique across all groups and
// that every call_seq is a permutation of its group's columns. Column range
// checks against the actual grid happen at run time.
func (c *Config) validateGroups() error {
	seen := make(map[int]string)

	for name, group := range c.Groups {
		if len(group.Columns) == 0 {
			return errors.Newf(errors.ErrCodeInvalidGroup, "group %q has no columns", name)
		}

		for _, col := range group.Columns {
			if col < 0 {
				return errors.Newf(errors.ErrCodeInvalidGroup, "group %q contains negative column %d", name, col)
			}

			if other, ok := seen[col]; ok {
				return errors.Newf(errors.ErrCodeInvalidGroup, "column %d belongs to both group %q and group %q", col, other, name)
			}

			seen[col] = name
		}

		if len(group.CallSeq) > 0 {
			if err := validateCallSeq(name, group.Columns, group.CallSeq); err != nil {
				return err
			}
		}
	}

	return nil
}

func validateCallSeq(group string, columns, callSeq []int) error {
	if len(callSeq) != len(columns) {
		return errors.Newf(errors.ErrCodeInvalidCallSeq,
			"group %q call_seq has %d entries, expected %d", group, len(callSeq), len(columns))
	}

	members := make(map[int]bool, len(columns))
	for _, col := range columns {
		members[col] = true
	}

	used := make(map[int]bool, len(callSeq))

	for _, col := range callSeq {
		if !members[col] {
			return errors.Newf(errors.ErrCodeInvalidCallSeq,
				"group %q call_seq contains column %d which is not a group member", group, col)
		}

		if used[col] {
			return errors.Newf(errors.ErrCodeInvalidCallSeq,
				"group %q call_seq lists column %d twice", group, col)
		}

		used[col] = true
	}

	return nil
}

// GenerateSchema generates a JSON schema for the Config
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if strings.Contains(t.String(), "portfolio.ConflictPolicy") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: AllConflictPolicies,
				}
			}
			if strings.Contains(t.String(), "types.SizeType") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: types.AllSizeTypes,
				}
			}
			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "portfolio-config"
	schema.Description = "Configuration schema for the portfolio simulation engine"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the Config
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// DefaultConfig returns a Config with default values: 100% of equity per
// entry signal, conflicts ignored, no fees, no shorting, no leverage.
func DefaultConfig() Config {
	return Config{
		InitialCash:    10000,
		Fees:           0,
		FixedFees:      0,
		Slippage:       0,
		AllowShort:     false,
		AllowLeverage:  false,
		ConflictPolicy: ConflictPolicyIgnore,
		OrderSize:      1.0,
		OrderSizeType:  types.SizeTypePercent,
		Groups:         nil,
		Workers:        0,
	}
}

// TestConfig returns a Config suitable for deterministic tests: single worker,
// no fees, no slippage.
func TestConfig(initialCash float64) Config {
	config := DefaultConfig()
	config.InitialCash = initialCash
	config.Workers = 1

	return config
}
