package decision

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"
)

const decisionSchemaJSON = `{
  "type": "object",
  "required": ["trading_decision", "position_management"],
  "properties": {
    "trading_decision": {
      "type": "object",
      "required": ["action", "confidence_level", "reason"],
      "properties": {
        "action": {"enum": ["hold", "open_long", "open_short"]},
        "confidence_level": {"enum": ["high", "medium", "low"]},
        "reason": {"type": "string"}
      }
    },
    "position_management": {
      "type": "object",
      "required": ["position_size", "stop_loss_price", "take_profit_price"],
      "properties": {
        "position_size": {"$ref": "#/$defs/amount"},
        "stop_loss_price": {"$ref": "#/$defs/amount"},
        "take_profit_price": {"$ref": "#/$defs/amount"}
      }
    }
  },
  "$defs": {
    "amount": {
      "oneOf": [
        {"type": "number"},
        {"type": "string", "pattern": "^-?[0-9]+(\\.[0-9]+)?$"}
      ]
    }
  }
}`

// ErrSchema marks a candidate that is not a valid decision document.
var ErrSchema = errors.New("decision schema mismatch")

var decisionSchema = mustCompileSchema(decisionSchemaJSON)

func mustCompileSchema(raw string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("decision.json", strings.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("decision schema: %v", err))
	}
	schema, err := compiler.Compile("decision.json")
	if err != nil {
		panic(fmt.Sprintf("decision schema: %v", err))
	}
	return schema
}

// Validate is the single acceptance predicate shared by every parser tier.
// Amounts may arrive as JSON numbers or numeric strings.
func Validate(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: empty document", ErrSchema)
	}
	if !gjson.Valid(raw) {
		return fmt.Errorf("%w: invalid json", ErrSchema)
	}
	if !gjson.Parse(raw).IsObject() {
		return fmt.Errorf("%w: root must be an object", ErrSchema)
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if err := decisionSchema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return nil
}

// decode validates raw and converts it into a Decision.
func decode(raw string, src Source) (Decision, error) {
	if err := Validate(raw); err != nil {
		return Decision{}, err
	}
	var w wireDecision
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &w); err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return Decision{
		Action:       Action(w.TradingDecision.Action),
		Confidence:   Confidence(w.TradingDecision.ConfidenceLevel),
		Reason:       w.TradingDecision.Reason,
		PositionSize: w.PositionManagement.PositionSize,
		StopLoss:     w.PositionManagement.StopLossPrice,
		TakeProfit:   w.PositionManagement.TakeProfitPrice,
		Source:       src,
	}, nil
}
