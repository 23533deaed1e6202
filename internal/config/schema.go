package config

import (
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// settingsSchema is the JSON Schema (draft 7) the raw settings document
// must satisfy before decoding.
const settingsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["venues", "strategies"],
  "properties": {
    "venues": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "type"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "type": {"type": "string", "enum": ["binance", "paper"]},
          "options": {"type": "object"}
        }
      }
    },
    "strategies": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "type", "venue"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "type": {"type": "string", "enum": ["arbitrage"]},
          "venue": {"type": "string", "minLength": 1},
          "options": {
            "type": "object",
            "properties": {
              "trade_unit": {"type": "number", "exclusiveMinimum": 0},
              "init_currency": {"type": "string", "minLength": 1},
              "min_rate": {"type": "number"},
              "fee_rate": {"type": "number", "minimum": 0},
              "cooldown_sec": {"type": "integer", "minimum": 0},
              "scan_interval_ms": {"type": "integer", "minimum": 0},
              "bootstrap_sec": {"type": "integer", "minimum": 0},
              "max_tick_age_ms": {"type": "integer", "minimum": 0},
              "exclude_currencies": {"type": "array", "items": {"type": "string"}},
              "dry_run": {"type": "boolean"}
            },
            "required": ["trade_unit", "init_currency"]
          }
        }
      }
    },
    "redis": {"type": "object"},
    "metrics": {"type": "object"}
  }
}`

var compiledSchema = mustCompile()

func mustCompile() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	if err := c.AddResource("settings.json", strings.NewReader(settingsSchema)); err != nil {
		panic(err)
	}
	return c.MustCompile("settings.json")
}

// validate round-trips the YAML document through JSON so the validator
// sees plain json types.
func validate(doc interface{}) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return compiledSchema.Validate(v)
}
