package order

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// orderSchema validates the fully constructed order record before it is
// persisted, not the raw request: identifier, timestamps and status are part
// of the contract with the table.
const orderSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Order",
  "type": "object",
  "required": ["pk", "sk", "id", "created", "updated", "branchId", "carModelId", "quantity", "status"],
  "properties": {
    "pk": { "type": "string" },
    "sk": { "type": "string" },
    "id": { "type": "string" },
    "created": { "type": "string" },
    "updated": { "type": "string" },
    "branchId": { "type": "string", "minLength": 1 },
    "carModelId": { "type": "string", "minLength": 1 },
    "quantity": { "type": "number", "minimum": 1 },
    "color": { "type": "string" },
    "trimLevel": { "type": "string" },
    "options": { "type": "array", "items": { "type": "string" } },
    "notes": { "type": "string" },
    "status": { "type": "string", "enum": ["pending", "completed", "canceled"] }
  },
  "additionalProperties": false
}`

var compiledSchema = jsonschema.MustCompileString("order.json", orderSchema)

func validateOrder(order Order) error {
	// round-trip through JSON so validation sees the serialized shape
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("could not marshal order for validation: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("could not unmarshal order for validation: %w", err)
	}

	if err := compiledSchema.Validate(doc); err != nil {
		return &ValidationError{Message: fmt.Sprintf("invalid order: %v", err)}
	}

	return nil
}
