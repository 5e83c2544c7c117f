package entity

import (
	"encoding/json"
	"fmt"

	"github.com/agriflow/procurement/pkg/types/errs"
)

// Command is a bus message instructing a single service to act.
type Command interface {
	CommandType() string
}

// Command type tags.
const (
	CommandTypeReserveInventory    = "ReserveInventory"
	CommandTypeCompensateInventory = "CompensateInventory"
	CommandTypeProcessPayment      = "ProcessPayment"
	CommandTypeConfirmOrder        = "ConfirmOrder"
	CommandTypeCancelOrder         = "CancelOrder"
)

// ReserveInventory asks the inventory service to reserve every line item
// of an order, all-or-nothing.
type ReserveInventory struct {
	Type    string     `json:"command_type"`
	OrderID string     `json:"order_id"`
	Items   []LineItem `json:"items"`
}

func (c ReserveInventory) CommandType() string { return CommandTypeReserveInventory }

// LineItem is one requested (product, quantity) pair.
type LineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CompensateInventory asks the inventory service to release everything
// reserved for an order.
type CompensateInventory struct {
	Type    string `json:"command_type"`
	OrderID string `json:"order_id"`
}

func (c CompensateInventory) CommandType() string { return CommandTypeCompensateInventory }

// ProcessPayment asks the payment service to charge the buyer.
type ProcessPayment struct {
	Type        string  `json:"command_type"`
	OrderID     string  `json:"order_id"`
	BuyerID     string  `json:"buyer_id"`
	TotalAmount float64 `json:"total_amount"`
}

func (c ProcessPayment) CommandType() string { return CommandTypeProcessPayment }

// ConfirmOrder asks the order service to confirm a pending order.
type ConfirmOrder struct {
	Type    string `json:"command_type"`
	OrderID string `json:"order_id"`
}

func (c ConfirmOrder) CommandType() string { return CommandTypeConfirmOrder }

// CancelOrder asks the order service to cancel an order after its saga
// failed.
type CancelOrder struct {
	Type    string `json:"command_type"`
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

func (c CancelOrder) CommandType() string { return CommandTypeCancelOrder }

// MarshalCommand serializes a command, stamping its wire-level type tag.
func MarshalCommand(cmd Command) ([]byte, error) {
	raw, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("entity - MarshalCommand - json.Marshal: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("entity - MarshalCommand - json.Unmarshal: %w", err)
	}

	tag, err := json.Marshal(cmd.CommandType())
	if err != nil {
		return nil, fmt.Errorf("entity - MarshalCommand - tag: %w", err)
	}
	fields["command_type"] = tag

	out, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("entity - MarshalCommand - re-marshal: %w", err)
	}

	return out, nil
}

// DecodeCommand parses a raw command message by its type tag. For inventory
// commands without a tag it falls back to field inspection (an items list
// means ReserveInventory); the heuristic exists for legacy payloads and is
// known to be fragile.
func DecodeCommand(data []byte) (Command, error) {
	var probe struct {
		Type  string          `json:"command_type"`
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("entity - DecodeCommand - json.Unmarshal: %w", err)
	}

	commandType := probe.Type
	if commandType == "" {
		if len(probe.Items) > 0 {
			commandType = CommandTypeReserveInventory
		} else {
			commandType = CommandTypeCompensateInventory
		}
	}

	switch commandType {
	case CommandTypeReserveInventory:
		var cmd ReserveInventory
		if err := json.Unmarshal(data, &cmd); err != nil {
			return nil, fmt.Errorf("entity - DecodeCommand - ReserveInventory: %w", err)
		}
		return cmd, nil
	case CommandTypeCompensateInventory:
		var cmd CompensateInventory
		if err := json.Unmarshal(data, &cmd); err != nil {
			return nil, fmt.Errorf("entity - DecodeCommand - CompensateInventory: %w", err)
		}
		return cmd, nil
	case CommandTypeProcessPayment:
		var cmd ProcessPayment
		if err := json.Unmarshal(data, &cmd); err != nil {
			return nil, fmt.Errorf("entity - DecodeCommand - ProcessPayment: %w", err)
		}
		return cmd, nil
	case CommandTypeConfirmOrder:
		var cmd ConfirmOrder
		if err := json.Unmarshal(data, &cmd); err != nil {
			return nil, fmt.Errorf("entity - DecodeCommand - ConfirmOrder: %w", err)
		}
		return cmd, nil
	case CommandTypeCancelOrder:
		var cmd CancelOrder
		if err := json.Unmarshal(data, &cmd); err != nil {
			return nil, fmt.Errorf("entity - DecodeCommand - CancelOrder: %w", err)
		}
		return cmd, nil
	default:
		return nil, fmt.Errorf("entity - DecodeCommand - unknown command type %q: %w", commandType, errs.ErrValidation)
	}
}
