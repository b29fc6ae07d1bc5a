package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"ironbook/internal/common"
)

// ErrUnknownMessageType is returned by parseMessage for an envelope
// whose "type" field isn't one of the three recognized kinds.
var ErrUnknownMessageType = errors.New("server: unknown message type")

// MessageType discriminates the newline-delimited JSON envelopes the
// TCP order-entry server accepts. Grounded on the teacher's
// internal/net/messages.go taxonomy (NewOrder / CancelOrder / LogBook),
// reframed as JSON instead of a fixed binary header because spec.md §6
// specifies a JSON wire format for orders.
type MessageType string

const (
	NewOrder    MessageType = "new_order"
	CancelOrder MessageType = "cancel_order"
	LogBook     MessageType = "log_book"
)

// Message is any parsed client request.
type Message interface {
	Type() MessageType
}

// NewOrderMessage submits an order for matching.
type NewOrderMessage struct {
	Order *common.PlainOrder
}

func (NewOrderMessage) Type() MessageType { return NewOrder }

// CancelOrderMessage cancels a resting order by id.
type CancelOrderMessage struct {
	Id common.OrderId
}

func (CancelOrderMessage) Type() MessageType { return CancelOrder }

// LogBookMessage asks the server to log the current book state.
type LogBookMessage struct{}

func (LogBookMessage) Type() MessageType { return LogBook }

type envelope struct {
	Type    MessageType        `json:"type"`
	Order   *common.PlainOrder `json:"order,omitempty"`
	OrderId json.RawMessage    `json:"order_id,omitempty"`
}

// parseMessage decodes one newline-delimited JSON envelope.
func parseMessage(line []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("server: decoding envelope: %w", err)
	}

	switch env.Type {
	case NewOrder:
		if env.Order == nil {
			return nil, errors.New("server: new_order message missing order")
		}
		return NewOrderMessage{Order: env.Order}, nil
	case CancelOrder:
		var id common.OrderId
		if err := id.UnmarshalJSON(env.OrderId); err != nil {
			return nil, fmt.Errorf("server: decoding order_id: %w", err)
		}
		return CancelOrderMessage{Id: id}, nil
	case LogBook:
		return LogBookMessage{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
	}
}

// ReportType discriminates what the server sends back to a client.
type ReportType string

const (
	ExecutionReport ReportType = "execution"
	AckReport       ReportType = "ack"
	ErrorReport     ReportType = "error"
)

// Report is one line of JSON sent back to a connected client.
type Report struct {
	Type         ReportType       `json:"type"`
	OrderId      *common.OrderId  `json:"order_id,omitempty"`
	Counterparty *common.OrderId  `json:"counterparty,omitempty"`
	Price        *float64         `json:"price,omitempty"`
	Quantity     *common.Quantity `json:"quantity,omitempty"`
	Fullness     string           `json:"fullness,omitempty"`
	Error        string           `json:"error,omitempty"`
}

func (r Report) marshalLine() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
