package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ironbook/internal/common"
)

func TestParseMessageNewOrder(t *testing.T) {
	line := []byte(`{"type":"new_order","order":{"id":1,"kind":"Bid","price":10.0,"quantity":5,"created":"2024-01-01T00:00:00Z","modified":"2024-01-01T00:00:00Z","cancelled":null}}`)
	msg, err := parseMessage(line)
	require.NoError(t, err)

	order, ok := msg.(NewOrderMessage)
	require.True(t, ok)
	assert.Equal(t, common.Bid, order.Order.Kind())
	assert.Equal(t, common.Quantity(5), order.Order.Quantity())
}

func TestParseMessageCancelOrder(t *testing.T) {
	line := []byte(`{"type":"cancel_order","order_id":42}`)
	msg, err := parseMessage(line)
	require.NoError(t, err)

	cancel, ok := msg.(CancelOrderMessage)
	require.True(t, ok)
	assert.Equal(t, "42", cancel.Id.String())
}

func TestParseMessageLogBook(t *testing.T) {
	msg, err := parseMessage([]byte(`{"type":"log_book"}`))
	require.NoError(t, err)
	assert.Equal(t, LogBook, msg.Type())
}

func TestParseMessageUnknownType(t *testing.T) {
	_, err := parseMessage([]byte(`{"type":"bogus"}`))
	assert.ErrorIs(t, err, ErrUnknownMessageType)
}

func TestParseMessageMissingOrder(t *testing.T) {
	_, err := parseMessage([]byte(`{"type":"new_order"}`))
	assert.Error(t, err)
}

func TestReportMarshalLine(t *testing.T) {
	price := 12.5
	qty := common.Quantity(3)
	report := Report{Type: ExecutionReport, Price: &price, Quantity: &qty, Fullness: "Full"}

	line, err := report.marshalLine()
	require.NoError(t, err)
	assert.Contains(t, string(line), `"type":"execution"`)
	assert.Equal(t, byte('\n'), line[len(line)-1])
}

func TestReportMarshalLineOmitsEmptyFields(t *testing.T) {
	report := Report{Type: AckReport}
	line, err := report.marshalLine()
	require.NoError(t, err)
	assert.NotContains(t, string(line), "price")
	assert.NotContains(t, string(line), "counterparty")
}
