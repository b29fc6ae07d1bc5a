package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ironbook/internal/book"
	"ironbook/internal/common"
	"ironbook/internal/metrics"
)

func startTestServer(t *testing.T) (addr string, shutdown func()) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr = listener.Addr().String()
	listener.Close()

	b := book.New(1, "Test", "TEST")
	collector := metrics.NewCollector("servertest")
	b.SetObserver(collector)
	srv := New(addr, b, collector, 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = srv.Run(ctx)
		close(done)
	}()

	// Give the listener a moment to bind before clients dial.
	time.Sleep(50 * time.Millisecond)

	return addr, func() {
		cancel()
		<-done
	}
}

func dial(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	return conn
}

func sendLine(t *testing.T, conn net.Conn, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	_, err = conn.Write(append(data, '\n'))
	require.NoError(t, err)
}

func readReport(t *testing.T, conn net.Conn) Report {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	scanner := bufio.NewScanner(conn)
	require.True(t, scanner.Scan())
	var report Report
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &report))
	return report
}

func TestServerAcksRestingOrder(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	conn := dial(t, addr)
	defer conn.Close()

	sendLine(t, conn, map[string]any{
		"type": "new_order",
		"order": map[string]any{
			"id": 1, "kind": "Bid", "price": 10.0, "quantity": 5,
			"created": time.Now().Format(time.RFC3339), "modified": time.Now().Format(time.RFC3339), "cancelled": nil,
		},
	})

	report := readReport(t, conn)
	assert.Equal(t, AckReport, report.Type)
}

func TestServerReportsExecution(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	maker := dial(t, addr)
	defer maker.Close()
	taker := dial(t, addr)
	defer taker.Close()

	sendLine(t, maker, map[string]any{
		"type": "new_order",
		"order": map[string]any{
			"id": 1, "kind": "Ask", "price": 10.0, "quantity": 5,
			"created": time.Now().Format(time.RFC3339), "modified": time.Now().Format(time.RFC3339), "cancelled": nil,
		},
	})
	ack := readReport(t, maker)
	assert.Equal(t, AckReport, ack.Type)

	sendLine(t, taker, map[string]any{
		"type": "new_order",
		"order": map[string]any{
			"id": 2, "kind": "Bid", "price": 10.0, "quantity": 5,
			"created": time.Now().Format(time.RFC3339), "modified": time.Now().Format(time.RFC3339), "cancelled": nil,
		},
	})

	execution := readReport(t, maker)
	assert.Equal(t, ExecutionReport, execution.Type)
	require.NotNil(t, execution.Quantity)
	assert.Equal(t, common.Quantity(5), *execution.Quantity)
}

func TestServerErrorsOnMalformedLine(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	conn := dial(t, addr)
	defer conn.Close()

	_, err := conn.Write([]byte("not json\n"))
	require.NoError(t, err)

	report := readReport(t, conn)
	assert.Equal(t, ErrorReport, report.Type)
}

func TestServerAcksCancel(t *testing.T) {
	addr, shutdown := startTestServer(t)
	defer shutdown()

	conn := dial(t, addr)
	defer conn.Close()

	sendLine(t, conn, map[string]any{
		"type": "new_order",
		"order": map[string]any{
			"id": 7, "kind": "Bid", "price": 10.0, "quantity": 5,
			"created": time.Now().Format(time.RFC3339), "modified": time.Now().Format(time.RFC3339), "cancelled": nil,
		},
	})
	readReport(t, conn)

	sendLine(t, conn, map[string]any{"type": "cancel_order", "order_id": 7})
	report := readReport(t, conn)
	assert.Equal(t, AckReport, report.Type)
}
