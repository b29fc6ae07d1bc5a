// Package server implements the TCP order-entry front-end: a
// supplement to spec.md's stdin/stdout line driver, because the
// teacher's actual shape is a networked exchange, not a REPL. Grounded
// on internal/net/server.go + internal/worker.go (ClientSession map,
// WorkerPool, tomb.Tomb-supervised goroutines, zerolog logging
// density), adapted from the teacher's fixed binary header to
// newline-delimited JSON so it speaks spec.md §6's order wire format.
//
// All order mutation is serialized through a single matching goroutine
// (matchingLoop) that owns the *book.Book exclusively — per spec.md §5,
// the book itself isn't internally synchronized, so a host embedding
// it in a concurrent environment has to provide that serialization.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"ironbook/internal/book"
	"ironbook/internal/common"
	"ironbook/internal/metrics"
)

const defaultConnTimeout = 30 * time.Second

var ErrImproperConversion = errors.New("server: improper task type conversion")

// clientRequest links an incoming message to the connection it arrived
// on, so the matching goroutine knows where to route reports.
type clientRequest struct {
	addr string
	msg  Message
}

// Server accepts TCP connections, parses newline-delimited order
// messages, and feeds them to a single matching goroutine in front of
// one book.Book.
type Server struct {
	addr      string
	book      *book.Book
	collector *metrics.Collector

	pool   WorkerPool
	cancel context.CancelFunc

	sessionsMu sync.Mutex
	sessions   map[string]net.Conn
	readers    map[string]*bufio.Reader

	ownersMu sync.Mutex
	owners   map[common.OrderId]string

	requests chan clientRequest
}

// New builds a Server listening (once Run is called) on addr, matching
// against b, with workers-many connection handlers.
func New(addr string, b *book.Book, collector *metrics.Collector, workers int) *Server {
	return &Server{
		addr:      addr,
		book:      b,
		collector: collector,
		pool:      NewWorkerPool(workers),
		sessions:  make(map[string]net.Conn),
		readers:   make(map[string]*bufio.Reader),
		owners:    make(map[common.OrderId]string),
		requests:  make(chan clientRequest, 1),
	}
}

// Shutdown stops the server's listener loop and supervised goroutines.
func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

// Run accepts connections until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	defer listener.Close()

	t.Go(func() error {
		s.pool.Setup(t, s.handleConnection)
		return nil
	})
	t.Go(func() error {
		return s.matchingLoop(t)
	})

	// Accept blocks independent of ctx; closing the listener on
	// cancellation is what actually unblocks it.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	log.Info().Str("addr", s.addr).Msg("server listening")

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				log.Error().Err(err).Msg("accept failed")
				continue
			}
		}
		log.Info().Str("remote", conn.RemoteAddr().String()).Msg("client connected")
		s.addSession(conn)
		s.pool.AddTask(conn)
	}
}

func (s *Server) addSession(conn net.Conn) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	addr := conn.RemoteAddr().String()
	s.sessions[addr] = conn
	s.readers[addr] = bufio.NewReader(conn)
}

func (s *Server) dropSession(addr string) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	if conn, ok := s.sessions[addr]; ok {
		conn.Close()
		delete(s.sessions, addr)
		delete(s.readers, addr)
	}
}

func (s *Server) readerFor(addr string) (*bufio.Reader, bool) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	r, ok := s.readers[addr]
	return r, ok
}

func (s *Server) sessionFor(addr string) (net.Conn, bool) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	conn, ok := s.sessions[addr]
	return conn, ok
}

// handleConnection reads one line, forwards it for matching, and
// requeues the connection so the next line is handled by a (possibly
// different) worker — the teacher's "push the connection back onto the
// task channel" pattern, adapted to a line-based reader instead of a
// single fixed-size recv buffer. The per-connection *bufio.Reader lives
// in s.readers rather than on the stack, so bytes buffered past the
// current line aren't discarded when this call returns and a different
// worker picks the connection back up.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrImproperConversion
	}

	addr := conn.RemoteAddr().String()
	reader, ok := s.readerFor(addr)
	if !ok {
		return nil // session already torn down
	}

	if err := conn.SetReadDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Error().Err(err).Str("remote", addr).Msg("failed setting read deadline")
		s.dropSession(addr)
		return nil
	}

	select {
	case <-t.Dying():
		return nil
	default:
		line, readErr := reader.ReadBytes('\n')
		if readErr != nil && len(line) == 0 {
			s.dropSession(addr)
			return nil
		}
		// A trailing line with no newline before EOF is still worth
		// parsing once before the session gets torn down.

		msg, err := parseMessage(line)
		if err != nil {
			log.Error().Err(err).Str("remote", addr).Msg("error parsing message")
			s.writeReport(addr, Report{Type: ErrorReport, Error: err.Error()})
		} else {
			s.requests <- clientRequest{addr: addr, msg: msg}
		}

		if readErr != nil {
			s.dropSession(addr)
			return nil
		}
		s.pool.AddTask(conn)
	}
	return nil
}

// matchingLoop is the single goroutine permitted to call into the
// book. It drains s.requests, applies the mutation, and reports the
// resulting events back to the connections involved.
func (s *Server) matchingLoop(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case req := <-s.requests:
			s.handleRequest(req)
		}
	}
}

func (s *Server) handleRequest(req clientRequest) {
	switch msg := req.msg.(type) {
	case NewOrderMessage:
		s.handleNewOrder(req.addr, msg.Order)
	case CancelOrderMessage:
		s.handleCancel(req.addr, msg.Id)
	case LogBookMessage:
		log.Info().Str("book", s.book.String()).Msg("book state requested")
	default:
		log.Error().Str("remote", req.addr).Msg("unhandled message type")
	}
}

func (s *Server) handleNewOrder(addr string, order *common.PlainOrder) {
	before := len(s.book.Events())
	s.book.Add(order)
	events := s.book.Events()[before:]

	if s.collector != nil {
		s.collector.RefreshDepth(s.book)
	}

	// Only a non-crossing add produces exactly one Post event; only
	// then does the order actually rest, so only then is it worth
	// remembering who to route future match reports to.
	if len(events) == 1 && events[0].Kind.Post != nil {
		s.ownersMu.Lock()
		s.owners[order.Id()] = addr
		s.ownersMu.Unlock()
		s.writeReport(addr, Report{Type: AckReport, OrderId: orderIdPtr(order.Id())})
		return
	}

	for _, ev := range events {
		if ev.Kind.Match == nil {
			continue
		}
		info := ev.Kind.Match.Info
		price := info.Incumbent.Price().Float()
		for _, cp := range info.Others {
			qty := cp.Quantity
			s.reportTrade(info.Incumbent.Id(), cp.Order.Id(), price, qty, ev.Kind.Match.Fullness.String())
			if ev.Kind.Match.Fullness.String() == "Full" {
				s.ownersMu.Lock()
				delete(s.owners, info.Incumbent.Id())
				s.ownersMu.Unlock()
			}
		}
	}
}

func (s *Server) reportTrade(incumbentId, takerId common.OrderId, price float64, qty common.Quantity, fullness string) {
	s.ownersMu.Lock()
	incumbentAddr, incumbentOk := s.owners[incumbentId]
	s.ownersMu.Unlock()

	if incumbentOk {
		s.writeReport(incumbentAddr, Report{
			Type: ExecutionReport, OrderId: orderIdPtr(incumbentId), Counterparty: orderIdPtr(takerId),
			Price: &price, Quantity: &qty, Fullness: fullness,
		})
	}
}

func (s *Server) handleCancel(addr string, id common.OrderId) {
	cancelled, ok := s.book.Cancel(id)
	if s.collector != nil {
		s.collector.RefreshDepth(s.book)
	}
	if !ok {
		s.writeReport(addr, Report{Type: ErrorReport, OrderId: orderIdPtr(id), Error: "order not found"})
		return
	}
	s.ownersMu.Lock()
	delete(s.owners, cancelled.Id())
	s.ownersMu.Unlock()
	s.writeReport(addr, Report{Type: AckReport, OrderId: orderIdPtr(id)})
}

func (s *Server) writeReport(addr string, report Report) {
	conn, ok := s.sessionFor(addr)
	if !ok {
		return
	}
	line, err := report.marshalLine()
	if err != nil {
		log.Error().Err(err).Msg("failed to encode report")
		return
	}
	if _, err := conn.Write(line); err != nil {
		log.Error().Err(err).Str("remote", addr).Msg("failed writing report")
		s.dropSession(addr)
	}
}

func orderIdPtr(id common.OrderId) *common.OrderId { return &id }
