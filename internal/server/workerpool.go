package server

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// taskChanSize bounds how many accepted connections can be queued
// before a worker picks them up.
const taskChanSize = 100

// WorkerFunc processes one task. A returned error is logged and the
// worker goes on to the next task; it does not kill the tomb.
type WorkerFunc = func(t *tomb.Tomb, task any) error

// WorkerPool is a fixed-size pool of goroutines draining a shared task
// channel, supervised by a tomb.Tomb. Grounded on the teacher's
// internal/worker.go, with the busy-polling `select { default: }` loop
// it used to top up active workers replaced by a fixed set of N
// long-lived worker goroutines blocking on the channel — same shape,
// without spinning the CPU waiting for work.
type WorkerPool struct {
	n     int
	tasks chan any
}

// NewWorkerPool creates a pool with the given number of workers.
func NewWorkerPool(size int) WorkerPool {
	return WorkerPool{
		tasks: make(chan any, taskChanSize),
		n:     size,
	}
}

// AddTask enqueues a task (a net.Conn, in this server) for a worker to
// pick up.
func (p *WorkerPool) AddTask(task any) {
	p.tasks <- task
}

// Setup starts the pool's workers under t.
func (p *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunc) {
	log.Info().Int("workers", p.n).Msg("starting worker pool")
	for i := 0; i < p.n; i++ {
		t.Go(func() error {
			return p.loop(t, work)
		})
	}
}

func (p *WorkerPool) loop(t *tomb.Tomb, work WorkerFunc) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-p.tasks:
			if err := work(t, task); err != nil {
				log.Error().Err(err).Msg("worker task failed")
			}
		}
	}
}
