package stealth

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/lcalzada-xor/honeytrap/internal/core/domain"
	"github.com/lcalzada-xor/honeytrap/internal/core/ports"
	"github.com/lcalzada-xor/honeytrap/internal/telemetry"
)

// acceptPoll bounds how long a worker blocks in Accept before re-checking
// its stop signal.
const acceptPoll = 500 * time.Millisecond

// Supervisor masks disabled service ports from naive scanners. Every port
// whose policy status is inactive owns one worker holding a listener that
// accepts and immediately closes each connection with linger zero, so the
// kernel answers probes with a TCP RST instead of a graceful FIN.
type Supervisor struct {
	mu      sync.Mutex
	workers map[int]*worker
}

type worker struct {
	port     int
	listener *net.TCPListener
	stop     chan struct{}
	done     chan struct{}
}

// NewSupervisor creates an empty supervisor; workers are started through
// SetVisibility or SyncAll.
func NewSupervisor() *Supervisor {
	return &Supervisor{workers: make(map[int]*worker)}
}

// SetVisibility reconciles one port against its policy status. Marking a
// port inactive starts an RST worker (tearing down any previous one first);
// marking it active stops the worker.
func (s *Supervisor) SetVisibility(port int, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w, ok := s.workers[port]; ok {
		w.shutdown()
		delete(s.workers, port)
	}

	if active {
		return
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		// Port in use, likely by the real service being fronted. Leaving it
		// alone keeps it indistinguishable from a genuinely open port.
		slog.Warn("Stealth worker could not bind", "port", port, "error", err)
		return
	}

	w := &worker{
		port:     port,
		listener: ln.(*net.TCPListener),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	s.workers[port] = w
	go w.run()
}

// SyncAll reconciles every known port, called once at startup.
func (s *Supervisor) SyncAll(servicePorts []domain.ServicePort) {
	for _, p := range servicePorts {
		s.SetVisibility(p.Number, p.IsActive())
	}
}

// Stop terminates all workers and releases their listeners.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for port, w := range s.workers {
		w.shutdown()
		delete(s.workers, port)
	}
}

// WorkerCount reports how many RST workers are currently running.
func (s *Supervisor) WorkerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workers)
}

func (w *worker) shutdown() {
	close(w.stop)
	w.listener.Close()
	<-w.done
}

func (w *worker) run() {
	defer close(w.done)
	defer w.listener.Close()

	label := strconv.Itoa(w.port)

	for {
		select {
		case <-w.stop:
			return
		default:
		}

		w.listener.SetDeadline(time.Now().Add(acceptPoll))
		conn, err := w.listener.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-w.stop:
				return
			default:
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}

		// Linger zero makes Close emit an RST rather than a FIN.
		if tc, ok := conn.(*net.TCPConn); ok {
			tc.SetLinger(0)
		}
		conn.Close()
		telemetry.StealthResets.WithLabelValues(label).Inc()
	}
}

// Ensure interface compliance
var _ ports.VisibilityController = (*Supervisor)(nil)
