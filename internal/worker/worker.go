// Package worker implements one worker process's event loop: a single
// epoll-driven loop over the shared listening socket plus this process's
// own accepted client fds. Every iteration runs the same four phases in
// order — timeout sweep, liveness check, fanout, readable dispatch — adapted
// from a blocking accept/read/dispatch shape to non-blocking epoll readiness
// and framed TCP reads.
package worker

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/ancillary-agi/snakearena/internal/protocol"
	"github.com/ancillary-agi/snakearena/internal/state"
)

// Config tunes one worker's event loop.
type Config struct {
	ID            int
	SelectTimeout time.Duration // default 50ms
	ClientTimeout time.Duration
	MaxPayload    int
}

// connection is per-worker-process local state: never read by any other
// process.
type connection struct {
	fd           int
	traceID      string
	hasSlot      bool
	slotID       int
	lastVersion  uint64
	lastActivity time.Time
}

// Worker owns one epoll instance, the shared listening fd, and this
// process's accepted client fds.
type Worker struct {
	cfg        Config
	st         *state.State
	log        zerolog.Logger
	epfd       int
	listenerFd int
	conns      map[int]*connection
}

// New creates a worker bound to an already-listening shared socket fd,
// which it switches to non-blocking mode.
func New(cfg Config, st *state.State, listenerFd int, log zerolog.Logger) (*Worker, error) {
	if cfg.SelectTimeout <= 0 {
		cfg.SelectTimeout = 50 * time.Millisecond
	}
	if cfg.MaxPayload <= 0 {
		cfg.MaxPayload = protocol.DefaultMaxPayload
	}

	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, err
	}

	w := &Worker{
		cfg:        cfg,
		st:         st,
		log:        log,
		epfd:       epfd,
		listenerFd: listenerFd,
		conns:      make(map[int]*connection),
	}

	if err := unix.SetNonblock(listenerFd, true); err != nil {
		unix.Close(epfd)
		return nil, err
	}
	if err := w.epollAdd(listenerFd); err != nil {
		unix.Close(epfd)
		return nil, err
	}
	return w, nil
}

func (w *Worker) epollAdd(fd int) error {
	return unix.EpollCtl(w.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)})
}

func (w *Worker) epollDel(fd int) {
	_ = unix.EpollCtl(w.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// Run drives the event loop until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.log.Info().Int("worker_id", w.cfg.ID).Msg("worker event loop started")
	defer w.closeAll()

	events := make([]unix.EpollEvent, 64)
	timeoutMillis := int(w.cfg.SelectTimeout / time.Millisecond)
	if timeoutMillis <= 0 {
		timeoutMillis = 1
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Int("worker_id", w.cfg.ID).Msg("worker event loop stopping")
			return
		default:
		}

		n, err := unix.EpollWait(w.epfd, events, timeoutMillis)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			w.log.Error().Err(err).Msg("epoll_wait failed")
			continue
		}

		now := time.Now()
		w.timeoutSweep(now)
		w.livenessCheck()
		w.fanout()

		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if fd == w.listenerFd {
				w.acceptLoop(now)
			} else {
				w.handleReadable(fd, now)
			}
		}
	}
}

// acceptLoop drains every pending connection on the shared listener;
// multiple workers racing on accept is the intended concurrency model —
// the kernel serializes it.
func (w *Worker) acceptLoop(now time.Time) {
	for {
		nfd, _, err := unix.Accept4(w.listenerFd, unix.SOCK_NONBLOCK)
		if err != nil {
			if err == unix.EAGAIN {
				return
			}
			w.log.Error().Err(err).Msg("accept failed")
			return
		}
		// Client fds are switched back to blocking mode after acceptance
		// so a single Decode call can read a full frame once epoll reports
		// the fd readable. A peer that stops mid-frame without closing
		// blocks this worker's loop until it sends the rest or closes.
		if err := unix.SetNonblock(nfd, false); err != nil {
			unix.Close(nfd)
			continue
		}
		if err := w.epollAdd(nfd); err != nil {
			unix.Close(nfd)
			continue
		}
		w.conns[nfd] = &connection{
			fd:           nfd,
			traceID:      uuid.NewString(),
			slotID:       -1,
			lastActivity: now,
		}
		w.log.Debug().Int("fd", nfd).Msg("accepted connection")
	}
}

// fdReadWriter adapts a raw fd to io.Reader/io.Writer for protocol.Decode.
type fdReadWriter struct{ fd int }

func (r fdReadWriter) Read(p []byte) (int, error) {
	n, err := unix.Read(r.fd, p)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (w *Worker) handleReadable(fd int, now time.Time) {
	c, ok := w.conns[fd]
	if !ok {
		return
	}

	op, raw, err := protocol.Decode(fdReadWriter{fd: fd}, w.cfg.MaxPayload)
	if err != nil {
		w.log.Debug().Int("fd", fd).Err(err).Msg("frame decode failed, dropping connection")
		w.releaseAndClose(c)
		return
	}
	if err := protocol.ValidatePayloadLength(op, raw); err != nil {
		w.log.Debug().Int("fd", fd).Err(err).Msg("payload length mismatch, dropping connection")
		w.releaseAndClose(c)
		return
	}

	c.lastActivity = now
	w.dispatch(c, op, raw)
}

// timeoutSweep drops any connection idle for longer than ClientTimeout.
func (w *Worker) timeoutSweep(now time.Time) {
	var stale []*connection
	for _, c := range w.conns {
		if now.Sub(c.lastActivity) > w.cfg.ClientTimeout {
			stale = append(stale, c)
		}
	}
	for _, c := range stale {
		w.log.Debug().Int("fd", c.fd).Msg("client idle timeout")
		w.releaseAndClose(c)
	}
}

// livenessCheck notifies and drops any connection whose slot was marked
// inactive by the tick process (collision) or an admin release.
func (w *Worker) livenessCheck() {
	var dead []*connection
	for _, c := range w.conns {
		if c.hasSlot && !w.st.SlotActive(c.slotID) {
			dead = append(dead, c)
		}
	}
	for _, c := range dead {
		_ = w.sendFrame(c.fd, protocol.OpDie, nil)
		w.closeConn(c.fd)
	}
}

// fanout pushes a grid snapshot to every connection whose observed version
// lags the current one. One snapshot is taken and reused across every
// stale connection in this pass: serialize once, write to many fds.
func (w *Worker) fanout() {
	peek := w.st.PeekVersion()
	stale := false
	for _, c := range w.conns {
		if c.hasSlot && c.lastVersion < peek {
			stale = true
			break
		}
	}
	if !stale {
		return
	}

	cells, version := w.st.Snapshot()
	framed := protocol.Encode(protocol.OpUpdate, protocol.EncodeUpdate(cells))

	var broken []*connection
	for _, c := range w.conns {
		if !c.hasSlot || c.lastVersion >= version {
			continue
		}
		if err := w.sendRaw(c.fd, framed); err != nil {
			broken = append(broken, c)
			continue
		}
		c.lastVersion = version
	}
	for _, c := range broken {
		w.releaseAndClose(c)
	}
}

func (w *Worker) sendFrame(fd int, op protocol.Opcode, raw []byte) error {
	return w.sendRaw(fd, protocol.Encode(op, raw))
}

func (w *Worker) sendRaw(fd int, framed []byte) error {
	total := 0
	for total < len(framed) {
		n, err := unix.Write(fd, framed[total:])
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}
		total += n
	}
	return nil
}

func (w *Worker) closeConn(fd int) {
	w.epollDel(fd)
	unix.Close(fd)
	delete(w.conns, fd)
}

func (w *Worker) releaseAndClose(c *connection) {
	if c.hasSlot {
		w.st.Release(c.slotID)
	}
	w.closeConn(c.fd)
}

func (w *Worker) closeAll() {
	for fd, c := range w.conns {
		if c.hasSlot {
			w.st.Release(c.slotID)
		}
		unix.Close(fd)
	}
	w.conns = make(map[int]*connection)
	unix.Close(w.epfd)
}
