package osc

import (
	"context"
	"log/slog"
	"net"

	"github.com/dotfeel/dotbridged/internal/errors"
)

// maxDatagram is larger than any OSC packet the supported senders emit.
const maxDatagram = 65535

// Server listens for OSC datagrams over UDP and feeds parsed messages into
// the ingest queue. Malformed datagrams are dropped with a debug log.
type Server struct {
	addr   string
	queue  *Queue
	logger *slog.Logger
}

// NewServer creates a UDP server delivering into queue.
func NewServer(addr string, queue *Queue, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{addr: addr, queue: queue, logger: logger}
}

// Run binds the socket and reads datagrams until ctx is cancelled. A bind
// failure is returned immediately so the daemon can refuse to start half-deaf.
func (s *Server) Run(ctx context.Context) error {
	udpAddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return errors.WrapErrorf(err, "resolving osc listen address %q", s.addr)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return errors.WrapErrorf(err, "binding osc listener on %q", s.addr)
	}
	defer conn.Close()

	// Unblock the read loop on shutdown.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	s.logger.Info("osc: listening", "address", conn.LocalAddr().String())

	buf := make([]byte, maxDatagram)
	for {
		n, remote, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("osc: listener stopped")
				return nil
			}
			return errors.WrapErrorf(err, "reading osc datagram")
		}

		msgs, err := Parse(buf[:n])
		if err != nil {
			s.logger.Debug("osc: dropping malformed datagram",
				"remote", remote.String(),
				"bytes", n,
				"error", err,
			)
			continue
		}
		for _, m := range msgs {
			s.queue.Enqueue(m)
		}
	}
}
