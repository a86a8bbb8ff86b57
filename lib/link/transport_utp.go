package link

import (
	"net"
	"syscall"

	utp "storj.io/utp-go"
)

// utpLogger adapts this package's logger to utp.CompatibleLogger. The
// transport-adaptation layer binds the abstract reliable byte pipe to
// storj.io/utp-go over a shared *net.UDPConn.
type utpLogger struct{}

func (utpLogger) Infof(template string, args ...interface{})  { log.Infof(template, args...) }
func (utpLogger) Debugf(template string, args ...interface{}) { log.Debugf(template, args...) }
func (utpLogger) Errorf(template string, args ...interface{}) { log.Errorf(template, args...) }

// UTPEngine is the Engine implementation binding the link layer to a live
// UDP endpoint via storj.io/utp-go. One UTPEngine corresponds to one bound
// UDP socket and the uTP connection state multiplexed over it.
type UTPEngine struct {
	conn     *net.UDPConn
	log      utp.CompatibleLogger
	acceptFn func(sock Socket, addr *net.UDPAddr)
}

// NewUTPEngine wraps conn, an already-bound UDP socket, in a uTP transport
// context. The caller owns the read loop: feed every datagram it reads from
// conn into ProcessUDP.
func NewUTPEngine(conn *net.UDPConn) *UTPEngine {
	return &UTPEngine{conn: conn, log: utpLogger{}}
}

func (e *UTPEngine) SetAcceptHandler(fn func(sock Socket, addr *net.UDPAddr)) {
	e.acceptFn = fn
}

// sendTo is the PacketSendCallback every socket this engine creates shares:
// write the packet uTP assembled straight to the UDP endpoint.
func (e *UTPEngine) sendTo(userdata interface{}, buf []byte, addr *net.UDPAddr) {
	if _, err := e.conn.WriteToUDP(buf, addr); err != nil {
		log.WithError(err).Debug("utp packet send failed")
	}
}

func (e *UTPEngine) Outbound(addr *net.UDPAddr) (Socket, error) {
	raw := utp.Create(e.log, e.sendTo, nil, addr)
	return &utpSocket{raw: raw}, nil
}

func (e *UTPEngine) ProcessUDP(addr *net.UDPAddr, buf []byte) bool {
	return utp.IsIncomingUTP(e.log, e.onIncoming, e.sendTo, nil, buf, addr)
}

// onIncoming is the GotIncomingConnection callback: wrap the freshly minted
// socket and hand it to the manager via acceptFn.
func (e *UTPEngine) onIncoming(raw *utp.Socket) {
	sock := &utpSocket{raw: raw}
	if e.acceptFn != nil {
		e.acceptFn(sock, raw.GetPeerName())
	}
}

func (e *UTPEngine) CheckTimeouts() { utp.CheckTimeouts() }

// Pump drains platform-specific deferred work; on Linux this reads queued
// ICMP PMTU hints off the socket's error queue (icmp_linux.go), elsewhere
// it is a no-op (icmp_other.go). It issues no deferred uTP acks.
func (e *UTPEngine) Pump() { drainICMPHints(e.conn) }

func (e *UTPEngine) Close() error { return e.conn.Close() }

// utpSocket adapts one utp.Socket to this package's push-style Socket
// contract. Callbacks are registered with the *utpSocket itself as
// userdata, and dispatch to Session method values once Bind has been
// called, rather than through a separate untyped lookup table: Go's
// closures replace the original's void* userdata
// pattern.
type utpSocket struct {
	raw  *utp.Socket
	sess *Session

	pending []byte
	pulled  int
}

func (s *utpSocket) Bind(sess *Session) {
	s.sess = sess
	s.raw.SetCallbacks(&utp.CallbackTable{
		OnRead:     s.onRead,
		OnWrite:    s.onWrite,
		GetRBSize:  s.getRBSize,
		OnState:    s.onState,
		OnError:    s.onError,
		OnOverhead: s.onOverhead,
	}, s)
}

func (s *utpSocket) Connect() { s.raw.Connect() }

func (s *utpSocket) Close() error { return s.raw.Close() }

// Write hands p to the real socket's pull model: ask it to send len(p)
// total bytes, let the synchronous OnWrite callback pull as much of p as
// the congestion window currently allows, and report back how much was
// actually accepted.
func (s *utpSocket) Write(p []byte) (int, error) {
	s.pending = p
	s.pulled = 0
	s.raw.Write(len(p))
	n := s.pulled
	s.pending = nil
	return n, nil
}

func (s *utpSocket) onWrite(_ interface{}, buf []byte) {
	n := copy(buf, s.pending[s.pulled:])
	s.pulled += n
}

func (s *utpSocket) onRead(_ interface{}, buf []byte) {
	if s.sess == nil {
		return
	}
	cp := make([]byte, len(buf))
	copy(cp, buf)
	s.sess.OnRead(cp)
}

func (s *utpSocket) getRBSize(_ interface{}) int {
	// The session reassembles into its own bounded buffer, so the socket's
	// internal read buffer never needs to apply backpressure on its own.
	return int(^uint(0) >> 1)
}

func (s *utpSocket) onState(_ interface{}, state utp.State) {
	if s.sess == nil {
		return
	}
	switch state {
	case utp.StateConnect:
		s.sess.OnConnect()
	case utp.StateWritable:
		s.sess.OnWritable()
	case utp.StateEOF, utp.StateDestroying:
		s.sess.Close()
	}
}

func (s *utpSocket) onError(_ interface{}, err error) {
	if s.sess == nil {
		return
	}
	if err == syscall.ECONNRESET || err == syscall.ECONNREFUSED {
		log.WithError(err).Debug("utp socket error")
	} else {
		log.WithError(err).Warn("utp socket error")
	}
	s.sess.Close()
}

func (s *utpSocket) onOverhead(_ interface{}, send bool, bytes int, _ utp.BandwidthType) {
	log.Debugf("utp overhead send=%v bytes=%d", send, bytes)
}
