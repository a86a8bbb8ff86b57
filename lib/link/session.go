package link

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"net"
	"sync"
	"time"

	"github.com/go-i2p/linklayer/lib/crypto"
	"github.com/go-i2p/logger"
	"github.com/samber/oops"
)

var log = logger.GetGoI2PLogger()

// State is a Session's position in the handshake/liveness state machine.
type State int

const (
	Initial State = iota
	Connecting
	LinkEstablished
	CryptoHandshake
	SessionReady
	Closed
)

func (s State) String() string {
	switch s {
	case Initial:
		return "Initial"
	case Connecting:
		return "Connecting"
	case LinkEstablished:
		return "LinkEstablished"
	case CryptoHandshake:
		return "CryptoHandshake"
	case SessionReady:
		return "SessionReady"
	case Closed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Router is the narrow upstream contract a Session and Manager call into;
// it deliberately excludes router identity storage, RC validation beyond
// the signature check already performed here, and message dispatch, all of
// which stay out of this module's scope.
type Router interface {
	// HandleRecvLinkMessageBuffer is called for each reassembled message.
	HandleRecvLinkMessageBuffer(sess *Session, buf []byte) bool
	// HandleLinkSessionEstablished is called once a session reaches SessionReady.
	HandleLinkSessionEstablished(rc RouterContact)
}

// Session is the per-peer secure link. It owns the socket, the send
// queue, the receive/reassembly buffers, and the handshake/liveness
// state machine.
type Session struct {
	mgr    *Manager
	socket Socket

	mu    sync.Mutex
	state State

	outbound   bool
	remoteAddr *net.UDPAddr

	// Handshake material. The DH runs on each side's long-term transport
	// key (mgr.transportSecretKey / remoteRC.TransportKey), not a fresh
	// ephemeral pair: there is no forward-secrecy requirement here, and
	// nonce is what keeps the derived session key unique per connection.
	nonce        [24]byte
	handshakeBuf []byte // accumulates partial LIM bytes across OnRead calls

	remoteRC   RouterContact
	sessionKey SessionKey
	gotLIM     bool

	sendQ *sendQueue

	recvBuf       [FragBuf]byte
	recvBufOffset int

	reassemblyBuf []byte
	recvMsgOffset int
	maxLinkMsg    int

	lastActive time.Time

	keepaliveEnabled bool

	closeOnce sync.Once
}

// newSession constructs a Session. For an outbound session, targetRC is the
// peer's already-known RouterContact (the caller needed it to dial in the
// first place); for an inbound session it is the zero value and gets
// filled in by recvHandshake once the peer's LinkIntro arrives.
func newSession(mgr *Manager, socket Socket, remoteAddr *net.UDPAddr, outbound bool, targetRC RouterContact) *Session {
	s := &Session{
		mgr:              mgr,
		socket:           socket,
		state:            Initial,
		outbound:         outbound,
		remoteAddr:       remoteAddr,
		remoteRC:         targetRC,
		sendQ:            newSendQueue(),
		maxLinkMsg:       mgr.maxLinkMsg,
		reassemblyBuf:    make([]byte, mgr.maxLinkMsg),
		lastActive:       mgr.now(),
		keepaliveEnabled: mgr.keepaliveEnabled,
	}
	return s
}

// socketWriter exposes the underlying transport socket as the Writer the
// send queue drains against.
func (s *Session) socketWriter() Writer {
	return s.socket
}

// State returns the session's current position in the state machine.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// RemoteAddr returns the peer's UDP address.
func (s *Session) RemoteAddr() *net.UDPAddr { return s.remoteAddr }

// RemoteContact returns the peer's RouterContact, valid once SessionReady.
func (s *Session) RemoteContact() RouterContact { return s.remoteRC }

func (s *Session) touch() {
	now := s.mgr.now()
	if now.After(s.lastActive) {
		s.lastActive = now
	}
}

// TimedOut reports whether the session has been idle for at least the
// manager's configured session timeout.
func (s *Session) TimedOut(now time.Time) bool {
	if s.State() == Closed {
		return false
	}
	return now.Sub(s.lastActive) >= s.mgr.sessionTimeout
}

// Start initiates an outbound session: Initial -> Connecting.
func (s *Session) Start() error {
	if s.State() != Initial {
		return ErrNotReady
	}
	s.setState(Connecting)
	s.socket.Connect()
	return nil
}

// OnConnect handles the transport's Connect state event for an outbound
// session: Connecting -> LinkEstablished, then immediately runs the
// outbound handshake.
func (s *Session) OnConnect() {
	if s.State() != Connecting {
		return
	}
	s.setState(LinkEstablished)
	if err := s.outboundHandshake(); err != nil {
		log.WithError(err).Error("outbound handshake failed")
		s.Close()
	}
}

// outboundHandshake runs the client side of the handshake: sample a
// fresh nonce, derive the session key via dh_client, emit one plaintext
// LinkIntro, and move to SessionReady.
func (s *Session) outboundHandshake() error {
	s.setState(CryptoHandshake)

	if _, err := io.ReadFull(rand.Reader, s.nonce[:]); err != nil {
		return oops.Wrapf(err, "generating handshake nonce")
	}

	key, err := crypto.DHClient(s.mgr.transportSecretKey, s.remoteRC.TransportKey, s.nonce)
	if err != nil {
		return oops.Wrapf(ErrKeyExchangeFailed, "%s", err.Error())
	}
	s.sessionKey = SessionKey(key)

	lim := LinkIntroMessage{RC: s.mgr.localContact, Nonce: s.nonce}
	frame, err := EncodeLinkIntroFrame(lim)
	if err != nil {
		return err
	}
	// The LinkIntro is queued ahead of any encrypted fragment so it is
	// always the first bytes the peer's OnRead sees for this connection.
	s.sendQ.enqueue(frame)

	s.setState(SessionReady)
	s.touch()
	s.mgr.onSessionReady(s)

	return s.PumpWrite()
}

// OnAccept is called by the manager when the transport hands it a freshly
// accepted inbound socket; the session starts in LinkEstablished, created
// on transport accept.
func (s *Session) OnAccept() {
	s.setState(LinkEstablished)
}

// OnRead handles one transport delivery. While the session hasn't
// completed its handshake, bytes go to RecvHandshake; once SessionReady,
// they go to the fragment pipeline (Recv). Any error closes the session.
func (s *Session) OnRead(buf []byte) {
	if s.State() == Closed {
		return
	}
	var err error
	if !s.outbound && !s.gotLIM {
		buf, err = s.recvHandshake(buf)
		if err != nil {
			log.WithError(err).Error("handshake failed")
			s.Close()
			return
		}
		if buf == nil {
			// Handshake not complete yet; nothing left to process.
			return
		}
	}
	if len(buf) == 0 {
		return
	}
	if err := s.recv(buf); err != nil {
		log.WithError(err).Error("session closing on receive error")
		s.Close()
	}
}

// recvHandshake buffers inbound bytes until a complete LinkIntro frame
// (VERSION + LIMSIZE header, then LIMSIZE bytes of LIM body) has arrived:
// partial LIM bytes accumulate across reads rather than requiring the
// whole frame in a single delivery. Once complete it
// performs the inbound (server-side) handshake and returns any residual
// bytes from the same delivery, which are the first ciphertext.
func (s *Session) recvHandshake(buf []byte) ([]byte, error) {
	s.handshakeBuf = append(s.handshakeBuf, buf...)

	if len(s.handshakeBuf) < 8 {
		return nil, nil
	}
	version := binary.BigEndian.Uint32(s.handshakeBuf[0:4])
	if version != ProtoVersion {
		return nil, ErrProtoVersionMismatch
	}
	limSize := binary.BigEndian.Uint32(s.handshakeBuf[4:8])
	if limSize < minLIMBodySize {
		return nil, ErrHandshakeTooShort
	}
	total := 8 + int(limSize)
	if len(s.handshakeBuf) < total {
		return nil, nil
	}

	lim, err := DecodeLIM(s.handshakeBuf[8:total])
	if err != nil {
		return nil, err
	}
	if err := lim.RC.Verify(); err != nil {
		return nil, err
	}

	s.setState(CryptoHandshake)
	key, err := crypto.DHServer(s.mgr.transportSecretKey, lim.RC.TransportKey, lim.Nonce)
	if err != nil {
		return nil, oops.Wrapf(ErrKeyExchangeFailed, "%s", err.Error())
	}
	s.sessionKey = SessionKey(key)
	s.remoteRC = lim.RC
	s.gotLIM = true

	residual := s.handshakeBuf[total:]
	s.handshakeBuf = nil

	s.setState(SessionReady)
	s.touch()
	s.mgr.onSessionReady(s)

	return residual, nil
}

// recv is the receive path: fill/drain the per-fragment receive buffer,
// Open each complete fragment, and append decrypted payload into the
// reassembly buffer, delivering on the last fragment.
func (s *Session) recv(buf []byte) error {
	s.touch()

	if s.recvBufOffset > 0 {
		need := FragBuf - s.recvBufOffset
		take := need
		if take > len(buf) {
			take = len(buf)
		}
		copy(s.recvBuf[s.recvBufOffset:], buf[:take])
		s.recvBufOffset += take
		buf = buf[take:]

		if s.recvBufOffset < FragBuf {
			return nil // short read; wait for more
		}
		if err := s.openFragment(s.recvBuf[:]); err != nil {
			return err
		}
		s.recvBufOffset = 0
	}

	for len(buf) >= FragBuf {
		if err := s.openFragment(buf[:FragBuf]); err != nil {
			return err
		}
		buf = buf[FragBuf:]
	}

	if len(buf) > 0 {
		copy(s.recvBuf[:], buf)
		s.recvBufOffset = len(buf)
	}
	return nil
}

func (s *Session) openFragment(frag []byte) error {
	payload, isLast, err := Open(frag, s.sessionKey, s.recvMsgOffset, s.maxLinkMsg)
	if err != nil {
		return err
	}
	copy(s.reassemblyBuf[s.recvMsgOffset:], payload)
	s.recvMsgOffset += len(payload)

	if isLast {
		msg := make([]byte, s.recvMsgOffset)
		copy(msg, s.reassemblyBuf[:s.recvMsgOffset])
		s.recvMsgOffset = 0
		if !IsDiscard(msg) {
			s.mgr.router.HandleRecvLinkMessageBuffer(s, msg)
		}
	}
	return nil
}

// QueueWriteBuffers fragments and seals buf, appending the result to the
// send queue, then calls PumpWrite to push as much as the transport will
// currently accept; anything left is drained by later PumpWrite calls
// (OnWritable or the manager's per-loop Pump).
func (s *Session) QueueWriteBuffers(buf []byte) error {
	if s.State() != SessionReady {
		return ErrNotReady
	}
	if len(buf) > s.maxLinkMsg {
		return ErrMessageTooLarge
	}
	frags, err := fragmentAndSeal(s.sessionKey, buf)
	if err != nil {
		return err
	}
	for _, f := range frags {
		s.sendQ.enqueue(f)
	}
	s.touch()
	return s.PumpWrite()
}

// PumpWrite drains the send queue against the transport.
func (s *Session) PumpWrite() error {
	if s.State() == Closed {
		return ErrSessionClosed
	}
	err := s.sendQ.pumpWrite(s.socketWriter())
	if err != nil {
		log.WithError(err).Warn("transport write error")
		s.Close()
		return oops.Wrapf(ErrTransportWriteError, "%s", err.Error())
	}
	return nil
}

// OnWritable handles the transport's writable-again event: clear the stall
// and resume draining.
func (s *Session) OnWritable() {
	s.sendQ.clearStall()
	_ = s.PumpWrite()
}

// SendMessageBuffer is the upstream-facing entry point: accepts a
// message buffer and returns true iff it was enqueued.
func (s *Session) SendMessageBuffer(buf []byte) bool {
	return s.QueueWriteBuffers(buf) == nil
}

// maybeSendKeepalive queues one Discard message if keepalives are enabled,
// the session is idle, and nothing is already pending on the send queue.
// Called from Manager.Tick, not from the handshake path: a freshly
// established session already has its LinkIntro queued, so there is never
// anything to fill with a keepalive at that point.
func (s *Session) maybeSendKeepalive(now time.Time) {
	if !s.keepaliveEnabled || s.State() != SessionReady {
		return
	}
	if !s.sendQ.empty() {
		return
	}
	if now.Sub(s.lastActive) < s.mgr.sessionTimeout/2 {
		return
	}
	body, err := EncodeDiscard()
	if err != nil {
		return
	}
	_ = s.QueueWriteBuffers(body)
}

// IsEstablished reports whether the session has completed its handshake.
func (s *Session) IsEstablished() bool {
	return s.State() == SessionReady
}

// Close tears the session down: idempotent, closes the socket, clears
// buffers, and never delivers or accepts further data afterward.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.setState(Closed)
		if s.socket != nil {
			err = s.socket.Close()
		}
		s.sendQ = newSendQueue()
		s.handshakeBuf = nil
		s.mgr.onSessionClosed(s)
	})
	return err
}
