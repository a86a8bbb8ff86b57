package link

import (
	"net"
	"sync"
	"time"

	"github.com/go-i2p/linklayer/lib/crypto"
	"github.com/go-i2p/linklayer/lib/util/time/monotonic"
	"github.com/samber/oops"
)

// Engine is the transport-adaptation contract a Manager drives: an
// abstract reliable-ordered-byte-pipe engine treated as an external
// collaborator. transport_utp.go binds this to
// storj.io/utp-go concretely; tests bind it to an in-memory fake.
type Engine interface {
	// Outbound creates a Socket that will attempt to connect to addr once
	// Connect is called on it.
	Outbound(addr *net.UDPAddr) (Socket, error)
	// ProcessUDP feeds one inbound UDP datagram to the engine. It returns
	// true if the engine consumed it as uTP traffic (IsIncomingUTP), in
	// which case any resulting new connection arrives via the accept
	// callback registered with SetAcceptHandler.
	ProcessUDP(addr *net.UDPAddr, buf []byte) bool
	// SetAcceptHandler registers the callback invoked for every freshly
	// accepted inbound socket, addr first so handlers can be method values.
	SetAcceptHandler(func(sock Socket, addr *net.UDPAddr))
	// CheckTimeouts runs the engine's own retransmit/timeout bookkeeping;
	// called once per LinkManager.Tick.
	CheckTimeouts()
	// Pump runs the engine's per-turn deferred work. UTPEngine's Pump
	// drains ICMP PMTU hints on Linux and issues no deferred acks.
	Pump()
	// Close releases the engine's transport context.
	Close() error
}

// Socket is the per-connection handle a Session drives. It is the
// Go-idiomatic trait standing in for the transport's
// sendto/on_accept/on_state_change/on_read/on_error callback contract:
// callbacks are expressed as method values bound directly to a *Session
// rather than through a void* userdata handle.
type Socket interface {
	Writer
	// Connect initiates an outbound uTP connection. No-op on an inbound
	// socket.
	Connect()
	// Bind installs the session that should receive this socket's read,
	// state-change and error events.
	Bind(sess *Session)
	Close() error
}

// Manager owns the transport engine, the UDP endpoint, and the
// (remote_addr -> session) / (remote_pubkey -> session) indexes.
type Manager struct {
	mu        sync.Mutex
	byAddr    map[string]*Session
	byPubkey  map[string]*Session
	engine    Engine
	router    Router
	udpConn   *net.UDPConn
	clock     *monotonic.Clock
	stopped   bool

	transportSecretKey crypto.Curve25519PrivateKey
	transportPublicKey crypto.Curve25519PublicKey
	localContact       RouterContact

	sessionTimeout   time.Duration
	maxLinkMsg       int
	keepaliveEnabled bool
}

// NewManager constructs a Manager bound to engine and udpConn, using
// secretKey as the node's long-term transport (DH) private key and
// localContact as the signed RouterContact presented in outbound
// LinkIntros.
func NewManager(engine Engine, udpConn *net.UDPConn, secretKey crypto.Curve25519PrivateKey, localContact RouterContact, router Router, sessionTimeout time.Duration, maxLinkMsg int, keepaliveEnabled bool) *Manager {
	pub, _ := crypto.NewCurve25519PublicKey(localContact.TransportKey.Bytes())
	m := &Manager{
		byAddr:             make(map[string]*Session),
		byPubkey:           make(map[string]*Session),
		engine:             engine,
		router:             router,
		udpConn:            udpConn,
		clock:              monotonic.NewClock(),
		transportSecretKey: secretKey,
		transportPublicKey: pub,
		localContact:       localContact,
		sessionTimeout:     sessionTimeout,
		maxLinkMsg:         maxLinkMsg,
		keepaliveEnabled:   keepaliveEnabled,
	}
	engine.SetAcceptHandler(m.onAccept)
	return m
}

func (m *Manager) now() time.Time { return m.clock.Now() }

// TransportSecretKey returns the node's long-term transport private key;
// inbound sessions pass this into the server-side DH.
func (m *Manager) TransportSecretKey() crypto.Curve25519PrivateKey { return m.transportSecretKey }

// KeyGen produces a fresh Curve25519 keypair, e.g. for per-session
// ephemeral material or for bootstrapping a new node identity.
func (m *Manager) KeyGen() (crypto.Curve25519PrivateKey, crypto.Curve25519PublicKey, error) {
	return crypto.GenerateCurve25519Keypair(nil)
}

// NewOutboundSession creates a session in Initial targeting rc at addr and
// indexes it by address immediately.
func (m *Manager) NewOutboundSession(rc RouterContact, addr *net.UDPAddr) (*Session, error) {
	sock, err := m.engine.Outbound(addr)
	if err != nil {
		return nil, oops.Wrapf(err, "creating outbound socket")
	}
	sess := newSession(m, sock, addr, true, rc)
	sock.Bind(sess)

	m.mu.Lock()
	if old, ok := m.byAddr[addrKey(addr)]; ok {
		old.Close()
	}
	m.byAddr[addrKey(addr)] = sess
	m.mu.Unlock()

	return sess, nil
}

// onAccept is the engine's accept callback: create an inbound session and
// index it by address.
func (m *Manager) onAccept(sock Socket, addr *net.UDPAddr) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		sock.Close()
		return
	}
	m.mu.Unlock()

	sess := newSession(m, sock, addr, false, RouterContact{})
	sock.Bind(sess)
	sess.OnAccept()

	m.mu.Lock()
	if old, ok := m.byAddr[addrKey(addr)]; ok {
		old.Close()
	}
	m.byAddr[addrKey(addr)] = sess
	m.mu.Unlock()
}

// onSessionReady is called by a Session once it reaches SessionReady. It
// installs the pubkey index entry (closing any older session already
// indexed under the same pubkey, per the resolved collision policy) and
// notifies the router.
func (m *Manager) onSessionReady(sess *Session) {
	m.MapAddr(sess.remoteRC.SigningKey, sess)
	m.router.HandleLinkSessionEstablished(sess.remoteRC)
}

// MapAddr installs the (remote pubkey -> session) index entry, closing and
// evicting whatever session (if any) was previously indexed under the same
// pubkey.
func (m *Manager) MapAddr(pubkey crypto.Ed25519PublicKey, sess *Session) {
	key := string(pubkey)
	m.mu.Lock()
	old, ok := m.byPubkey[key]
	if ok && old != sess {
		m.byPubkey[key] = sess
	} else if !ok {
		m.byPubkey[key] = sess
	}
	m.mu.Unlock()
	if ok && old != sess {
		old.Close()
	}
}

// onSessionClosed removes sess from both indexes. Safe to call more than
// once; only removes entries that still point at sess.
func (m *Manager) onSessionClosed(sess *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.byAddr[addrKey(sess.remoteAddr)]; ok && cur == sess {
		delete(m.byAddr, addrKey(sess.remoteAddr))
	}
	key := string(sess.remoteRC.SigningKey)
	if cur, ok := m.byPubkey[key]; ok && cur == sess {
		delete(m.byPubkey, key)
	}
}

// SessionByAddr looks up an active session by remote UDP address.
func (m *Manager) SessionByAddr(addr *net.UDPAddr) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byAddr[addrKey(addr)]
	return s, ok
}

// SessionByPubkey looks up an active session by the peer's long-term
// signing public key, the lookup the upper layer uses once MapAddr has run.
func (m *Manager) SessionByPubkey(pubkey crypto.Ed25519PublicKey) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byPubkey[string(pubkey)]
	return s, ok
}

// RecvFrom feeds one inbound UDP datagram read from addr into the
// transport engine, routing it either to an existing session or to the
// engine's accept path.
func (m *Manager) RecvFrom(addr *net.UDPAddr, buf []byte) {
	m.engine.ProcessUDP(addr, buf)
}

// Pump runs one event-loop turn's worth of bookkeeping: run the engine's
// own Pump, then give every session a chance to drain its send queue.
func (m *Manager) Pump() {
	m.engine.Pump()

	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.byAddr))
	for _, s := range m.byAddr {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		_ = s.PumpWrite()
	}
}

// Tick runs the periodic timeout sweep: the engine's own retransmit
// timeouts, then session-level idle timeout reaping.
func (m *Manager) Tick() {
	m.engine.CheckTimeouts()

	now := m.now()
	m.mu.Lock()
	var timedOut []*Session
	var live []*Session
	for _, s := range m.byAddr {
		if s.State() == Closed || s.TimedOut(now) {
			timedOut = append(timedOut, s)
		} else {
			live = append(live, s)
		}
	}
	m.mu.Unlock()

	for _, s := range timedOut {
		s.Close()
	}
	for _, s := range live {
		s.maybeSendKeepalive(now)
	}
}

// Stop closes every session, then releases the transport engine. This is
// a precondition for a clean shutdown: sessions before
// context.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	sessions := make([]*Session, 0, len(m.byAddr))
	for _, s := range m.byAddr {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	return m.engine.Close()
}

func addrKey(addr *net.UDPAddr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}
