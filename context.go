package tlscore

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// EstablishedState tracks the handshake / 0-RTT lifecycle of a session.
type EstablishedState int

const (
	// NotEstablished: the handshake has not finished.
	NotEstablished EstablishedState = iota
	// EarlyDataAllowed: 1.3 server side, 0-RTT accepted, with a
	// decreasing byte budget.
	EarlyDataAllowed
	// EarlyDataNotAllowed: 1.3 server rejected 0-RTT; received early
	// data is silently dropped.
	EarlyDataNotAllowed
	// Established: normal post-handshake steady state.
	Established
)

func (s EstablishedState) String() string {
	switch s {
	case NotEstablished:
		return "not-established"
	case EarlyDataAllowed:
		return "early-data-allowed"
	case EarlyDataNotAllowed:
		return "early-data-not-allowed"
	case Established:
		return "established"
	}
	return "unknown"
}

// Handshaker is the initial-handshake collaborator. HandshakeWith is
// entered from the receive loop when a TLS <= 1.2 peer requests
// renegotiation (ClientHello on the server, HelloRequest on the client).
type Handshaker interface {
	Handshake(ctx *Context) error
	HandshakeWith(ctx *Context, msg HandshakeMessage) error
}

// Config carries the collaborators a Context is wired with. The zero
// value is usable: no logger, no session manager, no handshaker.
type Config struct {
	Logger         *zap.Logger
	SessionManager SessionManager
	Handshaker     Handshaker
}

// Context is the long-lived per-connection object driving an established
// (or establishing-then-established) TLS session.
//
// Two locks serialize record I/O: the read lock is held for the duration
// of a single record read and re-acquired per record, so a concurrent
// UpdateKey can interleave between records; the read/write lock is held
// while running a pending post-handshake action or while a KeyUpdate
// response must be the last record sent under the old send key.
type Context struct {
	rec     RecordLayer
	version ProtocolVersion
	logger  *zap.Logger

	readLock sync.Mutex
	rwLock   sync.Mutex

	estMu         sync.Mutex
	established   EstablishedState
	earlyDataLeft uint32

	eof  atomic.Bool
	term atomic.Pointer[TerminatedError]

	sessionMgr SessionManager
	handshaker Handshaker

	hsMu   sync.Mutex
	hstate *HandshakeState

	pendingMu sync.Mutex
	pending   []PendingAction

	paramsMu  sync.Mutex
	alpn      string
	sni       string
	sessionID []byte
}

func NewContext(rec RecordLayer, version ProtocolVersion, config *Config) *Context {
	if config == nil {
		config = &Config{}
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Context{
		rec:        rec,
		version:    version,
		logger:     logger,
		sessionMgr: config.SessionManager,
		handshaker: config.Handshaker,
	}
}

// Version returns the negotiated protocol version.
func (c *Context) Version() ProtocolVersion {
	return c.version
}

// checkValid fails fast once the session has terminated or hit EOF.
func (c *Context) checkValid() error {
	if terr := c.term.Load(); terr != nil {
		return terr
	}
	if c.eof.Load() {
		return ErrEOF
	}
	return nil
}

func (c *Context) setEOF() {
	c.eof.Store(true)
}

// EOF reports whether the session has observed or produced its close.
func (c *Context) EOF() bool {
	return c.eof.Load()
}

// EstablishedState returns the current lifecycle tag.
func (c *Context) EstablishedState() EstablishedState {
	c.estMu.Lock()
	defer c.estMu.Unlock()
	return c.established
}

// SetEstablished is driven by the handshake component; this driver only
// reads the tag and decrements the early-data budget.
func (c *Context) SetEstablished(s EstablishedState) {
	c.estMu.Lock()
	defer c.estMu.Unlock()
	c.established = s
	if s != EarlyDataAllowed {
		c.earlyDataLeft = 0
	}
}

// AllowEarlyData moves the session into EarlyDataAllowed with the given
// byte budget.
func (c *Context) AllowEarlyData(budget uint32) {
	c.estMu.Lock()
	defer c.estMu.Unlock()
	c.established = EarlyDataAllowed
	c.earlyDataLeft = budget
}

// EarlyDataRemaining returns what is left of the 0-RTT byte budget.
func (c *Context) EarlyDataRemaining() uint32 {
	c.estMu.Lock()
	defer c.estMu.Unlock()
	return c.earlyDataLeft
}

// takeEarlyData consumes n bytes of the budget if they fit.
func (c *Context) takeEarlyData(n uint32) bool {
	c.estMu.Lock()
	defer c.estMu.Unlock()
	if c.established != EarlyDataAllowed || n > c.earlyDataLeft {
		return false
	}
	c.earlyDataLeft -= n
	return true
}

// NegotiatedProtocol returns the ALPN result, or "" if ALPN was not used.
func (c *Context) NegotiatedProtocol() string {
	c.paramsMu.Lock()
	defer c.paramsMu.Unlock()
	return c.alpn
}

func (c *Context) SetNegotiatedProtocol(proto string) {
	c.paramsMu.Lock()
	defer c.paramsMu.Unlock()
	c.alpn = proto
}

// ClientSNI returns the hostname the client advertised via SNI, if any.
func (c *Context) ClientSNI() string {
	c.paramsMu.Lock()
	defer c.paramsMu.Unlock()
	return c.sni
}

func (c *Context) SetClientSNI(name string) {
	c.paramsMu.Lock()
	defer c.paramsMu.Unlock()
	c.sni = name
}

// SessionID returns the identifier keyed into the session manager, if the
// handshake produced one.
func (c *Context) SessionID() []byte {
	c.paramsMu.Lock()
	defer c.paramsMu.Unlock()
	return c.sessionID
}

func (c *Context) SetSessionID(id []byte) {
	c.paramsMu.Lock()
	defer c.paramsMu.Unlock()
	c.sessionID = id
}

// HandshakeState returns the in-flight handshake record, or nil.
func (c *Context) HandshakeState() *HandshakeState {
	c.hsMu.Lock()
	defer c.hsMu.Unlock()
	return c.hstate
}

func (c *Context) SetHandshakeState(hs *HandshakeState) {
	c.hsMu.Lock()
	defer c.hsMu.Unlock()
	c.hstate = hs
}

// Handshake runs the initial handshake through the configured
// collaborator.
func (c *Context) Handshake() error {
	if err := c.checkValid(); err != nil {
		return err
	}
	if c.handshaker == nil {
		return &MiscError{Reason: "no handshake handler configured"}
	}
	return c.handshaker.Handshake(c)
}
