// Package client implements the networked session client for the Tichu
// protocol: connection establishment, a background listener that splits the
// inbound stream into replies and push notifications, and a blocking
// request/response surface for gameplay actions.
//
// The server answers every command exactly once, in order, so the client
// never pipelines: a request mutex keeps at most one command outstanding,
// which makes the head of the response channel the reply to the command just
// sent. Requests have no timeout; a request whose reply never arrives blocks
// until the connection closes. That is a known limitation of the protocol,
// not an accident.
package client

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/opentichu/tichu/client/internal/config"
	"github.com/opentichu/tichu/client/internal/logger"
	"github.com/opentichu/tichu/client/internal/protocol"
	"github.com/opentichu/tichu/client/internal/transport"
)

// Recorder receives gameplay events for persistence. history.Store satisfies
// it; tests substitute their own.
type Recorder interface {
	RecordPlay(sessionID string, cards []string) error
	RecordTrick(sessionID string, cards []string) error
}

// Config holds the client's behavioral settings.
type Config struct {
	// StagingMode is config.StagingServer or config.StagingLocal.
	// Empty selects server-validated staging.
	StagingMode string

	// MaxFrameSize bounds the inbound decode buffer; 0 selects the
	// protocol default.
	MaxFrameSize int
}

// card pairs a card name with the hand index the server assigned it at the
// last takecards. The index travels with the card through staging and
// reordering because the play command must reference original hand indices.
type card struct {
	name      string
	handIndex int
}

// response is one decoded reply from the server.
type response struct {
	status  string
	payload string
}

// Client is the session client. One Client drives one connection; all
// gameplay methods are intended to be called from a single foreground
// goroutine while the listener runs in the background.
type Client struct {
	cfg Config

	// reqMu serializes send-then-wait round trips, enforcing the
	// single-outstanding-request discipline the protocol depends on.
	reqMu sync.Mutex

	// mu guards everything below. The listener takes it for the push side
	// effects (yourturn, clearcards) so hand, stage and turn are never
	// concurrently mutated.
	mu           sync.Mutex
	tr           transport.Transport
	connected    bool
	hand         []card
	stage        []card
	turn         bool
	responses    chan response
	pushes       *pushQueue
	listenerDone chan struct{}
	recorder     Recorder
	sessionID    string
}

// New creates a disconnected client.
func New(cfg Config) *Client {
	if cfg.StagingMode == "" {
		cfg.StagingMode = config.StagingServer
	}
	return &Client{
		cfg:    cfg,
		pushes: newPushQueue(),
	}
}

// ConnectTCP dials the server over TCP and performs the username handshake.
func (c *Client) ConnectTCP(username, address string, timeout time.Duration) error {
	tr, err := transport.DialTCP(address, timeout)
	if err != nil {
		return err
	}
	return c.Connect(username, tr)
}

// ConnectWebSocket dials the server over WebSocket and performs the username
// handshake.
func (c *Client) ConnectWebSocket(username, url string, timeout time.Duration) error {
	tr, err := transport.DialWebSocket(url, timeout)
	if err != nil {
		return err
	}
	return c.Connect(username, tr)
}

// Connect takes ownership of an established transport, starts the listener
// and blocks until the server answers the username handshake. An err reply
// or an I/O failure tears the connection down again.
func (c *Client) Connect(username string, tr transport.Transport) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		tr.Close()
		return ErrAlreadyConnected
	}
	c.tr = tr
	c.connected = true
	c.turn = false
	c.hand = nil
	c.stage = nil
	// Capacity 1 matches the one-outstanding-request discipline.
	c.responses = make(chan response, 1)
	c.pushes = newPushQueue()
	c.listenerDone = make(chan struct{})
	go c.listen(tr, c.responses, c.listenerDone)
	c.mu.Unlock()

	logger.Info("connecting to game server", "server", tr.RemoteAddr(), "username", username)

	status, payload, err := c.sendAndRecv(username)
	if err != nil {
		c.Disconnect()
		return err
	}
	if status == protocol.StatusErr {
		c.Disconnect()
		return &ProtocolError{Message: payload}
	}

	logger.Info("connected", "server", tr.RemoteAddr())
	return nil
}

// Disconnect closes the connection and waits for the listener to exit.
// Safe to call repeatedly and from any goroutine; a pending blocking call
// observes ErrConnectionClosed.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	tr := c.tr
	done := c.listenerDone
	c.connected = false
	c.mu.Unlock()

	if tr == nil {
		return nil
	}
	err := tr.Close()
	if done != nil {
		<-done
	}
	return err
}

// Connected reports whether the connection is live.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// SetRecorder attaches a history recorder. Plays and observed tricks are
// reported under the given session id. Recorder failures are logged, never
// surfaced to gameplay.
func (c *Client) SetRecorder(r Recorder, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recorder = r
	c.sessionID = sessionID
}

// Deal asks the server to shuffle and deal a new round.
func (c *Client) Deal() error {
	return c.simpleCommand("deal")
}

// RequestCards fetches the hand dealt to this player. On success the hand is
// replaced and every card receives its server-side index; any stale stage
// from the previous round is dropped.
func (c *Client) RequestCards() error {
	status, payload, err := c.sendAndRecv("takecards")
	if err != nil {
		return err
	}
	if status == protocol.StatusErr {
		return &ProtocolError{Message: payload}
	}

	names := protocol.ParseCardList(payload)
	c.mu.Lock()
	c.hand = make([]card, len(names))
	for i, name := range names {
		c.hand[i] = card{name: name, handIndex: i}
	}
	c.stage = nil
	c.mu.Unlock()

	logger.Debug("hand received", "cards", len(names))
	return nil
}

// StageCard moves the card at hand position i to stage position j. In
// server-validated mode the move is submitted first and applied only on ok.
func (c *Client) StageCard(i, j int) error {
	if err := c.checkMove(i, j, len(c.snapshotHand()), len(c.snapshotStage())+1); err != nil {
		return err
	}
	if c.cfg.StagingMode == config.StagingServer {
		if err := c.simpleCommand(fmt.Sprintf("stage %d %d", i, j)); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return moveBetween(&c.hand, &c.stage, i, j)
}

// UnstageCard moves the card at stage position i back to hand position j.
// The reverse of StageCard.
func (c *Client) UnstageCard(i, j int) error {
	if err := c.checkMove(i, j, len(c.snapshotStage()), len(c.snapshotHand())+1); err != nil {
		return err
	}
	if c.cfg.StagingMode == config.StagingServer {
		if err := c.simpleCommand(fmt.Sprintf("unstage %d %d", i, j)); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return moveBetween(&c.stage, &c.hand, i, j)
}

// MoveHand reorders the hand, moving position i to position j. Purely local.
func (c *Client) MoveHand(i, j int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return moveWithin(&c.hand, i, j)
}

// MoveStage reorders the stage, moving position i to position j. Purely
// local.
func (c *Client) MoveStage(i, j int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return moveWithin(&c.stage, i, j)
}

// Play submits the staged cards. The command carries each staged card's
// original hand index, in stage order, because the server's hand
// representation knows nothing about local reordering. On ok the stage
// empties and the turn flag clears; on err the stage is left intact.
func (c *Client) Play() error {
	c.mu.Lock()
	indices := make([]string, len(c.stage))
	names := make([]string, len(c.stage))
	for i, staged := range c.stage {
		indices[i] = strconv.Itoa(staged.handIndex)
		names[i] = staged.name
	}
	c.mu.Unlock()

	cmd := "play"
	if len(indices) > 0 {
		cmd = "play " + strings.Join(indices, " ")
	}

	status, payload, err := c.sendAndRecv(cmd)
	if err != nil {
		return err
	}
	if status == protocol.StatusErr {
		return &ProtocolError{Message: payload}
	}

	c.mu.Lock()
	c.stage = nil
	c.turn = false
	recorder, sessionID := c.recorder, c.sessionID
	c.mu.Unlock()

	if recorder != nil {
		if err := recorder.RecordPlay(sessionID, names); err != nil {
			logger.Warning("failed to record play", "error", err)
		}
	}
	return nil
}

// Pass passes the turn without playing. On ok the turn flag clears.
func (c *Client) Pass() error {
	if err := c.simpleCommand("pass"); err != nil {
		return err
	}
	c.mu.Lock()
	c.turn = false
	c.mu.Unlock()
	return nil
}

// Hand returns a copy of the current hand, in display order.
func (c *Client) Hand() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cardNames(c.hand)
}

// Stage returns a copy of the currently staged cards, in display order.
func (c *Client) Stage() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cardNames(c.stage)
}

// Turn reports whether the server has granted this client permission to act.
// Advisory only; the server remains authoritative.
func (c *Client) Turn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.turn
}

// HasPushMessages reports whether a push notification is waiting, without
// blocking.
func (c *Client) HasPushMessages() bool {
	return c.pushes.size() > 0
}

// NextPushMessage removes and returns the oldest push notification. The
// second return value is false when none is waiting.
func (c *Client) NextPushMessage() (PushMessage, bool) {
	return c.pushes.next()
}

// simpleCommand is the shared shape of every ok-or-err operation.
func (c *Client) simpleCommand(cmd string) error {
	status, payload, err := c.sendAndRecv(cmd)
	if err != nil {
		return err
	}
	if status == protocol.StatusErr {
		return &ProtocolError{Message: payload}
	}
	return nil
}

// sendAndRecv writes one command and blocks until its reply arrives or the
// connection dies. The request mutex guarantees the reply dequeued here
// belongs to the command written here.
func (c *Client) sendAndRecv(cmd string) (string, string, error) {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return "", "", ErrConnectionClosed
	}
	tr := c.tr
	responses := c.responses
	c.mu.Unlock()

	if err := tr.Write(protocol.EncodeCommand(cmd)); err != nil {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		tr.Close()
		return "", "", fmt.Errorf("%w: %v", ErrConnectionClosed, err)
	}

	res, ok := <-responses
	if !ok {
		return "", "", ErrConnectionClosed
	}
	return res.status, res.payload, nil
}

// snapshotHand returns the hand slice under the lock.
func (c *Client) snapshotHand() []card {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hand
}

// snapshotStage returns the stage slice under the lock.
func (c *Client) snapshotStage() []card {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// checkMove validates a cross-sequence move before any network round trip,
// so server-validated staging never sends an out-of-range command.
func (c *Client) checkMove(i, j, sourceLen, targetLenAfter int) error {
	if i < 0 || i >= sourceLen {
		return fmt.Errorf("%w: source position %d", ErrIndexOutOfRange, i)
	}
	if j < 0 || j >= targetLenAfter {
		return fmt.Errorf("%w: target position %d", ErrIndexOutOfRange, j)
	}
	return nil
}

// moveBetween removes position i from src and inserts it at position j in
// dst. Bounds are rechecked under the caller's lock because a clearcards
// push can empty both sequences between validation and application.
func moveBetween(src, dst *[]card, i, j int) error {
	if i < 0 || i >= len(*src) {
		return fmt.Errorf("%w: source position %d", ErrIndexOutOfRange, i)
	}
	if j < 0 || j > len(*dst) {
		return fmt.Errorf("%w: target position %d", ErrIndexOutOfRange, j)
	}
	moved := (*src)[i]
	*src = append((*src)[:i], (*src)[i+1:]...)

	*dst = append(*dst, card{})
	copy((*dst)[j+1:], (*dst)[j:])
	(*dst)[j] = moved
	return nil
}

// moveWithin reorders a single sequence, moving position i to position j.
func moveWithin(seq *[]card, i, j int) error {
	if i < 0 || i >= len(*seq) {
		return fmt.Errorf("%w: source position %d", ErrIndexOutOfRange, i)
	}
	if j < 0 || j >= len(*seq) {
		return fmt.Errorf("%w: target position %d", ErrIndexOutOfRange, j)
	}
	if i == j {
		return nil
	}
	moved := (*seq)[i]
	*seq = append((*seq)[:i], (*seq)[i+1:]...)

	*seq = append(*seq, card{})
	copy((*seq)[j+1:], (*seq)[j:])
	(*seq)[j] = moved
	return nil
}

func cardNames(cards []card) []string {
	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = c.name
	}
	return names
}
