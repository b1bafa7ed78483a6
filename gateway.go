package hfpag

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/bthfp/hfpag/atcmd"
	"github.com/bthfp/hfpag/indicator"
	"github.com/bthfp/hfpag/session"
)

// Log is the package default logger, constructed the way cmd/hfpagcat's
// CmdLog is, for diagnostics that don't belong to any one session.
var Log = log.New(os.Stderr, "hfpag: ", 0)

// ErrUnknownPeer and ErrUnknownChannel are returned by the registry
// lookups and by public API calls made for a session the Gateway doesn't
// own.
var (
	ErrUnknownPeer    = errors.New("hfpag: no session for that peer address")
	ErrUnknownChannel = errors.New("hfpag: no session for that RFCOMM channel")
	ErrAlreadyOpen    = errors.New("hfpag: a session already exists for that peer or channel")
)

// maxTicksPerEvent caps how many consecutive Run calls one external event
// can trigger, a backstop against a driver bug turning into a busy loop;
// no legitimate sequence in this state machine needs anywhere near this
// many self-advancing ticks in a row.
const maxTicksPerEvent = 64

// EventSink receives events published upward from a session (spec.md
// section 6, "Events published upward").
type EventSink func(peerAddr string, ev session.Event)

// Gateway owns the set of active HFP AG sessions, keyed by peer address
// and by RFCOMM channel id, and is the cooperative scheduler that ticks
// each session's Run whenever its transport becomes writable (C5,
// spec.md section 4.5).
type Gateway struct {
	cfg session.Config
	reg *indicator.Registry

	rfcomm RFCOMM
	hci    HCI
	sdp    SDPBuilder

	sink EventSink

	order     []string // peer addresses, insertion order
	byPeer    map[string]*session.Session
	byChannel map[uint16]*session.Session
}

// Init installs the AG's configuration and indicator lists and wires up
// the lower-layer collaborators. This is the public API's init operation.
func Init(cfg session.Config, indicatorDefs []indicator.Def, gsiDefs []indicator.GenericStatusIndicatorDef, rfcomm RFCOMM, hci HCI, sdp SDPBuilder) (*Gateway, error) {
	reg, err := indicator.NewRegistry(indicatorDefs, gsiDefs)
	if err != nil {
		return nil, fmt.Errorf("hfpag: init: %w", err)
	}

	return &Gateway{
		cfg:       cfg,
		reg:       reg,
		rfcomm:    rfcomm,
		hci:       hci,
		sdp:       sdp,
		byPeer:    make(map[string]*session.Session),
		byChannel: make(map[uint16]*session.Session),
	}, nil
}

// RegisterEventSink installs the callback events are published through.
func (g *Gateway) RegisterEventSink(sink EventSink) { g.sink = sink }

// SDPRecord builds the HandsfreeAudioGateway SDP record to advertise on
// the given RFCOMM channel.
func (g *Gateway) SDPRecord(channel uint16, serviceName string, abilityToRejectCall bool) ([]byte, error) {
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	return g.sdp.BuildHandsfreeAudioGatewayRecord(SDPRecordParams{
		RFCOMMChannel:       channel,
		ServiceName:         serviceName,
		SupportedFeatures:   uint16(g.cfg.LocalFeatures),
		AbilityToRejectCall: abilityToRejectCall,
	})
}

// Connect creates a Session for an RFCOMM channel that just opened or was
// accepted for the given peer address (the public API's connect
// operation, also used on inbound RFCOMM accept).
func (g *Gateway) Connect(peerAddr string, channel uint16) (*session.Session, error) {
	if _, dup := g.byPeer[peerAddr]; dup {
		return nil, ErrAlreadyOpen
	}
	if _, dup := g.byChannel[channel]; dup {
		return nil, ErrAlreadyOpen
	}

	s := session.New(g.cfg, g.reg, peerAddr, channel)
	g.byPeer[peerAddr] = s
	g.order = append(g.order, peerAddr)
	g.byChannel[channel] = s
	return s, nil
}

// SessionByPeer looks up a session by peer address.
func (g *Gateway) SessionByPeer(peerAddr string) (*session.Session, error) {
	s, ok := g.byPeer[peerAddr]
	if !ok {
		return nil, ErrUnknownPeer
	}
	return s, nil
}

// SessionByChannel looks up a session by RFCOMM channel id.
func (g *Gateway) SessionByChannel(channel uint16) (*session.Session, error) {
	s, ok := g.byChannel[channel]
	if !ok {
		return nil, ErrUnknownChannel
	}
	return s, nil
}

// destroy removes a session from the registry. Iteration order is kept
// stable (insertion order) for the remaining sessions.
func (g *Gateway) destroy(s *session.Session) {
	delete(g.byPeer, s.PeerAddr)
	delete(g.byChannel, s.ChannelID)
	for i, addr := range g.order {
		if addr == s.PeerAddr {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

func (g *Gateway) transportFor(s *session.Session) *sessionTransport {
	return &sessionTransport{channel: s.ChannelID, rfcomm: g.rfcomm, hci: g.hci}
}

// drive ticks s.Run while the channel can accept a frame and the session
// still has work pending, publishing any events produced. This is how one
// external event (an inbound byte, an HCI confirmation, an API call)
// fans out into the sequence of Run calls the state machine needs.
func (g *Gateway) drive(s *session.Session) error {
	t := g.transportFor(s)
	for i := 0; i < maxTicksPerEvent; i++ {
		if !g.rfcomm.CanSendNow(s.ChannelID) || !s.HasWork() {
			break
		}
		if err := s.Run(t); err != nil {
			return err
		}
		g.publish(s)
		if s.Phase == session.W4RFCOMMDisconnected {
			g.destroy(s)
			return nil
		}
	}
	return nil
}

func (g *Gateway) publish(s *session.Session) {
	if g.sink == nil || len(s.Events) == 0 {
		return
	}
	for _, ev := range s.Events {
		g.sink(s.PeerAddr, ev)
	}
}

// Deliver stages a decoded inbound AT command (the Command Dispatcher's,
// C3, output) and drives the session.
func (g *Gateway) Deliver(channel uint16, d atcmd.Decoded) error {
	s, err := g.SessionByChannel(channel)
	if err != nil {
		return err
	}
	s.Deliver(d)
	return g.drive(s)
}

// NotifySCOConnected feeds back the HCI layer's confirmation that the
// synchronous connection for the given channel is up.
func (g *Gateway) NotifySCOConnected(channel uint16) error {
	s, err := g.SessionByChannel(channel)
	if err != nil {
		return err
	}
	s.NotifySCOConnected()
	g.publish(s)
	s.Events = s.Events[:0]
	return g.drive(s)
}

// NotifySCODisconnected feeds back SCO teardown for the given channel.
func (g *Gateway) NotifySCODisconnected(channel uint16) error {
	s, err := g.SessionByChannel(channel)
	if err != nil {
		return err
	}
	s.NotifySCODisconnected()
	return g.drive(s)
}

// NotifyRFCOMMClosed feeds back RFCOMM teardown for the given channel and
// destroys the session once the terminal transition completes.
func (g *Gateway) NotifyRFCOMMClosed(channel uint16) error {
	s, err := g.SessionByChannel(channel)
	if err != nil {
		return err
	}
	s.NotifyRFCOMMDisconnected()
	g.publish(s)
	g.destroy(s)
	return nil
}

// Disconnect stages RFCOMM teardown for peerAddr.
func (g *Gateway) Disconnect(peerAddr string) error {
	s, err := g.SessionByPeer(peerAddr)
	if err != nil {
		return err
	}
	if err := s.RequestDisconnect(); err != nil {
		return err
	}
	return g.drive(s)
}

// EstablishAudio stages establish_audio(peer).
func (g *Gateway) EstablishAudio(peerAddr string) error {
	s, err := g.SessionByPeer(peerAddr)
	if err != nil {
		return err
	}
	if err := s.RequestEstablishAudio(); err != nil {
		return err
	}
	return g.drive(s)
}

// ReleaseAudio stages release_audio(peer).
func (g *Gateway) ReleaseAudio(peerAddr string) error {
	s, err := g.SessionByPeer(peerAddr)
	if err != nil {
		return err
	}
	if err := s.RequestReleaseAudio(); err != nil {
		return err
	}
	return g.drive(s)
}

// Call stages call(peer): an AG-originated outgoing call.
func (g *Gateway) Call(peerAddr string) error {
	s, err := g.SessionByPeer(peerAddr)
	if err != nil {
		return err
	}
	if err := s.RequestCall(); err != nil {
		return err
	}
	return g.drive(s)
}

// Terminate stages terminate(peer).
func (g *Gateway) Terminate(peerAddr string) error {
	s, err := g.SessionByPeer(peerAddr)
	if err != nil {
		return err
	}
	if err := s.RequestTerminate(); err != nil {
		return err
	}
	return g.drive(s)
}

// ReportExtendedError stages report_extended_error(peer, code).
func (g *Gateway) ReportExtendedError(peerAddr string, code int) error {
	s, err := g.SessionByPeer(peerAddr)
	if err != nil {
		return err
	}
	if err := s.RequestReportExtendedError(code); err != nil {
		return err
	}
	return g.drive(s)
}
