// Package session implements the HFP Audio Gateway session state machine:
// Service Level Connection setup, codec negotiation, and call/audio
// lifecycle, driven one decision at a time by Run.
package session

import (
	"errors"

	"github.com/bthfp/hfpag/atcmd"
	"github.com/bthfp/hfpag/atresp"
	"github.com/bthfp/hfpag/indicator"
)

// Trace gates verbose wire-level logging of AT exchanges, mirroring the
// teacher's session.Trace switch. It carries no dependency on a logging
// framework: when set, Run logs each received command code and emit logs
// each sent frame through the standard log package.
var Trace bool

// ErrSessionBusy is returned by the Request* methods when a different
// intent is already pending.
var ErrSessionBusy = errors.New("session: an action is already pending")

// Session drives one HFP AG session's combined SLC, codec and call state.
// A Session is created when RFCOMM accepts or opens a data channel bound
// to the HFP service and destroyed after W4RFCOMMDisconnected's teardown
// ack; no Session outlives its transport.
type Session struct {
	PeerAddr  string
	ChannelID uint16

	cfg      *Config
	Snapshot *indicator.Snapshot

	Phase Phase

	RemoteFeatures uint32
	HFCodecs       []int
	SuggestedCodec int
	ConfirmedCodec int

	operatorMode   int
	operatorFormat int
	operatorName   string

	cmeeEnabled        bool
	pendingExtError    int
	hasPendingExtError bool

	Pending atcmd.Decoded
	Action  PendingAction

	// establishAudio is a persistent intent, set by call() and by
	// establish_audio() alike, that survives across ticks until
	// callAudioDriver requests SCO once CodecsConnectionEstablished is
	// reached. It replaces the original's establish_audio_connection
	// flag (spec.md section 9's PendingAction design note folds the
	// one-shot API intents into Action, but this one outlives a single
	// Run call by nature, so it is tracked separately).
	establishAudio bool

	cievQueue []cievUpdate

	w atresp.Writer

	// Events accumulated by the most recent Run call, in emission
	// order. Callers drain it after each Run; Run resets it at entry.
	Events []Event
}

// New creates a Session in its initial phase, ExchangeSupportedFeatures,
// with a fresh indicator snapshot taken from reg.
func New(cfg Config, reg *indicator.Registry, peerAddr string, channelID uint16) *Session {
	cfg.check()
	return &Session{
		PeerAddr:       peerAddr,
		ChannelID:      channelID,
		cfg:            &cfg,
		Snapshot:       indicator.NewSnapshot(reg),
		Phase:          ExchangeSupportedFeatures,
		operatorFormat: 0,
		operatorName:   "",
	}
}

// Deliver stages a freshly decoded inbound AT command for the next Run.
// Commands are processed strictly in the order delivered: Deliver must
// not be called again for the same session until the previous command
// has been consumed by Run (ordering guarantee, spec.md section 5).
func (s *Session) Deliver(d atcmd.Decoded) {
	s.Pending = d
}

func (s *Session) hasCommand() bool { return s.Pending.Code != atcmd.NONE }

// HasWork reports whether Run has something to do without waiting for a
// fresh external event: a pending command, a pending action, queued
// indicator updates, or a phase that advances on its own (sending +BCS,
// issuing a GAP disconnect, tearing down RFCOMM). The connection runner
// uses this to know when to keep ticking Run versus waiting for the next
// inbound byte, HCI event or API call.
func (s *Session) HasWork() bool {
	if s.hasCommand() || s.Action.Kind != ActionNone || len(s.cievQueue) > 0 {
		return true
	}
	switch s.Phase {
	case SLEW2ExchangeCommonCodec, W2DisconnectSCO, W2DisconnectRFCOMM:
		return true
	case CodecsConnectionEstablished:
		if s.establishAudio {
			return true
		}
	}
	return false
}

func (s *Session) clearCommand() { s.Pending = atcmd.Decoded{} }

// requestAction stages an API-triggered intent. Only one may be pending
// at a time; its effects manifest on the session's next Run, which the
// caller must trigger (spec.md section 5).
func (s *Session) requestAction(a PendingAction) error {
	if s.Action.Kind != ActionNone {
		return ErrSessionBusy
	}
	s.Action = a
	return nil
}

// RequestCall stages an outgoing call intent for call(peer).
func (s *Session) RequestCall() error {
	return s.requestAction(PendingAction{Kind: ActionCall})
}

// RequestTerminate stages a call termination intent for terminate(peer).
func (s *Session) RequestTerminate() error {
	return s.requestAction(PendingAction{Kind: ActionTerminate})
}

// RequestEstablishAudio stages an audio-connection establishment intent
// for establish_audio(peer).
func (s *Session) RequestEstablishAudio() error {
	return s.requestAction(PendingAction{Kind: ActionEstablishAudio})
}

// RequestReleaseAudio stages an audio-connection release intent for
// release_audio(peer).
func (s *Session) RequestReleaseAudio() error {
	return s.requestAction(PendingAction{Kind: ActionReleaseAudio})
}

// RequestDisconnect stages RFCOMM teardown for disconnect(peer).
func (s *Session) RequestDisconnect() error {
	return s.requestAction(PendingAction{Kind: ActionDisconnect})
}

// RequestReportExtendedError stages an extended AG error report. It is
// only ever emitted as +CMEE=<code> if the HF enabled extended error
// reporting via AT+CMEE=1 (spec.md section 7).
func (s *Session) RequestReportExtendedError(code int) error {
	return s.requestAction(PendingAction{Kind: ActionReportExtendedError, ExtendedErrorCode: code})
}

// NotifySCOConnected feeds back the HCI layer's confirmation that the
// synchronous connection requested by Run is up. If the connection was
// established for an outgoing call (callsetup mid-setup), this also
// starts ringing, per spec.md section 4.4.4 step 4.
func (s *Session) NotifySCOConnected() {
	if s.Phase != W4SCOConnected {
		return
	}
	s.Phase = AudioConnectionEstablished
	s.publish(EventAudioConnectionEstablished)

	callsetupIdx := s.indexOf("callsetup")
	switch s.Snapshot.Status(callsetupIdx) {
	case indicator.IncomingCall, indicator.OutgoingCall, indicator.CallAlerting:
		s.Phase = RingAlert
		s.publish(EventStartRinging)
	}
}

// NotifySCODisconnected feeds back SCO teardown, expected or unexpected.
func (s *Session) NotifySCODisconnected() {
	if s.Phase == W4SCODisconnected || s.Phase == AudioConnectionEstablished ||
		s.Phase == RingAlert || s.Phase == CallActive {
		s.Phase = ServiceLevelConnectionEstablished
	}
}

// NotifyRFCOMMDisconnected feeds back RFCOMM teardown confirmation,
// completing the terminal transition.
func (s *Session) NotifyRFCOMMDisconnected() {
	s.Phase = W4RFCOMMDisconnected
	s.publish(EventDisconnected)
}

func (s *Session) publish(e Event) {
	s.Events = append(s.Events, e)
}

func (s *Session) enqueueCIEV(index, status int) {
	s.cievQueue = append(s.cievQueue, cievUpdate{Index: index, Status: status})
}

func (s *Session) indexOf(name string) int {
	i, err := s.Snapshot.IndexOf(name)
	if err != nil {
		panic(err) // a fixed indicator name missing from the registry is a construction bug
	}
	return i
}
