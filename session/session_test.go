package session

import (
	"strconv"
	"testing"

	"github.com/bthfp/hfpag/atcmd"
	"github.com/bthfp/hfpag/indicator"
)

type fakeTransport struct {
	sent       [][]byte
	scoUp      int
	scoDown    int
	disconnect int
}

func (t *fakeTransport) Send(p []byte) error {
	cp := append([]byte(nil), p...)
	t.sent = append(t.sent, cp)
	return nil
}
func (t *fakeTransport) SetupSCO(params SCOParams) error { t.scoUp++; return nil }
func (t *fakeTransport) Disconnect() error               { t.disconnect++; return nil }
func (t *fakeTransport) DisconnectSCO() error            { t.scoDown++; return nil }

func (t *fakeTransport) lastSent() string {
	if len(t.sent) == 0 {
		return ""
	}
	return string(t.sent[len(t.sent)-1])
}

func newTestSession(t *testing.T, cfg Config) (*Session, *indicator.Registry) {
	t.Helper()
	reg, err := indicator.NewRegistry([]indicator.Def{
		{Name: "service", Min: 0, Max: 1, InitialState: 1},
		{Name: "call", Min: 0, Max: 1, InitialState: indicator.NoCall},
		{Name: "callsetup", Min: 0, Max: 3, InitialState: indicator.NoCallSetup},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return New(cfg, reg, "peer", 1), reg
}

// Scenario 1: SLC happy path, no optional features.
func TestSLCHappyPathNoOptionalFeatures(t *testing.T) {
	reg, err := indicator.NewRegistry([]indicator.Def{
		{Name: "service", Min: 0, Max: 1, InitialState: 1},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	s := New(Config{LocalFeatures: 0}, reg, "peer", 1)
	ft := &fakeTransport{}

	s.Deliver(atcmd.Decode("AT+BRSF=0"))
	if err := s.Run(ft); err != nil {
		t.Fatal(err)
	}
	if got, want := ft.lastSent(), "\r\n+BRSF:0\r\n\r\nOK\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	s.Deliver(atcmd.Decode("AT+CIND=?"))
	if err := s.Run(ft); err != nil {
		t.Fatal(err)
	}
	if got, want := ft.lastSent(), "\r\n+CIND:(\"service\",(0,1))\r\n\r\nOK\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	s.Deliver(atcmd.Decode("AT+CIND?"))
	if err := s.Run(ft); err != nil {
		t.Fatal(err)
	}
	if got, want := ft.lastSent(), "\r\n+CIND:1\r\n\r\nOK\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	s.Deliver(atcmd.Decode("AT+CMER=3,0,0,1"))
	if err := s.Run(ft); err != nil {
		t.Fatal(err)
	}
	if got, want := ft.lastSent(), "\r\nOK\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if s.Phase != ServiceLevelConnectionEstablished {
		t.Fatalf("phase = %s, want ServiceLevelConnectionEstablished", s.Phase)
	}
	if len(s.Events) != 1 || s.Events[0] != EventSLCEstablished {
		t.Fatalf("events = %v, want [SLC_ESTABLISHED]", s.Events)
	}
}

func establishSLC(t *testing.T, s *Session, ft *fakeTransport) {
	t.Helper()
	s.Deliver(atcmd.Decode("AT+BRSF=4095"))
	mustRun(t, s, ft)
	s.Deliver(atcmd.Decode("AT+BAC=2,1"))
	mustRun(t, s, ft)
	s.Deliver(atcmd.Decode("AT+CIND=?"))
	mustRun(t, s, ft)
	s.Deliver(atcmd.Decode("AT+CIND?"))
	mustRun(t, s, ft)
	s.Deliver(atcmd.Decode("AT+CMER=3,0,0,1"))
	mustRun(t, s, ft)
	s.Deliver(atcmd.Decode("AT+CHLD=?"))
	mustRun(t, s, ft)
	if s.Phase != ServiceLevelConnectionEstablished {
		t.Fatalf("phase = %s, want ServiceLevelConnectionEstablished", s.Phase)
	}
}

func mustRun(t *testing.T, s *Session, ft *fakeTransport) {
	t.Helper()
	if err := s.Run(ft); err != nil {
		t.Fatal(err)
	}
}

// Scenario 2: codec negotiation, HF-initiated.
func TestCodecNegotiationHFInitiated(t *testing.T) {
	s, _ := newTestSession(t, Config{
		LocalFeatures:    FeatureCodecNegotiation | FeatureThreeWayCalling,
		AGCodecs:         []int{1, 2},
		CallHoldServices: []string{"0", "1"},
	})
	ft := &fakeTransport{}
	establishSLC(t, s, ft)

	if s.SuggestedCodec != 1 {
		t.Fatalf("suggested codec = %d, want 1", s.SuggestedCodec)
	}

	s.Deliver(atcmd.Decode("AT+BCC"))
	mustRun(t, s, ft)
	if got, want := ft.lastSent(), "\r\nOK\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if s.Phase != SLEW2ExchangeCommonCodec {
		t.Fatalf("phase = %s, want SLEW2ExchangeCommonCodec", s.Phase)
	}

	// the +BCS:1 emission happens on the session's own next tick
	mustRun(t, s, ft)
	if got, want := ft.lastSent(), "\r\n+BCS:1\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if s.Phase != SLEW4ExchangeCommonCodec {
		t.Fatalf("phase = %s, want SLEW4ExchangeCommonCodec", s.Phase)
	}

	s.Deliver(atcmd.Decode("AT+BCS=1"))
	mustRun(t, s, ft)
	if got, want := ft.lastSent(), "\r\nOK\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if s.Phase != CodecsConnectionEstablished {
		t.Fatalf("phase = %s, want CodecsConnectionEstablished", s.Phase)
	}
	if len(s.Events) != 1 || s.Events[0] != EventCodecsConnectionComplete {
		t.Fatalf("events = %v, want [CODECS_CONNECTION_COMPLETE]", s.Events)
	}
}

// Scenario 3: codec mismatch.
func TestCodecMismatch(t *testing.T) {
	s, _ := newTestSession(t, Config{
		LocalFeatures:    FeatureCodecNegotiation | FeatureThreeWayCalling,
		AGCodecs:         []int{1, 2},
		CallHoldServices: []string{"0", "1"},
	})
	ft := &fakeTransport{}
	establishSLC(t, s, ft)

	s.Deliver(atcmd.Decode("AT+BCC"))
	mustRun(t, s, ft)
	mustRun(t, s, ft) // +BCS:1

	s.Deliver(atcmd.Decode("AT+BCS=2"))
	mustRun(t, s, ft)
	if got, want := ft.lastSent(), "\r\nERROR\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if s.Phase != ServiceLevelConnectionEstablished {
		t.Fatalf("phase = %s, want ServiceLevelConnectionEstablished", s.Phase)
	}
	if len(s.Events) != 0 {
		t.Fatalf("events = %v, want none", s.Events)
	}
}

// Scenario 4: codec renegotiation.
func TestCodecRenegotiation(t *testing.T) {
	s, _ := newTestSession(t, Config{
		LocalFeatures:    FeatureCodecNegotiation | FeatureThreeWayCalling,
		AGCodecs:         []int{1, 2},
		CallHoldServices: []string{"0", "1"},
	})
	ft := &fakeTransport{}
	establishSLC(t, s, ft)

	s.Deliver(atcmd.Decode("AT+BCC"))
	mustRun(t, s, ft)
	mustRun(t, s, ft) // +BCS:1

	s.Deliver(atcmd.Decode("AT+BAC=3,2"))
	mustRun(t, s, ft)
	if got, want := ft.lastSent(), "\r\nOK\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if s.SuggestedCodec != 2 {
		t.Fatalf("suggested codec = %d, want 2", s.SuggestedCodec)
	}
	if s.Phase != SLEW2ExchangeCommonCodec {
		t.Fatalf("phase = %s, want SLEW2ExchangeCommonCodec (restarted)", s.Phase)
	}

	mustRun(t, s, ft)
	if got, want := ft.lastSent(), "\r\n+BCS:2\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// Scenario 5: outgoing call.
func TestOutgoingCall(t *testing.T) {
	s, _ := newTestSession(t, Config{
		LocalFeatures:    FeatureCodecNegotiation | FeatureThreeWayCalling,
		AGCodecs:         []int{1, 2},
		CallHoldServices: []string{"0", "1"},
	})
	ft := &fakeTransport{}
	establishSLC(t, s, ft)

	if err := s.RequestCall(); err != nil {
		t.Fatal(err)
	}
	mustRun(t, s, ft)
	callsetupIdx, _ := s.Snapshot.IndexOf("callsetup")
	if got, want := ft.lastSent(), "\r\n+CIEV:"+strconv.Itoa(callsetupIdx)+",1\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if s.Snapshot.Status(callsetupIdx) != indicator.IncomingCall {
		t.Fatalf("callsetup = %d, want IncomingCall", s.Snapshot.Status(callsetupIdx))
	}
	if s.Phase != SLEW2ExchangeCommonCodec {
		t.Fatalf("phase = %s, want SLEW2ExchangeCommonCodec", s.Phase)
	}

	mustRun(t, s, ft) // +BCS:1
	s.Deliver(atcmd.Decode("AT+BCS=1"))
	mustRun(t, s, ft)
	if s.Phase != CodecsConnectionEstablished {
		t.Fatalf("phase = %s, want CodecsConnectionEstablished", s.Phase)
	}

	// call() carries its own establish-audio intent: SCO setup follows
	// codec establishment without a second API call.
	mustRun(t, s, ft)
	if ft.scoUp != 1 {
		t.Fatalf("scoUp = %d, want 1", ft.scoUp)
	}
	if s.Phase != W4SCOConnected {
		t.Fatalf("phase = %s, want W4SCOConnected", s.Phase)
	}

	s.NotifySCOConnected()
	if s.Phase != RingAlert {
		t.Fatalf("phase = %s, want RingAlert", s.Phase)
	}
	if len(s.Events) != 2 || s.Events[0] != EventAudioConnectionEstablished || s.Events[1] != EventStartRinging {
		t.Fatalf("events = %v, want [AUDIO_CONNECTION_ESTABLISHED START_RINGING]", s.Events)
	}

	s.Deliver(atcmd.Decode("ATA"))
	mustRun(t, s, ft)
	if got, want := ft.lastSent(), "\r\nOK\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if s.Phase != CallActive {
		t.Fatalf("phase = %s, want CallActive", s.Phase)
	}

	callIdx, _ := s.Snapshot.IndexOf("call")
	mustRun(t, s, ft) // drains "call" CIEV
	if got, want := ft.lastSent(), "\r\n+CIEV:"+strconv.Itoa(callIdx)+",1\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	mustRun(t, s, ft) // drains "callsetup" CIEV
	if got, want := ft.lastSent(), "\r\n+CIEV:"+strconv.Itoa(callsetupIdx)+",0\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if s.Snapshot.Status(callsetupIdx) != indicator.NoCallSetup {
		t.Fatalf("callsetup = %d, want NoCallSetup", s.Snapshot.Status(callsetupIdx))
	}
}

// EstablishAudio alone, from an established SLC, must chain all the way
// to SCO without a second API call once codec negotiation completes.
func TestEstablishAudioChainsThroughCodecToSCO(t *testing.T) {
	s, _ := newTestSession(t, Config{
		LocalFeatures:    FeatureCodecNegotiation | FeatureThreeWayCalling,
		AGCodecs:         []int{1, 2},
		CallHoldServices: []string{"0", "1"},
	})
	ft := &fakeTransport{}
	establishSLC(t, s, ft)

	if err := s.RequestEstablishAudio(); err != nil {
		t.Fatal(err)
	}
	mustRun(t, s, ft) // advances to SLEW2ExchangeCommonCodec, no emission yet
	if s.Phase != SLEW2ExchangeCommonCodec {
		t.Fatalf("phase = %s, want SLEW2ExchangeCommonCodec", s.Phase)
	}

	mustRun(t, s, ft) // +BCS:1
	if got, want := ft.lastSent(), "\r\n+BCS:1\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	s.Deliver(atcmd.Decode("AT+BCS=1"))
	mustRun(t, s, ft)
	if s.Phase != CodecsConnectionEstablished {
		t.Fatalf("phase = %s, want CodecsConnectionEstablished", s.Phase)
	}

	// No further API call: the establish-audio intent persisted across
	// the codec exchange and fires SCO setup on its own.
	mustRun(t, s, ft)
	if ft.scoUp != 1 {
		t.Fatalf("scoUp = %d, want 1", ft.scoUp)
	}
	if s.Phase != W4SCOConnected {
		t.Fatalf("phase = %s, want W4SCOConnected", s.Phase)
	}
}

// A fresh AT+BAC arriving after codec establishment also bounces the
// phase back to await re-confirmation, not just mid-negotiation.
func TestCodecRenegotiationAfterEstablishment(t *testing.T) {
	s, _ := newTestSession(t, Config{
		LocalFeatures:    FeatureCodecNegotiation | FeatureThreeWayCalling,
		AGCodecs:         []int{1, 2},
		CallHoldServices: []string{"0", "1"},
	})
	ft := &fakeTransport{}
	establishSLC(t, s, ft)

	s.Deliver(atcmd.Decode("AT+BCC"))
	mustRun(t, s, ft)
	mustRun(t, s, ft) // +BCS:1
	s.Deliver(atcmd.Decode("AT+BCS=1"))
	mustRun(t, s, ft)
	if s.Phase != CodecsConnectionEstablished {
		t.Fatalf("phase = %s, want CodecsConnectionEstablished", s.Phase)
	}

	s.Deliver(atcmd.Decode("AT+BAC=3,2"))
	mustRun(t, s, ft)
	if got, want := ft.lastSent(), "\r\nOK\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if s.SuggestedCodec != 2 {
		t.Fatalf("suggested codec = %d, want 2", s.SuggestedCodec)
	}
	if s.Phase != SLEW4ExchangeCommonCodec {
		t.Fatalf("phase = %s, want SLEW4ExchangeCommonCodec (bounced back)", s.Phase)
	}
}

// Scenario 6: unknown command.
func TestUnknownCommand(t *testing.T) {
	s, _ := newTestSession(t, Config{})
	ft := &fakeTransport{}
	before := s.Phase

	s.Deliver(atcmd.Decode("AT+FOO"))
	mustRun(t, s, ft)
	if got, want := ft.lastSent(), "\r\nERROR\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if s.Phase != before {
		t.Fatalf("phase changed from %s to %s on unknown command", before, s.Phase)
	}
}

func TestOutOfOrderCommandIsProtocolViolation(t *testing.T) {
	s, _ := newTestSession(t, Config{})
	ft := &fakeTransport{}

	s.Deliver(atcmd.Decode("AT+CIND=?")) // expects +BRSF first
	mustRun(t, s, ft)
	if got, want := ft.lastSent(), "\r\nERROR\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if s.Phase != ExchangeSupportedFeatures {
		t.Fatalf("phase advanced on out-of-order command: %s", s.Phase)
	}
}

func TestRunIsIdempotentWithNoPendingWork(t *testing.T) {
	s, _ := newTestSession(t, Config{})
	ft := &fakeTransport{}
	mustRun(t, s, ft)
	if len(ft.sent) != 0 {
		t.Fatalf("expected no emission, got %d", len(ft.sent))
	}
	if s.Phase != ExchangeSupportedFeatures {
		t.Fatalf("phase changed on idle run: %s", s.Phase)
	}
}

func TestCOPSSetFormatRepliesOKWithoutQueryLine(t *testing.T) {
	s, _ := newTestSession(t, Config{})
	ft := &fakeTransport{}
	establishSLC(t, s, ft)

	s.Deliver(atcmd.Decode("AT+COPS=3,0"))
	mustRun(t, s, ft)
	if got, want := ft.lastSent(), "\r\nOK\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	s.Deliver(atcmd.Decode("AT+COPS?"))
	mustRun(t, s, ft)
	if got, want := ft.lastSent(), "\r\n+COPS:3,0,\r\n\r\nOK\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCOPSSetUnsupportedFormatRejected(t *testing.T) {
	s, _ := newTestSession(t, Config{})
	ft := &fakeTransport{}
	establishSLC(t, s, ft)

	s.Deliver(atcmd.Decode("AT+COPS=3,1"))
	mustRun(t, s, ft)
	if got, want := ft.lastSent(), "\r\nERROR\r\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCIEVSuppressedForDisabledIndicator(t *testing.T) {
	s, _ := newTestSession(t, Config{
		LocalFeatures:    FeatureCodecNegotiation | FeatureThreeWayCalling,
		AGCodecs:         []int{1, 2},
		CallHoldServices: []string{"0", "1"},
	})
	ft := &fakeTransport{}
	establishSLC(t, s, ft)

	callsetupIdx, _ := s.Snapshot.IndexOf("callsetup")
	s.Snapshot.SetEnabled(callsetupIdx, false)
	sentBefore := len(ft.sent)

	if err := s.RequestCall(); err != nil {
		t.Fatal(err)
	}
	mustRun(t, s, ft)
	if len(ft.sent) != sentBefore {
		t.Fatalf("got an emission for a disabled indicator: %q", ft.lastSent())
	}
	if s.Snapshot.Status(callsetupIdx) != indicator.IncomingCall {
		t.Fatalf("callsetup = %d, want IncomingCall (status still updates)", s.Snapshot.Status(callsetupIdx))
	}
	if s.Phase != SLEW2ExchangeCommonCodec {
		t.Fatalf("phase = %s, want SLEW2ExchangeCommonCodec", s.Phase)
	}
}

func TestRequestActionRejectsWhenBusy(t *testing.T) {
	s, _ := newTestSession(t, Config{})
	if err := s.RequestCall(); err != nil {
		t.Fatal(err)
	}
	if err := s.RequestTerminate(); err != ErrSessionBusy {
		t.Fatalf("got %v, want ErrSessionBusy", err)
	}
}
