// Command hfpagcat drives one simulated HF peer against an hfpag.Gateway
// from the terminal: lines typed at the prompt are decoded as AT commands
// and delivered to the session, and the Gateway's responses are printed
// as they would appear on the RFCOMM wire. Lines starting with "!" invoke
// the Gateway's own API (call, terminate, audio) instead of the AT
// command path.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bthfp/hfpag"
	"github.com/bthfp/hfpag/atcmd"
	"github.com/bthfp/hfpag/indicator"
	"github.com/bthfp/hfpag/session"
)

var CmdLog = log.New(os.Stderr, filepath.Base(os.Args[0])+": ", 0)

var (
	peerFlag    = flag.String("peer", "00:00:00:00:00:00", "Bluetooth `address` of the simulated HF peer.")
	channelFlag = flag.Uint("channel", 1, "RFCOMM `channel` number the session binds to.")

	featuresFlag = flag.Uint("ag-features", uint(session.FeatureCodecNegotiation|session.FeatureHFIndicators|session.FeatureThreeWayCalling),
		"Bitmask of AG features advertised in +BRSF, expressed as a `decimal` number.")
	codecsFlag = flag.String("ag-codecs", "1,2", "Comma-separated, AG-preference-ordered `list` of codec"+
		"\nIDs the AG offers (1=CVSD, 2=mSBC).")
	servicesFlag = flag.String("chld-services", "0,1,2", "Comma-separated `list` of +CHLD call-hold service"+
		"\ncodes the AG supports.")
)

func main() {
	log.SetFlags(0)
	flag.Parse()

	codecs := mustIntList(*codecsFlag, "ag-codecs")
	services := splitFields(*servicesFlag)

	cfg := session.Config{
		LocalFeatures:    uint32(*featuresFlag),
		AGCodecs:         codecs,
		CallHoldServices: services,
	}

	defs := []indicator.Def{
		{Name: "service", Min: 0, Max: 1, InitialState: 0, Mandatory: true},
		{Name: "call", Min: 0, Max: 1, InitialState: indicator.NoCall, Mandatory: true},
		{Name: "callsetup", Min: 0, Max: 3, InitialState: indicator.NoCallSetup, Mandatory: true},
		{Name: "callheld", Min: 0, Max: 2, InitialState: 0},
		{Name: "signal", Min: 0, Max: 5, InitialState: 5},
		{Name: "roam", Min: 0, Max: 1, InitialState: 0},
		{Name: "battchg", Min: 0, Max: 5, InitialState: 5},
	}
	gsi := []indicator.GenericStatusIndicatorDef{
		{UUID: 0x0001}, // enhanced safety
		{UUID: 0x0002}, // battery level
	}

	t := &terminalTransport{out: os.Stdout}
	sdp := fakeSDPBuilder{}

	gw, err := hfpag.Init(cfg, defs, gsi, t, t, sdp)
	if err != nil {
		CmdLog.Fatal(err)
	}
	t.gw = gw
	gw.RegisterEventSink(func(peerAddr string, ev session.Event) {
		fmt.Fprintf(os.Stderr, "# event %s (%s)\n", ev, peerAddr)
	})

	channel := uint16(*channelFlag)
	t.channel = channel
	if _, err := gw.Connect(*peerFlag, channel); err != nil {
		CmdLog.Fatal(err)
	}

	fmt.Fprintf(os.Stderr, "# session open for %s on channel %d; type AT commands or !call, !terminate, !audio-on, !audio-off, !disconnect\n",
		*peerFlag, channel)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var err error
		switch {
		case strings.HasPrefix(line, "!"):
			err = dispatchControl(gw, *peerFlag, line[1:])
		default:
			err = gw.Deliver(channel, atcmd.Decode(line))
		}
		if err != nil {
			CmdLog.Print(err)
		}
		t.flushPending()
	}
	if err := scanner.Err(); err != nil {
		CmdLog.Fatal(err)
	}
}

func dispatchControl(gw *hfpag.Gateway, peer, cmd string) error {
	switch cmd {
	case "call":
		return gw.Call(peer)
	case "terminate":
		return gw.Terminate(peer)
	case "audio-on":
		return gw.EstablishAudio(peer)
	case "audio-off":
		return gw.ReleaseAudio(peer)
	case "disconnect":
		return gw.Disconnect(peer)
	default:
		fmt.Fprintf(os.Stderr, "# unrecognized control command %q\n", cmd)
		return nil
	}
}

// terminalTransport implements hfpag.RFCOMM and hfpag.HCI for a single
// channel by writing wire bytes to out and acknowledging SCO setup and
// teardown on a loopback basis; there is no real link to wait on.
// Confirmations are queued rather than fed back into the Gateway
// immediately, since they arrive from inside a Session.Run call and the
// single-threaded cooperative model (spec.md section 5) forbids
// re-entering the scheduler from within a tick — flushPending drains them
// once the triggering Run has returned to the main loop.
type terminalTransport struct {
	out     *os.File
	channel uint16
	gw      *hfpag.Gateway
	pending []func() error
}

func (t *terminalTransport) CanSendNow(channel uint16) bool { return true }

func (t *terminalTransport) Send(channel uint16, p []byte) error {
	_, err := t.out.Write(p)
	return err
}

func (t *terminalTransport) Disconnect(channel uint16) error {
	fmt.Fprintln(os.Stderr, "# RFCOMM disconnect requested")
	t.pending = append(t.pending, func() error { return t.gw.NotifyRFCOMMClosed(channel) })
	return nil
}

func (t *terminalTransport) SetupSynchronousConnection(channel uint16, params session.SCOParams) error {
	fmt.Fprintf(os.Stderr, "# SCO connected (tx=%d rx=%d)\n", params.TxBandwidth, params.RxBandwidth)
	t.pending = append(t.pending, func() error { return t.gw.NotifySCOConnected(channel) })
	return nil
}

func (t *terminalTransport) DisconnectSCO(channel uint16) error {
	fmt.Fprintln(os.Stderr, "# SCO disconnected")
	t.pending = append(t.pending, func() error { return t.gw.NotifySCODisconnected(channel) })
	return nil
}

// flushPending runs any HCI/RFCOMM confirmations queued during the last
// dispatch, feeding them back into the Gateway now that the call stack
// that produced them has unwound.
func (t *terminalTransport) flushPending() {
	for len(t.pending) > 0 {
		fn := t.pending[0]
		t.pending = t.pending[1:]
		if err := fn(); err != nil {
			CmdLog.Print(err)
		}
	}
}

func (t *terminalTransport) VoiceSetting() uint16 { return 0x0060 }

// fakeSDPBuilder renders a minimal placeholder record; a real AG wires in
// a proper SDP attribute encoder instead.
type fakeSDPBuilder struct{}

func (fakeSDPBuilder) BuildHandsfreeAudioGatewayRecord(p hfpag.SDPRecordParams) ([]byte, error) {
	return []byte(fmt.Sprintf("HandsfreeAudioGateway{channel=%d name=%q features=0x%04x rejectCall=%v}",
		p.RFCOMMChannel, p.ServiceName, p.SupportedFeatures, p.AbilityToRejectCall)), nil
}

func mustIntList(s, flagName string) []int {
	parts := splitFields(s)
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			CmdLog.Fatalf("bad -%s: %v", flagName, err)
		}
		out[i] = n
	}
	return out
}

func splitFields(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	fields := strings.Split(s, ",")
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = strings.TrimSpace(f)
	}
	return out
}
