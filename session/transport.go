package session

// Transport is the narrow set of lower-layer collaborators a Session's Run
// needs to perform its side effects. RFCOMM framing, L2CAP, HCI command
// encoding and SDP are all out of scope (spec.md section 1) and live
// entirely behind this interface.
type Transport interface {
	// Send transmits one already-framed AT response. The caller (the
	// connection runner) is expected to have confirmed the channel can
	// accept a frame before invoking Session.Run.
	Send(p []byte) error

	// SetupSCO asks the HCI layer to establish the synchronous
	// connection, using the fixed eSCO parameter template from
	// spec.md section 4.4.4. Confirmation arrives later via
	// Session.NotifySCOConnected.
	SetupSCO(params SCOParams) error

	// Disconnect tears down the RFCOMM channel. Confirmation arrives
	// later via Session.NotifyRFCOMMDisconnected.
	Disconnect() error

	// DisconnectSCO tears down the synchronous connection (the GAP
	// disconnect in spec.md section 4.4.4). Confirmation arrives later
	// via Session.NotifySCODisconnected.
	DisconnectSCO() error
}

// SCOParams is the fixed eSCO request template specified in
// spec.md section 4.4.4: fixed tx/rx bandwidth, maximum latency, voice
// setting supplied by the HCI layer, full retransmission effort and an
// open packet-type mask.
type SCOParams struct {
	TxBandwidth          uint32
	RxBandwidth          uint32
	MaxLatency           uint16
	VoiceSetting         uint16
	RetransmissionEffort uint8
	PacketType           uint16
}

// DefaultSCOParams returns the template spec.md section 4.4.4 mandates,
// given the voice setting the HCI layer reports.
func DefaultSCOParams(voiceSetting uint16) SCOParams {
	return SCOParams{
		TxBandwidth:          8000,
		RxBandwidth:          8000,
		MaxLatency:           0xFFFF,
		VoiceSetting:         voiceSetting,
		RetransmissionEffort: 0xFF,
		PacketType:           0x003F,
	}
}
