// Package hfpag implements the Audio Gateway's connection registry and
// public API: it owns the set of active sessions, advertises the service
// via SDP, and drives each session's Run whenever RFCOMM, HCI or an API
// caller signals an event.
package hfpag

import "github.com/bthfp/hfpag/session"

// RFCOMM is the narrow transport collaborator, consumed not defined here
// (spec.md section 6).
type RFCOMM interface {
	// CanSendNow reports whether the channel can currently accept
	// another frame. The Gateway checks this before ticking a
	// session's Run.
	CanSendNow(channel uint16) bool
	Send(channel uint16, p []byte) error
	Disconnect(channel uint16) error
}

// HCI is the narrow HCI/GAP collaborator for synchronous connection setup
// and teardown (spec.md section 6).
type HCI interface {
	SetupSynchronousConnection(channel uint16, params session.SCOParams) error
	DisconnectSCO(channel uint16) error
	// VoiceSetting returns the voice setting the HCI layer is
	// configured with, fed into the fixed eSCO parameter template.
	VoiceSetting() uint16
}

// SDPRecordParams carries the fields the HandsfreeAudioGateway SDP record
// needs, including the ability-to-reject-call byte supplemented from
// original_source/src/hfp_ag.c (not present in spec.md's distilled text).
type SDPRecordParams struct {
	RFCOMMChannel       uint16
	ServiceName         string
	SupportedFeatures   uint16
	AbilityToRejectCall bool
}

// DefaultServiceName is used when SDPRecordParams.ServiceName is empty,
// matching the original's default_hfp_ag_service_name fallback.
const DefaultServiceName = "Voice gateway"

// SDPBuilder is the narrow SDP record builder collaborator for the
// HandsfreeAudioGateway service class (spec.md section 6).
type SDPBuilder interface {
	BuildHandsfreeAudioGatewayRecord(SDPRecordParams) ([]byte, error)
}

// sessionTransport adapts the Gateway's RFCOMM/HCI collaborators to the
// session.Transport interface for one session's channel id.
type sessionTransport struct {
	channel uint16
	rfcomm  RFCOMM
	hci     HCI
}

func (t *sessionTransport) Send(p []byte) error { return t.rfcomm.Send(t.channel, p) }

func (t *sessionTransport) SetupSCO(params session.SCOParams) error {
	params.VoiceSetting = t.hci.VoiceSetting()
	return t.hci.SetupSynchronousConnection(t.channel, params)
}

func (t *sessionTransport) Disconnect() error { return t.rfcomm.Disconnect(t.channel) }

func (t *sessionTransport) DisconnectSCO() error { return t.hci.DisconnectSCO(t.channel) }
