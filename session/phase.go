package session

// Phase is the session's position across the three layered sub-machines:
// Service Level Connection setup, codec negotiation, and call/audio
// lifecycle. Phase is monotonically non-decreasing during SLC setup; once
// SERVICE_LEVEL_CONNECTION_ESTABLISHED is reached it is free to move
// between the later phases as codec/call/audio events dictate.
type Phase uint8

const (
	ExchangeSupportedFeatures Phase = iota
	W4ExchangeSupportedFeatures
	W4NotifyOnCodecs // only if codec negotiation is mutually supported
	W4RetrieveIndicators
	W4RetrieveIndicatorsStatus
	W4EnableIndicatorsStatusUpdate
	W4RetrieveCanHoldCall             // only if 3-way calling is mutually supported
	W4ListGenericStatusIndicators     // only if HF indicators are mutually supported
	W4RetrieveGenericStatusIndicators
	W4RetrieveInitialStateGenericStatusIndicators
	ServiceLevelConnectionEstablished

	SLEW2ExchangeCommonCodec
	SLEW4ExchangeCommonCodec
	CodecsConnectionEstablished
	W4SCOConnected
	AudioConnectionEstablished
	RingAlert
	CallActive

	W2DisconnectSCO
	W4SCODisconnected
	W2DisconnectRFCOMM
	W4RFCOMMDisconnected
)

var phaseNames = [...]string{
	ExchangeSupportedFeatures:                     "EXCHANGE_SUPPORTED_FEATURES",
	W4ExchangeSupportedFeatures:                    "W4_EXCHANGE_SUPPORTED_FEATURES",
	W4NotifyOnCodecs:                               "W4_NOTIFY_ON_CODECS",
	W4RetrieveIndicators:                           "W4_RETRIEVE_INDICATORS",
	W4RetrieveIndicatorsStatus:                     "W4_RETRIEVE_INDICATORS_STATUS",
	W4EnableIndicatorsStatusUpdate:                 "W4_ENABLE_INDICATORS_STATUS_UPDATE",
	W4RetrieveCanHoldCall:                          "W4_RETRIEVE_CAN_HOLD_CALL",
	W4ListGenericStatusIndicators:                  "W4_LIST_GENERIC_STATUS_INDICATORS",
	W4RetrieveGenericStatusIndicators:              "W4_RETRIEVE_GENERIC_STATUS_INDICATORS",
	W4RetrieveInitialStateGenericStatusIndicators:  "W4_RETRIEVE_INITIAL_STATE_GENERIC_STATUS_INDICATORS",
	ServiceLevelConnectionEstablished:              "SERVICE_LEVEL_CONNECTION_ESTABLISHED",
	SLEW2ExchangeCommonCodec:                       "SLE_W2_EXCHANGE_COMMON_CODEC",
	SLEW4ExchangeCommonCodec:                       "SLE_W4_EXCHANGE_COMMON_CODEC",
	CodecsConnectionEstablished:                    "CODECS_CONNECTION_ESTABLISHED",
	W4SCOConnected:                                 "W4_SCO_CONNECTED",
	AudioConnectionEstablished:                     "AUDIO_CONNECTION_ESTABLISHED",
	RingAlert:                                      "RING_ALERT",
	CallActive:                                     "CALL_ACTIVE",
	W2DisconnectSCO:                                "W2_DISCONNECT_SCO",
	W4SCODisconnected:                              "W4_SCO_DISCONNECTED",
	W2DisconnectRFCOMM:                             "W2_DISCONNECT_RFCOMM",
	W4RFCOMMDisconnected:                           "W4_RFCOMM_DISCONNECTED",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) && phaseNames[p] != "" {
		return phaseNames[p]
	}
	return "Phase(?)"
}
