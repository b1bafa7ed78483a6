// Package atcmd defines the enumerated AT command codes the Audio Gateway
// recognizes and the Decoded boundary type an external AT parser fills in.
// The dispatcher itself does not own session state: staging the resulting
// intent onto a session is the session package's job, since that is where
// the current phase lives.
package atcmd

// Code enumerates the recognized inbound AT commands. AG_SUGGESTED_CODEC
// never arrives as a decoded inbound command — it names the AG's own
// +BCS emission for tracing purposes, mirroring HF_CONFIRMED_CODEC's
// inbound counterpart.
type Code uint8

const (
	NONE Code = iota
	SUPPORTED_FEATURES
	AVAILABLE_CODECS
	INDICATOR_RETRIEVE
	INDICATOR_STATUS
	ENABLE_INDICATOR_STATUS_UPDATE
	ENABLE_INDIVIDUAL_AG_INDICATOR
	CALL_HOLD_SUPPORT
	LIST_GENERIC_STATUS_INDICATORS
	RETRIEVE_GENERIC_STATUS_INDICATORS
	GENERIC_STATUS_INDICATOR_STATE
	QUERY_OPERATOR_SELECTION
	ENABLE_EXTENDED_ERROR
	TRIGGER_CODEC_CONNECTION_SETUP
	AG_SUGGESTED_CODEC
	HF_CONFIRMED_CODEC
	CALL_ANSWERED
	CALL_TERMINATED
	UNKNOWN
)

var codeNames = [...]string{
	NONE:                               "NONE",
	SUPPORTED_FEATURES:                 "SUPPORTED_FEATURES",
	AVAILABLE_CODECS:                   "AVAILABLE_CODECS",
	INDICATOR_RETRIEVE:                 "INDICATOR_RETRIEVE",
	INDICATOR_STATUS:                   "INDICATOR_STATUS",
	ENABLE_INDICATOR_STATUS_UPDATE:     "ENABLE_INDICATOR_STATUS_UPDATE",
	ENABLE_INDIVIDUAL_AG_INDICATOR:     "ENABLE_INDIVIDUAL_AG_INDICATOR",
	CALL_HOLD_SUPPORT:                  "CALL_HOLD_SUPPORT",
	LIST_GENERIC_STATUS_INDICATORS:     "LIST_GENERIC_STATUS_INDICATORS",
	RETRIEVE_GENERIC_STATUS_INDICATORS: "RETRIEVE_GENERIC_STATUS_INDICATORS",
	GENERIC_STATUS_INDICATOR_STATE:     "GENERIC_STATUS_INDICATOR_STATE",
	QUERY_OPERATOR_SELECTION:           "QUERY_OPERATOR_SELECTION",
	ENABLE_EXTENDED_ERROR:              "ENABLE_EXTENDED_ERROR",
	TRIGGER_CODEC_CONNECTION_SETUP:     "TRIGGER_CODEC_CONNECTION_SETUP",
	AG_SUGGESTED_CODEC:                 "AG_SUGGESTED_CODEC",
	HF_CONFIRMED_CODEC:                 "HF_CONFIRMED_CODEC",
	CALL_ANSWERED:                      "CALL_ANSWERED",
	CALL_TERMINATED:                    "CALL_TERMINATED",
	UNKNOWN:                            "UNKNOWN",
}

// String renders the command code for tracing, hand-written since this
// repository does not run go generate.
func (c Code) String() string {
	if int(c) < len(codeNames) && codeNames[c] != "" {
		return codeNames[c]
	}
	return "Code(?)"
}
