package atcmd

// Decoded is a single AT command as handed over by the external parser.
// Only the fields relevant to Code are populated; the rest stay zero.
// This is the narrow boundary type between the byte-level AT grammar
// (out of scope) and the session state machine.
type Decoded struct {
	Code Code

	Features uint32  // SUPPORTED_FEATURES
	Codecs   []int   // AVAILABLE_CODECS
	CMER     [4]int  // ENABLE_INDICATOR_STATUS_UPDATE raw parameters
	BIAMask  []bool  // ENABLE_INDIVIDUAL_AG_INDICATOR, one bit per indicator
	UUIDs    []uint16 // LIST_GENERIC_STATUS_INDICATORS

	COPSWrite  bool // QUERY_OPERATOR_SELECTION: true for AT+COPS=<mode>,<format>, false for AT+COPS?
	COPSMode   int  // QUERY_OPERATOR_SELECTION write form's <mode>
	COPSFormat int  // QUERY_OPERATOR_SELECTION format: read reply format, or write form's <format>

	CMEEEnabled bool // ENABLE_EXTENDED_ERROR

	Codec int // HF_CONFIRMED_CODEC
}

// None reports whether no command is currently pending.
func (d Decoded) None() bool { return d.Code == NONE }
