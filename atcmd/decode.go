package atcmd

import (
	"errors"
	"strconv"
	"strings"
)

// ErrMalformed names the condition of a line that matches a known command
// prefix but fails to parse its argument list. Decode itself returns no
// error: it decodes such a line as Code UNKNOWN.
var ErrMalformed = errors.New("atcmd: malformed command")

// Decode parses one inbound AT command line, stripped of its \r\n framing,
// into a Decoded value. It knows only the command set an HFP Audio
// Gateway answers (spec.md section 4.3); anything else decodes as
// Code UNKNOWN so the session can reply ERROR without inspecting it
// further.
func Decode(line string) Decoded {
	line = strings.TrimSpace(line)

	switch {
	case line == "ATA":
		return Decoded{Code: CALL_ANSWERED}
	case line == "AT+CHUP":
		return Decoded{Code: CALL_TERMINATED}
	case line == "AT+CIND=?":
		return Decoded{Code: INDICATOR_RETRIEVE}
	case line == "AT+CIND?":
		return Decoded{Code: INDICATOR_STATUS}
	case line == "AT+CHLD=?":
		return Decoded{Code: CALL_HOLD_SUPPORT}
	case line == "AT+BIND=?":
		return Decoded{Code: RETRIEVE_GENERIC_STATUS_INDICATORS}
	case line == "AT+BIND?":
		return Decoded{Code: GENERIC_STATUS_INDICATOR_STATE}
	case line == "AT+BCC":
		return Decoded{Code: TRIGGER_CODEC_CONNECTION_SETUP}
	case line == "AT+COPS?":
		return Decoded{Code: QUERY_OPERATOR_SELECTION, COPSFormat: 0}
	}

	switch {
	case strings.HasPrefix(line, "AT+BRSF="):
		n, err := strconv.ParseUint(arg(line, "AT+BRSF="), 10, 32)
		if err != nil {
			return Decoded{Code: UNKNOWN}
		}
		return Decoded{Code: SUPPORTED_FEATURES, Features: uint32(n)}

	case strings.HasPrefix(line, "AT+BAC="):
		codecs, ok := intList(arg(line, "AT+BAC="))
		if !ok {
			return Decoded{Code: UNKNOWN}
		}
		return Decoded{Code: AVAILABLE_CODECS, Codecs: codecs}

	case strings.HasPrefix(line, "AT+CMER="):
		nums, ok := intList(arg(line, "AT+CMER="))
		if !ok || len(nums) != 4 {
			return Decoded{Code: UNKNOWN}
		}
		var cmer [4]int
		copy(cmer[:], nums)
		return Decoded{Code: ENABLE_INDICATOR_STATUS_UPDATE, CMER: cmer}

	case strings.HasPrefix(line, "AT+BIA="):
		nums, ok := intList(arg(line, "AT+BIA="))
		if !ok {
			return Decoded{Code: UNKNOWN}
		}
		mask := make([]bool, len(nums))
		for i, n := range nums {
			mask[i] = n != 0
		}
		return Decoded{Code: ENABLE_INDIVIDUAL_AG_INDICATOR, BIAMask: mask}

	case strings.HasPrefix(line, "AT+BIND="):
		nums, ok := intList(arg(line, "AT+BIND="))
		if !ok {
			return Decoded{Code: UNKNOWN}
		}
		// AT+BIND=<uuid1>,<uuid2>,... during SLC setup; the two-number
		// form AT+BIND=<uuid>,<state> sent after SLC is indistinguishable
		// on the wire from a one-entry list, so the session picks the
		// right interpretation from its own phase.
		uuids := make([]uint16, len(nums))
		for i, n := range nums {
			uuids[i] = uint16(n)
		}
		return Decoded{Code: LIST_GENERIC_STATUS_INDICATORS, UUIDs: uuids}

	case strings.HasPrefix(line, "AT+COPS="):
		nums, ok := intList(arg(line, "AT+COPS="))
		if !ok || len(nums) != 2 {
			return Decoded{Code: UNKNOWN}
		}
		return Decoded{Code: QUERY_OPERATOR_SELECTION, COPSWrite: true, COPSMode: nums[0], COPSFormat: nums[1]}

	case strings.HasPrefix(line, "AT+CMEE="):
		n, err := strconv.Atoi(arg(line, "AT+CMEE="))
		if err != nil {
			return Decoded{Code: UNKNOWN}
		}
		return Decoded{Code: ENABLE_EXTENDED_ERROR, CMEEEnabled: n != 0}

	case strings.HasPrefix(line, "AT+BCS="):
		n, err := strconv.Atoi(arg(line, "AT+BCS="))
		if err != nil {
			return Decoded{Code: UNKNOWN}
		}
		return Decoded{Code: HF_CONFIRMED_CODEC, Codec: n}
	}

	return Decoded{Code: UNKNOWN}
}

func arg(line, prefix string) string {
	return strings.TrimPrefix(line, prefix)
}

func intList(s string) ([]int, bool) {
	if s == "" {
		return nil, true
	}
	parts := strings.Split(s, ",")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, false
		}
		nums[i] = n
	}
	return nums, true
}
