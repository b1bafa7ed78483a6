package session

import "github.com/bthfp/hfpag/atcmd"

// slcQueriesDriver handles the post-SLC query commands from
// original_source/src/hfp_ag.c's service_level_connection_queries driver:
// AT+BAC recompute (with renegotiation restart), AT+COPS?, AT+BIA and
// AT+CMEE, plus the HF-initiated AT+BCC trigger. It only acts once the SLC
// is established; earlier commands of these types are out of order and
// handled (as protocol violations) by slcDriver instead.
func (s *Session) slcQueriesDriver() (bool, error) {
	if s.Phase < ServiceLevelConnectionEstablished || !s.hasCommand() {
		return false, nil
	}

	switch s.Pending.Code {
	case atcmd.AVAILABLE_CODECS:
		s.HFCodecs = s.Pending.Codecs
		changed := s.recomputeSuggestedCodec()
		if err := s.w.OK(); err != nil {
			return true, err
		}
		if changed {
			switch s.Phase {
			case SLEW4ExchangeCommonCodec:
				// Restart the codec exchange from the top: the
				// next tick's callAudioDriver will send the new
				// +BCS.
				s.Phase = SLEW2ExchangeCommonCodec
			case CodecsConnectionEstablished:
				// A fresh +BAC after codec establishment bounces
				// the phase back too (spec.md section 4.4.3 step
				// 3 applies through codec establishment, not just
				// mid-negotiation).
				s.Phase = SLEW4ExchangeCommonCodec
			}
		}
		return true, nil

	case atcmd.QUERY_OPERATOR_SELECTION:
		if s.Pending.COPSWrite {
			// AT+COPS=<mode>,<format>: a format selection, not a
			// query. Only format 0 (long alphanumeric) is permitted;
			// it never itself emits a +COPS: line (spec.md section 6).
			if s.Pending.COPSFormat != 0 {
				if err := s.w.Error(); err != nil {
					return true, err
				}
				return true, nil
			}
			s.operatorMode = s.Pending.COPSMode
			s.operatorFormat = s.Pending.COPSFormat
			if err := s.w.OK(); err != nil {
				return true, err
			}
			return true, nil
		}
		if err := s.w.COPSQuery(s.operatorMode, s.operatorFormat, s.operatorName); err != nil {
			return true, err
		}
		if err := s.w.OK(); err != nil {
			return true, err
		}
		return true, nil

	case atcmd.LIST_GENERIC_STATUS_INDICATORS:
		// Post-SLC, a two-number AT+BIND= list is a single <uuid>,<state>
		// state update rather than the SLC-time list of supported UUIDs.
		if len(s.Pending.UUIDs) != 2 {
			if err := s.w.Error(); err != nil {
				return true, err
			}
			return true, nil
		}
		if pos := s.Snapshot.PositionOfUUID(s.Pending.UUIDs[0]); pos >= 0 {
			s.Snapshot.SetGenericStatusIndicatorEnabled(pos, s.Pending.UUIDs[1] != 0)
		}
		if err := s.w.OK(); err != nil {
			return true, err
		}
		return true, nil

	case atcmd.ENABLE_INDIVIDUAL_AG_INDICATOR:
		s.Snapshot.SetBIAMask(s.Pending.BIAMask)
		if err := s.w.OK(); err != nil {
			return true, err
		}
		return true, nil

	case atcmd.ENABLE_EXTENDED_ERROR:
		// Independent from AT+CMER handling: the original source
		// conflates these via a missing break (spec.md section 9);
		// here they are two unrelated cases.
		s.cmeeEnabled = s.Pending.CMEEEnabled
		if err := s.w.OK(); err != nil {
			return true, err
		}
		return true, nil

	case atcmd.TRIGGER_CODEC_CONNECTION_SETUP:
		if err := s.w.OK(); err != nil {
			return true, err
		}
		if s.Phase == ServiceLevelConnectionEstablished {
			s.Phase = SLEW2ExchangeCommonCodec
		}
		return true, nil
	}

	return false, nil
}
