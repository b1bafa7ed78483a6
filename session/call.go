package session

import (
	"github.com/bthfp/hfpag/atcmd"
	"github.com/bthfp/hfpag/indicator"
)

// callAudioDriver drives codec negotiation, SCO setup and the call
// lifecycle, spec.md sections 4.4.3 and 4.4.4 — the codecs_connection
// driver in original_source/src/hfp_ag.c. It is tried last, after
// slcDriver and slcQueriesDriver decline the tick.
func (s *Session) callAudioDriver(t Transport) (bool, error) {
	// Queued indicator updates (the call-active CIEV sequence) drain
	// one at a time, ahead of idle phase bookkeeping, but never ahead
	// of a command that still needs a reply. An indicator the HF never
	// enabled (AT+BIA) is dequeued silently, without spending this
	// tick's one emission.
	for !s.hasCommand() && len(s.cievQueue) > 0 {
		up := s.cievQueue[0]
		s.cievQueue = s.cievQueue[1:]
		if !s.Snapshot.Enabled(up.Index) {
			continue
		}
		if err := s.w.CIEV(up.Index, up.Status); err != nil {
			return true, err
		}
		return true, nil
	}

	if s.hasCommand() {
		switch s.Pending.Code {
		case atcmd.HF_CONFIRMED_CODEC:
			if s.Phase != SLEW4ExchangeCommonCodec {
				if err := s.w.Error(); err != nil {
					return true, err
				}
				return true, nil
			}
			s.ConfirmedCodec = s.Pending.Codec
			if s.ConfirmedCodec == s.SuggestedCodec {
				if err := s.w.OK(); err != nil {
					return true, err
				}
				s.Phase = CodecsConnectionEstablished
				s.publish(EventCodecsConnectionComplete)
			} else {
				if err := s.w.Error(); err != nil {
					return true, err
				}
				s.Phase = ServiceLevelConnectionEstablished
			}
			return true, nil

		case atcmd.CALL_ANSWERED:
			if s.Phase != RingAlert {
				if err := s.w.Error(); err != nil {
					return true, err
				}
				return true, nil
			}
			if err := s.w.OK(); err != nil {
				return true, err
			}
			s.publish(EventStopRinging)
			s.Phase = CallActive
			s.publish(EventCallActive)
			callIdx, callsetupIdx := s.indexOf("call"), s.indexOf("callsetup")
			s.Snapshot.SetStatus(callIdx, indicator.CallActive)
			s.Snapshot.SetStatus(callsetupIdx, indicator.NoCallSetup)
			s.enqueueCIEV(callIdx, indicator.CallActive)
			s.enqueueCIEV(callsetupIdx, indicator.NoCallSetup)
			return true, nil

		case atcmd.CALL_TERMINATED:
			if err := s.w.OK(); err != nil {
				return true, err
			}
			s.finishCall(t)
			return true, nil
		}
	}

	if s.Action.Kind != ActionNone {
		return s.driveAction(t)
	}

	switch s.Phase {
	case SLEW2ExchangeCommonCodec:
		if err := s.w.BCS(s.SuggestedCodec); err != nil {
			return true, err
		}
		s.Phase = SLEW4ExchangeCommonCodec
		return true, nil

	case CodecsConnectionEstablished:
		// establishAudio persists across ticks until it is satisfied
		// here, regardless of whether codec negotiation completed
		// because of call() or a standalone establish_audio(): once
		// the codec is up, the AG requests the synchronous connection
		// on its own (spec.md section 4.4.4, original source's
		// unconditional establish_audio_connection check at the
		// bottom of hfp_ag_run_for_context_codecs_connection).
		if s.establishAudio {
			if err := t.SetupSCO(DefaultSCOParams(0)); err != nil {
				return true, err
			}
			s.establishAudio = false
			s.Phase = W4SCOConnected
			return true, nil
		}

	case W2DisconnectSCO:
		if err := t.DisconnectSCO(); err != nil {
			return true, err
		}
		s.Phase = W4SCODisconnected
		return true, nil
	}

	return false, nil
}

// driveAction processes the one pending API-triggered intent. At most one
// of these exists at a time (spec.md section 9's PendingAction design
// note); each branch clears it once acted on.
func (s *Session) driveAction(t Transport) (bool, error) {
	switch s.Action.Kind {
	case ActionCall:
		callsetupIdx := s.indexOf("callsetup")
		if s.Snapshot.Status(callsetupIdx) != indicator.NoCallSetup {
			return false, nil // defer: retry on a later tick
		}
		s.Snapshot.SetStatus(callsetupIdx, indicator.IncomingCall)
		s.Action = PendingAction{}
		if s.Phase == ServiceLevelConnectionEstablished {
			s.Phase = SLEW2ExchangeCommonCodec
		}
		// A call always wants its own audio path: carry the intent
		// forward so callAudioDriver requests SCO the moment the
		// codec is negotiated, without a second API call (spec.md
		// section 4.4.4 step 3).
		s.establishAudio = true
		if !s.Snapshot.Enabled(callsetupIdx) {
			return false, nil
		}
		if err := s.w.CIEV(callsetupIdx, indicator.IncomingCall); err != nil {
			return true, err
		}
		return true, nil

	case ActionTerminate:
		s.finishCall(t)
		s.Action = PendingAction{}
		return false, nil

	case ActionEstablishAudio:
		s.Action = PendingAction{}
		// establishAudio persists past this tick: callAudioDriver's
		// CodecsConnectionEstablished case requests SCO once codec
		// negotiation completes, whether that negotiation started
		// here or was already underway (HF-initiated AT+BCC).
		s.establishAudio = true
		if s.Phase == ServiceLevelConnectionEstablished {
			s.Phase = SLEW2ExchangeCommonCodec
		}
		return false, nil

	case ActionReleaseAudio:
		s.Action = PendingAction{}
		if s.Phase == AudioConnectionEstablished || s.Phase == RingAlert || s.Phase == CallActive {
			s.Phase = W2DisconnectSCO
		}
		return false, nil

	case ActionDisconnect:
		s.Action = PendingAction{}
		s.Phase = W2DisconnectRFCOMM
		return false, nil

	case ActionReportExtendedError:
		code := s.Action.ExtendedErrorCode
		s.Action = PendingAction{}
		if !s.cmeeEnabled {
			return false, nil
		}
		if err := s.w.CMEE(code); err != nil {
			return true, err
		}
		return true, nil
	}

	return false, nil
}

// finishCall implements terminate(): the call indicator returns to
// NoCall, SCO is released if up, and the phase returns to
// ServiceLevelConnectionEstablished.
func (s *Session) finishCall(t Transport) {
	callIdx := s.indexOf("call")
	if s.Snapshot.Status(callIdx) != indicator.NoCall {
		s.Snapshot.SetStatus(callIdx, indicator.NoCall)
		s.enqueueCIEV(callIdx, indicator.NoCall)
	}
	if s.Phase == AudioConnectionEstablished || s.Phase == RingAlert || s.Phase == CallActive {
		t.DisconnectSCO()
	}
	s.Phase = ServiceLevelConnectionEstablished
	s.publish(EventCallTerminated)
}
