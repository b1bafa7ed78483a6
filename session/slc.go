package session

import "github.com/bthfp/hfpag/atcmd"

// slcDriver drives the Service Level Connection handshake, spec.md
// section 4.4.2. It only acts while the phase is still inside the SLC
// ladder; once ServiceLevelConnectionEstablished is reached it defers to
// slcQueriesDriver and callAudioDriver. An inbound command that doesn't
// match what the current phase expects is a protocol violation: reply
// ERROR and stay put, per the out-of-order rule.
//
// W4ExchangeSupportedFeatures is named in spec.md section 4.4.1 as a
// distinct phase, but the session never enters it: the tick that
// processes +BRSF moves straight from ExchangeSupportedFeatures to
// W4NotifyOnCodecs or W4RetrieveIndicators.
func (s *Session) slcDriver() (bool, error) {
	if s.Phase > W4RetrieveInitialStateGenericStatusIndicators {
		return false, nil
	}
	if !s.hasCommand() {
		return false, nil
	}

	switch s.Phase {
	case ExchangeSupportedFeatures:
		if s.Pending.Code != atcmd.SUPPORTED_FEATURES {
			return s.slcOutOfOrder()
		}
		s.RemoteFeatures = s.Pending.Features
		if err := s.w.BRSF(s.cfg.LocalFeatures); err != nil {
			return true, err
		}
		if err := s.w.OK(); err != nil {
			return true, err
		}
		if mutual(s.cfg.LocalFeatures, s.RemoteFeatures, FeatureCodecNegotiation) {
			s.Phase = W4NotifyOnCodecs
		} else {
			s.Phase = W4RetrieveIndicators
		}
		return true, nil

	case W4NotifyOnCodecs:
		if s.Pending.Code != atcmd.AVAILABLE_CODECS {
			return s.slcOutOfOrder()
		}
		s.HFCodecs = s.Pending.Codecs
		s.recomputeSuggestedCodec()
		if err := s.w.OK(); err != nil {
			return true, err
		}
		s.Phase = W4RetrieveIndicators
		return true, nil

	case W4RetrieveIndicators:
		if s.Pending.Code != atcmd.INDICATOR_RETRIEVE {
			return s.slcOutOfOrder()
		}
		if err := s.w.CINDTest(s.Snapshot.Indicators()); err != nil {
			return true, err
		}
		if err := s.w.OK(); err != nil {
			return true, err
		}
		s.Phase = W4RetrieveIndicatorsStatus
		return true, nil

	case W4RetrieveIndicatorsStatus:
		if s.Pending.Code != atcmd.INDICATOR_STATUS {
			return s.slcOutOfOrder()
		}
		if err := s.w.CINDQuery(s.Snapshot.Indicators(), s.Snapshot.Status); err != nil {
			return true, err
		}
		if err := s.w.OK(); err != nil {
			return true, err
		}
		s.Phase = W4EnableIndicatorsStatusUpdate
		return true, nil

	case W4EnableIndicatorsStatusUpdate:
		if s.Pending.Code != atcmd.ENABLE_INDICATOR_STATUS_UPDATE {
			return s.slcOutOfOrder()
		}
		s.Snapshot.EnableAll()
		if err := s.w.OK(); err != nil {
			return true, err
		}
		s.Phase = s.afterIndicatorsEnabled()
		if s.Phase == ServiceLevelConnectionEstablished {
			s.publish(EventSLCEstablished)
		}
		return true, nil

	case W4RetrieveCanHoldCall:
		if s.Pending.Code != atcmd.CALL_HOLD_SUPPORT {
			return s.slcOutOfOrder()
		}
		if err := s.w.CHLD(s.cfg.CallHoldServices); err != nil {
			return true, err
		}
		if err := s.w.OK(); err != nil {
			return true, err
		}
		s.Phase = s.afterCallHold()
		if s.Phase == ServiceLevelConnectionEstablished {
			s.publish(EventSLCEstablished)
		}
		return true, nil

	case W4ListGenericStatusIndicators:
		if s.Pending.Code != atcmd.LIST_GENERIC_STATUS_INDICATORS {
			return s.slcOutOfOrder()
		}
		for _, uuid := range s.Pending.UUIDs {
			if pos := s.Snapshot.PositionOfUUID(uuid); pos >= 0 {
				s.Snapshot.SetGenericStatusIndicatorEnabled(pos, true)
			}
		}
		if err := s.w.OK(); err != nil {
			return true, err
		}
		s.Phase = W4RetrieveGenericStatusIndicators
		return true, nil

	case W4RetrieveGenericStatusIndicators:
		if s.Pending.Code != atcmd.RETRIEVE_GENERIC_STATUS_INDICATORS {
			return s.slcOutOfOrder()
		}
		defs := s.Snapshot.GenericStatusIndicatorDefs()
		uuids := make([]uint16, len(defs))
		for i, d := range defs {
			uuids[i] = d.UUID
		}
		if err := s.w.BINDTest(uuids); err != nil {
			return true, err
		}
		if err := s.w.OK(); err != nil {
			return true, err
		}
		s.Phase = W4RetrieveInitialStateGenericStatusIndicators
		return true, nil

	case W4RetrieveInitialStateGenericStatusIndicators:
		if s.Pending.Code != atcmd.GENERIC_STATUS_INDICATOR_STATE {
			return s.slcOutOfOrder()
		}
		defs := s.Snapshot.GenericStatusIndicatorDefs()
		for i, d := range defs {
			if err := s.w.BINDStatusLine(d.UUID, s.Snapshot.GenericStatusIndicatorEnabled(i)); err != nil {
				return true, err
			}
		}
		if err := s.w.OK(); err != nil {
			return true, err
		}
		s.Phase = ServiceLevelConnectionEstablished
		s.publish(EventSLCEstablished)
		return true, nil
	}

	return false, nil
}

func (s *Session) slcOutOfOrder() (bool, error) {
	if err := s.w.Error(); err != nil {
		return true, err
	}
	return true, nil
}

func (s *Session) afterIndicatorsEnabled() Phase {
	if mutual(s.cfg.LocalFeatures, s.RemoteFeatures, FeatureThreeWayCalling) {
		return W4RetrieveCanHoldCall
	}
	return s.afterCallHold()
}

func (s *Session) afterCallHold() Phase {
	if mutual(s.cfg.LocalFeatures, s.RemoteFeatures, FeatureHFIndicators) {
		return W4ListGenericStatusIndicators
	}
	return ServiceLevelConnectionEstablished
}
