package session

import (
	"log"

	"github.com/bthfp/hfpag/atcmd"
)

// Run is the per-tick decision pass, spec.md section 4.4.5. The caller
// invokes Run whenever the RFCOMM channel reports it can accept another
// frame, after an API call staged an intent, or after an HCI/GAP
// confirmation arrived through one of the Notify* callbacks. Run produces
// at most one outbound AT emission; Events accumulated during the call are
// available on Session.Events once Run returns.
func (s *Session) Run(t Transport) error {
	s.Events = s.Events[:0]
	s.w.Reset()

	if Trace && s.hasCommand() {
		log.Printf("%s@%d: received %s", s.PeerAddr, s.ChannelID, s.Pending.Code)
	}

	if s.Pending.Code == atcmd.UNKNOWN {
		if err := s.w.Error(); err != nil {
			return err
		}
		return s.emit(t)
	}

	handled, err := s.slcDriver()
	if err != nil {
		return err
	}
	if !handled {
		handled, err = s.slcQueriesDriver()
		if err != nil {
			return err
		}
	}
	if !handled {
		handled, err = s.callAudioDriver(t)
		if err != nil {
			return err
		}
	}

	if handled {
		return s.emit(t)
	}

	// A command arrived but no driver recognized it for the current
	// phase: a protocol violation, answered with ERROR rather than
	// left to stall forever (spec.md section 7).
	if s.hasCommand() {
		if err := s.w.Error(); err != nil {
			return err
		}
		return s.emit(t)
	}

	if s.Phase == W2DisconnectRFCOMM {
		s.Phase = W4RFCOMMDisconnected
		return t.Disconnect()
	}

	return nil
}

// emit sends the accumulated response, if any, and clears the pending
// inbound command — both happen together, per the per-tick contract's
// final step.
func (s *Session) emit(t Transport) error {
	s.clearCommand()
	if s.w.Len() == 0 {
		return nil
	}
	if Trace {
		log.Printf("%s@%d: send %q", s.PeerAddr, s.ChannelID, s.w.Bytes())
	}
	return t.Send(s.w.Bytes())
}
