// Package atresp formats outbound AT responses and unsolicited reports
// into the CR/LF-framed byte buffers the HFP AT grammar requires.
package atresp

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/bthfp/hfpag/indicator"
)

// ErrOverflow is returned when a response would exceed the Writer's bound.
// The caller gets a clean failure instead of a buffer-size guess.
var ErrOverflow = errors.New("atresp: response exceeds writer bound")

// MaxResponse bounds a single emission. HFP AT lines are short; 512 bytes
// comfortably covers the longest table (a +CIND=? list with the maximum
// practical indicator count) with headroom.
const MaxResponse = 512

// Writer accumulates one AT response. It is reset and reused across ticks;
// no heap ownership crosses a Session.run boundary, matching the
// stack-scoped-buffer rule for C2.
type Writer struct {
	buf bytes.Buffer
}

// Reset clears the writer for reuse.
func (w *Writer) Reset() { w.buf.Reset() }

// Bytes returns the accumulated response.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Len returns the number of bytes accumulated so far.
func (w *Writer) Len() int { return w.buf.Len() }

func (w *Writer) line(payload string) error {
	if w.buf.Len()+len(payload)+4 > MaxResponse {
		return ErrOverflow
	}
	w.buf.WriteString("\r\n")
	w.buf.WriteString(payload)
	w.buf.WriteString("\r\n")
	return nil
}

// OK appends the final "\r\nOK\r\n" response.
func (w *Writer) OK() error { return w.line("OK") }

// Error appends the final "\r\nERROR\r\n" response.
func (w *Writer) Error() error { return w.line("ERROR") }

// BRSF appends "+BRSF:<ag>", the AG's supported-features response to
// AT+BRSF=<hf>.
func (w *Writer) BRSF(agFeatures uint32) error {
	return w.line(fmt.Sprintf("+BRSF:%d", agFeatures))
}

// CINDTest appends the parenthesized indicator definition list answering
// AT+CIND=?, e.g. +CIND:("service",(0,1)),("call",(0,1)).
func (w *Writer) CINDTest(inds []indicator.Indicator) error {
	var b strings.Builder
	b.WriteString("+CIND:")
	for i, ind := range inds {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "(%q,(%d,%d))", ind.Name, ind.Min, ind.Max)
	}
	return w.line(b.String())
}

// CINDQuery appends the comma-separated current status tuple answering
// AT+CIND?, e.g. +CIND:1,0,0.
func (w *Writer) CINDQuery(inds []indicator.Indicator, status func(index int) int) error {
	var b strings.Builder
	b.WriteString("+CIND:")
	for i, ind := range inds {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", status(ind.Index))
	}
	return w.line(b.String())
}

// CHLD appends the call-hold services list answering AT+CHLD=?.
func (w *Writer) CHLD(services []string) error {
	return w.line("+CHLD:(" + strings.Join(services, ",") + ")")
}

// BINDTest appends the AG-supported generic status indicator UUID list
// answering AT+BIND=?.
func (w *Writer) BINDTest(uuids []uint16) error {
	var b strings.Builder
	b.WriteString("+BIND:(")
	for i, u := range uuids {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", u)
	}
	b.WriteByte(')')
	return w.line(b.String())
}

// BINDStatusLine appends one "+BIND:<uuid>,<state>" line, one of several
// emitted in sequence answering AT+BIND?.
func (w *Writer) BINDStatusLine(uuid uint16, enabled bool) error {
	state := 0
	if enabled {
		state = 1
	}
	return w.line(fmt.Sprintf("+BIND:%d,%d", uuid, state))
}

// COPSQuery appends the network operator response answering AT+COPS?. An
// empty name renders as a genuinely blank field, <mode>,<format>, with no
// quotes at all, not an empty quoted string.
func (w *Writer) COPSQuery(mode, format int, name string) error {
	if name == "" {
		return w.line(fmt.Sprintf("+COPS:%d,%d,", mode, format))
	}
	return w.line(fmt.Sprintf("+COPS:%d,%d,%q", mode, format, name))
}

// CMEE appends a pending extended-error report, only ever emitted when the
// HF enabled extended errors via AT+CMEE=1.
func (w *Writer) CMEE(code int) error {
	return w.line(fmt.Sprintf("+CMEE=%d", code))
}

// BCS appends the AG-suggested or HF-confirmed codec identifier.
func (w *Writer) BCS(codec int) error {
	return w.line(fmt.Sprintf("+BCS:%d", codec))
}

// CIEV appends an indicator status change notification.
func (w *Writer) CIEV(index, status int) error {
	return w.line(fmt.Sprintf("+CIEV:%d,%d", index, status))
}
