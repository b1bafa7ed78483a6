package session

// selectCodec picks the first entry in the AG's preferred codec list that
// also appears in the HF's advertised list, per spec.md section 4.4.3. It
// returns 0 (no common codec) when none match. The original source's
// nested loop lacks a break on match, which would return the *last*
// AG-preferred entry found in the HF list rather than the first; spec.md's
// text is explicit about "first", so that is what this implements.
func selectCodec(agCodecs, hfCodecs []int) int {
	for _, a := range agCodecs {
		for _, h := range hfCodecs {
			if a == h {
				return a
			}
		}
	}
	return 0
}

// recomputeSuggestedCodec recomputes SuggestedCodec from the current
// AGCodecs/HFCodecs pair. It reports whether the result differs from the
// previous suggestion, which drives the renegotiation-restart rule.
func (s *Session) recomputeSuggestedCodec() bool {
	next := selectCodec(s.cfg.AGCodecs, s.HFCodecs)
	changed := next != s.SuggestedCodec
	s.SuggestedCodec = next
	return changed
}
