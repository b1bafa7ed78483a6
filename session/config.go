package session

// Feature bits used for the mutual support check in SLC setup (spec.md
// section 4.4.2). Real HFP assigns the AG and HF feature words different
// bit layouts per role; the external AT parser is responsible for that
// translation (out of scope, spec.md section 1). Session works with a
// single semantic bit set for both LocalFeatures and RemoteFeatures so the
// mutual-AND gating rule reads directly off the two bitmaps.
const (
	FeatureThreeWayCalling uint32 = 1 << iota
	FeatureECNR
	FeatureVoiceRecognition
	FeatureInBandRingTone
	FeatureVoiceTagAttachedNumber
	FeatureRejectCall
	FeatureEnhancedCallStatus
	FeatureEnhancedCallControl
	FeatureExtendedErrorResult
	FeatureCodecNegotiation
	FeatureHFIndicators
	FeatureESCOS4Setting
)

// Config is the immutable configuration a Session is built from: the
// global singleton lists the original source kept as file-scope globals
// are re-expressed here as values passed in at construction, per the
// design note in spec.md section 9.
type Config struct {
	LocalFeatures    uint32
	AGCodecs         []int // preference order, first match wins
	CallHoldServices []string

	// MaxCodecs bounds AGCodecs; exceeding it is a misconfiguration
	// rejected at construction (spec.md section 7). HF-advertised codec
	// lists (AT+BAC) are not checked against it.
	MaxCodecs uint
}

// check applies the default for MaxCodecs and panics on a misconfigured
// codec list, mirroring the teacher's TCPConfig.check() pattern.
func (c *Config) check() *Config {
	if c.MaxCodecs == 0 {
		c.MaxCodecs = 8
	}
	if uint(len(c.AGCodecs)) > c.MaxCodecs {
		panic("session: AGCodecs exceeds MaxCodecs")
	}
	return c
}

func mutual(local, remote, bit uint32) bool {
	return local&bit != 0 && remote&bit != 0
}
