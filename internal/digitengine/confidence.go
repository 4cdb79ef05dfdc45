package digitengine

const (
	weightDTMFClarity   = 0.4
	weightASRConfidence = 0.3
	weightConsistency   = 0.2
	weightContextFit    = 0.1

	clarityNormal  = 0.9
	clarityTooFast = 0.2

	defaultASRConfidence = 0.55

	consistencyMatch    = 0.9
	consistencyMismatch = 0.5
)

// RecordMeta carries the vendor-supplied signals that accompany a
// record-digits call.
type RecordMeta struct {
	ASRConfidence float64 // 0 means "not supplied", defaultASRConfidence is used
}

// computeConfidence scores a candidate as the weighted mean of four terms,
// given the classification reason so far, the vendor ASR confidence (if
// any), and the attempt history, whose most recent entry is compared with
// digits for the consistency term.
func computeConfidence(reason Reason, meta RecordMeta, digits string, history []Attempt) (float64, ConfidenceSignals) {
	clarity := clarityNormal
	if reason == ReasonTooFast {
		clarity = clarityTooFast
	}

	asr := meta.ASRConfidence
	if asr == 0 {
		asr = defaultASRConfidence
	}

	consistency := consistencyMismatch
	if len(history) >= 1 && history[len(history)-1].Digits == digits {
		consistency = consistencyMatch
	}

	contextFit := 1.0
	switch reason {
	case ReasonSpamPattern, ReasonInvalidLength, ReasonInvalidLuhn,
		ReasonInvalidRouting, ReasonInvalidMonth, ReasonInvalidDay, ReasonTooLong:
		contextFit = 0.0
	}

	score := weightDTMFClarity*clarity +
		weightASRConfidence*asr +
		weightConsistency*consistency +
		weightContextFit*contextFit

	return score, ConfidenceSignals{
		DTMFClarity:   clarity,
		ASRConfidence: asr,
		Consistency:   consistency,
		ContextFit:    contextFit,
	}
}
