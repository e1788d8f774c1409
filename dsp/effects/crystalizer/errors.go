package crystalizer

import "errors"

// Errors returned by Session methods.
var (
	ErrNoFormat          = errors.New("crystalizer: sample rate not negotiated")
	ErrInvalidSampleRate = errors.New("crystalizer: sample rate must be positive")
	ErrOddLength         = errors.New("crystalizer: buffer does not hold whole stereo frames")
	ErrBandIndex         = errors.New("crystalizer: band index out of range")
	ErrBandCount         = errors.New("crystalizer: band count mismatch")
	ErrInvalidIntensity  = errors.New("crystalizer: intensity is NaN")
)
