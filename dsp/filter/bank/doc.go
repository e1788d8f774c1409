// Package bank provides the crossover filter bank that splits a stereo
// signal into the crystalizer's frequency bands.
//
// The layout is defined by a list of crossover frequencies and a base
// transition bandwidth B. With n crossovers there are n+1 bands:
//
//	band 0      lowpass  at crossover[0],                transition B
//	band k      bandpass between crossover[k-1] and [k], transition 2B
//	band n      highpass at crossover[n-1],              transition B
//
// Bandpass kernels cascade a lowpass and a highpass kernel, which doubles
// their length. Designing them with twice the transition bandwidth halves
// the length again, so all bands share the same group delay and the band
// outputs can be summed without comb filtering.
//
// [DefaultCrossovers] holds the twelve crossovers of the 13-band layout.
//
// Basic usage:
//
//	b := bank.NewFIR()
//	if err := b.Build(512, 48000); err != nil {
//	    return err
//	}
//	for n := range b.NumBands() {
//	    copy(bandBuf, input)
//	    if err := b.Process(n, bandBuf); err != nil {
//	        return err
//	    }
//	}
package bank
