package crystalizer

// mix overwrites out with the sum of the history buffers of all unmuted
// bands, in band order.
func (st *store) mix(out []float32, controls []BandControl) {
	clear(out)
	for i := range st.bands {
		if controls[i].Mute {
			continue
		}
		for j, v := range st.bands[i].last.Samples() {
			out[j] += v
		}
	}
}
