package crystalizer

// expand rewrites b.last in place with the blended backward and forward
// difference expansion. The forward neighbour of the final frame is the
// first frame of b.data. lastL and lastR end up holding the pre-expansion
// final frame.
func (b *band) expand(intensity float32) {
	cur := b.last.Samples()
	next := b.data.Samples()
	n := len(cur)

	prevL, prevR := b.lastL, b.lastR
	for m := 0; m < n; m += 2 {
		l, r := cur[m], cur[m+1]

		var nextL, nextR float32
		if m+2 < n {
			nextL, nextR = cur[m+2], cur[m+3]
		} else {
			nextL, nextR = next[0], next[1]
		}

		v1 := l + (l-prevL)*intensity
		v2 := l + (l-nextL)*intensity
		cur[m] = 0.5 * (v1 + v2)

		v1 = r + (r-prevR)*intensity
		v2 = r + (r-nextR)*intensity
		cur[m+1] = 0.5 * (v1 + v2)

		prevL, prevR = l, r
	}

	b.lastL, b.lastR = prevL, prevR
}

// skip leaves b.last untouched but keeps lastL and lastR current so that
// expansion can resume without a jump.
func (b *band) skip() {
	b.lastL, b.lastR = b.last.Frame(b.last.Frames() - 1)
}
