package shape

import (
	"fmt"
	"strings"
)

// PathD assembles an SVG path "d" attribute from a style index's edge
// list by chaining tip-to-tail: starting from an arbitrary edge, repeatedly
// look for another edge in the remaining set whose start point matches the
// current chain's tip (within pointTolerance) and append it, until no
// match remains — then start a new subpath from whatever's left. A single
// style index commonly holds several disjoint closed loops (e.g. the
// outer and inner contour of a letter "O"), which is why this doesn't stop
// at the first dry chain.
//
// edges is consumed; closePath appends "Z" after each subpath, which a
// fill needs (to avoid an open seam) and a stroke does not.
func PathD(edges []Edge, closePath bool) string {
	if len(edges) == 0 {
		return ""
	}
	remaining := make([]Edge, len(edges))
	copy(remaining, edges)

	var b strings.Builder
	for len(remaining) > 0 {
		current := remaining[0]
		remaining = remaining[1:]

		fmt.Fprintf(&b, "M %s %s ", fmtCoord(current.P1.X), fmtCoord(current.P1.Y))
		writeSegment(&b, current)
		tip := current.P2

		for {
			idx := -1
			for i, e := range remaining {
				if closeEnough(e.P1, tip) {
					idx = i
					break
				}
			}
			if idx < 0 {
				break
			}
			e := remaining[idx]
			remaining = append(remaining[:idx], remaining[idx+1:]...)
			writeSegment(&b, e)
			tip = e.P2
		}

		if closePath {
			b.WriteString("Z ")
		} else {
			b.WriteString(" ")
		}
	}
	return b.String()
}

func writeSegment(b *strings.Builder, e Edge) {
	if e.Quad {
		fmt.Fprintf(b, "Q %s %s %s %s ", fmtCoord(e.Control.X), fmtCoord(e.Control.Y), fmtCoord(e.P2.X), fmtCoord(e.P2.Y))
	} else {
		fmt.Fprintf(b, "L %s %s ", fmtCoord(e.P2.X), fmtCoord(e.P2.Y))
	}
}

func fmtCoord(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
