package searcher

import "math"

// DefaultExploration is the UCT exploration constant c.
const DefaultExploration = 2.0

// uctScorer evaluates the UCT formula for the children of one parent,
// computing ln(parent visits) once per selection step.
type uctScorer struct {
	c   float64
	lnN float64
}

func newUCTScorer(c float64, parentVisits int) uctScorer {
	if parentVisits == 0 {
		panic("searcher: UCT scored with zero parent visits")
	}
	return uctScorer{c: c, lnN: math.Log(float64(parentVisits))}
}

// score returns w/n + c*sqrt(ln(N)/n). An unvisited child scores +Inf,
// guaranteeing every child is tried once before the exploitation term
// is trusted.
func (s uctScorer) score(wins float64, visits int) float64 {
	if visits == 0 {
		return math.Inf(1)
	}
	n := float64(visits)
	return wins/n + s.c*math.Sqrt(s.lnN/n)
}
