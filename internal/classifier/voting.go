package classifier

import (
	"context"
	"errors"

	"github.com/go-dcs/dcs/internal/ensemble"
	"github.com/go-dcs/dcs/internal/geom"
	"github.com/go-dcs/dcs/internal/learner"
	"github.com/go-dcs/dcs/internal/logging"
)

// neighborsNum is the competence region size for the dynamic strategies.
const neighborsNum = 7

var errNoIndex = errors.New("no chunk index is built")

// Votes combines the member opinions about ex according to the configured
// strategy. Every member's own opinion is also fed to its evaluator, so
// labeled queries keep the per-member accuracy current.
func (d *DCS) Votes(ctx context.Context, ex learner.Example) (geom.Point, error) {
	members := d.members.Members()
	memberVotes := make([]geom.Point, len(members))
	for i := range members {
		memberVotes[i] = geom.NewPoint(members[i].Model.Votes(ex.Vector()))
		members[i].Eval.AddResult(ex, memberVotes[i].Points())
	}
	if len(members) == 0 {
		return geom.Point{}, nil
	}

	switch d.voting {
	case VotingTypeNoSel:
		return votesNoSel(memberVotes), nil
	case VotingTypeKnoraE, VotingTypeKnoraU:
		nn, err := d.neighbors(ex)
		if err != nil {
			logging.FromContext(ctx).Debugf("falling back to majority voting: %v", err)
			return votesNoSel(memberVotes), nil
		}
		if d.voting == VotingTypeKnoraE {
			return votesKnoraE(members, memberVotes, nn), nil
		}
		return votesKnoraU(members, memberVotes, nn), nil
	default:
		return geom.Point{}, nil
	}
}

func (d *DCS) neighbors(ex learner.Example) ([]learner.Example, error) {
	if d.searcher == nil {
		return nil, errNoIndex
	}
	return d.searcher.KNN(ex.Vector(), neighborsNum)
}

// votesNoSel sums the normalized vote vectors of every member that has an
// opinion.
func votesNoSel(memberVotes []geom.Point) geom.Point {
	combined := geom.Point{}
	for i := range memberVotes {
		if memberVotes[i].Sum() <= 0 {
			continue
		}
		v := memberVotes[i].Copy()
		v.Norm()
		combined = combined.Add(v)
	}
	return combined
}

// votesKnoraU weights each member's predicted class by the number of
// neighbors that member classifies correctly.
func votesKnoraU(members []ensemble.Member, memberVotes []geom.Point, nn []learner.Example) geom.Point {
	combined := geom.Point{}
	for i := range members {
		predicted := memberVotes[i].MaxIndex()
		if predicted < 0 {
			continue
		}
		correct := correctNeighbors(members[i], nn)
		for j := 0; j < correct; j++ {
			combined = combined.Inc(predicted)
		}
	}
	return combined
}

// votesKnoraE lets only the members tied at the best neighborhood competence
// cast a single vote each.
func votesKnoraE(members []ensemble.Member, memberVotes []geom.Point, nn []learner.Example) geom.Point {
	counts := make([]int, len(members))
	best := 0
	for i := range members {
		counts[i] = correctNeighbors(members[i], nn)
		if counts[i] > best {
			best = counts[i]
		}
	}
	combined := geom.Point{}
	for i := range members {
		if counts[i] != best {
			continue
		}
		predicted := memberVotes[i].MaxIndex()
		if predicted < 0 {
			continue
		}
		combined = combined.Inc(predicted)
	}
	return combined
}

func correctNeighbors(m ensemble.Member, nn []learner.Example) int {
	correct := 0
	for _, neighbor := range nn {
		if neighbor.Label() < 0 {
			continue
		}
		predicted := geom.NewPoint(m.Model.Votes(neighbor.Vector())).MaxIndex()
		if predicted == neighbor.Label() {
			correct++
		}
	}
	return correct
}
