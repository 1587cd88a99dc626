package classifier

import (
	"context"
	"testing"

	"github.com/go-dcs/dcs/internal/ensemble"
	"github.com/go-dcs/dcs/internal/evaluation"
	"github.com/go-dcs/dcs/internal/geom"
	"github.com/go-dcs/dcs/internal/learner"
	"github.com/go-dcs/dcs/internal/spatial"
)

// fixedModel answers every query with the same vote vector.
type fixedModel struct {
	votes []float64
}

func (m *fixedModel) Reset()                             {}
func (m *fixedModel) Copy() learner.Classifier           { return &fixedModel{votes: m.votes} }
func (m *fixedModel) Train(ex learner.Example)           {}
func (m *fixedModel) Votes(vec learner.Vector) []float64 { return m.votes }

func votingDCS(t *testing.T, voting VotingType, votes ...[]float64) *DCS {
	t.Helper()
	d, err := New(provider(), WithEnsembleSize(len(votes)+1), WithVoting(voting))
	if err != nil {
		t.Fatalf("creating classifier: %v", err)
	}
	for _, v := range votes {
		d.members.Add(ensemble.Member{Model: &fixedModel{votes: v}, Eval: evaluation.NewBasic()})
	}
	return d
}

func indexOf(t *testing.T, alg spatial.AlgType, examples ...learner.Example) spatial.Index {
	t.Helper()
	idx, err := spatial.For(alg, geom.EuclideanDistance)
	if err != nil {
		t.Fatalf("creating index: %v", err)
	}
	if err := idx.Build(examples...); err != nil {
		t.Fatalf("building index: %v", err)
	}
	return idx
}

// neighborhood builds a brute-force index over exactly neighborsNum labeled
// points, zeros wearing the first labels.
func neighborhood(t *testing.T, zeros int) spatial.Index {
	t.Helper()
	examples := make([]learner.Example, neighborsNum)
	for i := range examples {
		label := 0
		if i >= zeros {
			label = 1
		}
		examples[i] = sample{vec: geom.Point{float64(i), float64(i)}, label: label}
	}
	return indexOf(t, spatial.AlgTypeBrute, examples...)
}

func query() sample {
	return sample{vec: geom.Point{0, 0}, label: -1}
}

func TestVotesNoSel(t *testing.T) {
	tests := []struct {
		name     string
		votes    [][]float64
		expected geom.Point
	}{
		{
			name:     "two_members_normalized_sum",
			votes:    [][]float64{{2, 0}, {1, 1}},
			expected: geom.Point{1.5, 0.5},
		},
		{
			name:     "single_member",
			votes:    [][]float64{{3, 1}},
			expected: geom.Point{0.75, 0.25},
		},
		{
			name:     "zero_vector_skipped",
			votes:    [][]float64{{0, 0}, {0, 4}},
			expected: geom.Point{0, 1},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			d := votingDCS(t, VotingTypeNoSel, test.votes...)
			combined, err := d.Votes(context.Background(), query())
			if err != nil {
				t.Fatalf("querying: %v", err)
			}
			if !combined.Equal(test.expected) {
				t.Errorf("combined votes got: %v, expected: %v", combined, test.expected)
			}
		})
	}
}

func TestVotesKnoraU(t *testing.T) {
	// The first member predicts class 0 everywhere and is right on 4 of the 7
	// neighbors; the second predicts class 1 and is right on the other 3.
	d := votingDCS(t, VotingTypeKnoraU, []float64{1, 0}, []float64{0, 1})
	d.searcher = neighborhood(t, 4)

	combined, err := d.Votes(context.Background(), query())
	if err != nil {
		t.Fatalf("querying: %v", err)
	}
	if expected := (geom.Point{4, 3}); !combined.Equal(expected) {
		t.Errorf("combined votes got: %v, expected: %v", combined, expected)
	}
	if max := float64(d.Len() * neighborsNum); combined.Sum() > max {
		t.Errorf("combined votes %v exceed the %v vote budget", combined, max)
	}
}

func TestVotesKnoraE(t *testing.T) {
	tests := []struct {
		name     string
		votes    [][]float64
		expected geom.Point
	}{
		{
			name:     "single_best_member_votes",
			votes:    [][]float64{{1, 0}, {0, 1}},
			expected: geom.Point{1},
		},
		{
			name:     "tied_members_all_vote",
			votes:    [][]float64{{1, 0}, {1, 0}},
			expected: geom.Point{2},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			d := votingDCS(t, VotingTypeKnoraE, test.votes...)
			d.searcher = neighborhood(t, 4)
			combined, err := d.Votes(context.Background(), query())
			if err != nil {
				t.Fatalf("querying: %v", err)
			}
			if !combined.Equal(test.expected) {
				t.Errorf("combined votes got: %v, expected: %v", combined, test.expected)
			}
		})
	}
}

func TestVotesKnoraEUnlabeledNeighbors(t *testing.T) {
	// Three labeled neighbors next to four unlabeled ones. The silent member
	// never decides, so its no-decision answers on the unlabeled neighbors
	// must not count as correct.
	examples := make([]learner.Example, neighborsNum)
	for i := range examples {
		label := 0
		if i >= 3 {
			label = -1
		}
		examples[i] = sample{vec: geom.Point{float64(i), float64(i)}, label: label}
	}
	d := votingDCS(t, VotingTypeKnoraE, []float64{1, 0}, nil)
	d.searcher = indexOf(t, spatial.AlgTypeBrute, examples...)

	combined, err := d.Votes(context.Background(), query())
	if err != nil {
		t.Fatalf("querying: %v", err)
	}
	if expected := (geom.Point{1}); !combined.Equal(expected) {
		t.Errorf("combined votes got: %v, expected: %v", combined, expected)
	}
}

func TestVotesKnoraEOrderInvariance(t *testing.T) {
	nn := neighborhood(t, 4)
	d1 := votingDCS(t, VotingTypeKnoraE, [][]float64{{1, 0}, {1, 0}, {0, 1}}...)
	d1.searcher = nn
	d2 := votingDCS(t, VotingTypeKnoraE, [][]float64{{0, 1}, {1, 0}, {1, 0}}...)
	d2.searcher = nn

	first, err := d1.Votes(context.Background(), query())
	if err != nil {
		t.Fatalf("querying: %v", err)
	}
	second, err := d2.Votes(context.Background(), query())
	if err != nil {
		t.Fatalf("querying permuted ensemble: %v", err)
	}
	if !first.Equal(second) {
		t.Errorf("member order must not matter, got: %v and %v", first, second)
	}
	if expected := (geom.Point{2}); !first.Equal(expected) {
		t.Errorf("combined votes got: %v, expected: %v", first, expected)
	}
}

func TestVotesFallbackOnSmallChunk(t *testing.T) {
	// An index over fewer than neighborsNum examples cannot answer the
	// competence query; both dynamic strategies degrade to majority voting.
	small := indexOf(t, spatial.AlgTypeKD,
		sample{vec: geom.Point{0, 0}, label: 0},
		sample{vec: geom.Point{1, 1}, label: 1},
		sample{vec: geom.Point{2, 2}, label: 0},
	)
	for _, voting := range []VotingType{VotingTypeKnoraE, VotingTypeKnoraU} {
		d := votingDCS(t, voting, [][]float64{{2, 0}, {1, 1}}...)
		d.searcher = small
		combined, err := d.Votes(context.Background(), query())
		if err != nil {
			t.Fatalf("%s: querying: %v", voting, err)
		}
		if expected := (geom.Point{1.5, 0.5}); !combined.Equal(expected) {
			t.Errorf("%s: fallback votes got: %v, expected: %v", voting, combined, expected)
		}
	}
}

func TestVotesFallbackWithoutIndex(t *testing.T) {
	for _, voting := range []VotingType{VotingTypeKnoraE, VotingTypeKnoraU} {
		d := votingDCS(t, voting, [][]float64{{2, 0}, {1, 1}}...)
		combined, err := d.Votes(context.Background(), query())
		if err != nil {
			t.Fatalf("%s: querying: %v", voting, err)
		}
		if expected := (geom.Point{1.5, 0.5}); !combined.Equal(expected) {
			t.Errorf("%s: fallback votes got: %v, expected: %v", voting, combined, expected)
		}
	}
}

func TestVotesUnknownStrategy(t *testing.T) {
	d := votingDCS(t, VotingType("WEIGHTED"), []float64{1, 0})
	combined, err := d.Votes(context.Background(), query())
	if err != nil {
		t.Fatalf("querying: %v", err)
	}
	if len(combined) != 0 {
		t.Errorf("unknown strategy votes got: %v, expected an empty vector", combined)
	}
}

func TestVotesEmptyEnsemble(t *testing.T) {
	d := votingDCS(t, VotingTypeNoSel)
	combined, err := d.Votes(context.Background(), query())
	if err != nil {
		t.Fatalf("querying: %v", err)
	}
	if len(combined) != 0 {
		t.Errorf("empty ensemble votes got: %v, expected an empty vector", combined)
	}
}

func TestVotesFeedEvaluators(t *testing.T) {
	d := votingDCS(t, VotingTypeNoSel, []float64{1, 0}, []float64{0, 1})
	if _, err := d.Votes(context.Background(), sample{vec: geom.Point{0, 0}, label: 0}); err != nil {
		t.Fatalf("querying: %v", err)
	}
	members := d.members.Members()
	for i, expected := range []float64{100, 0} {
		acc := members[i].Eval.Measurements()[evaluation.SlotAccuracy].Value
		if acc != expected {
			t.Errorf("member %d accuracy got: %v, expected: %v", i, acc, expected)
		}
	}
}
