package selector

import (
	"errors"
	"math/big"
	"testing"

	"settlecore/internal/models"
)

func outcomes(weights ...int64) []models.RuleOutcome {
	items := make([]models.RuleOutcome, len(weights))
	for i, w := range weights {
		items[i] = models.RuleOutcome{Idx: i, WeightBps: w}
	}
	return items
}

func TestPickOutcome_BinBoundaries(t *testing.T) {
	seq := outcomes(8500, 1500)
	cases := []struct {
		random int64
		want   int
	}{
		{0, 0},
		{4250, 0},
		{8499, 0},
		{8500, 1},
		{9999, 1},
		{10000, 0}, // reduced mod 10000
		{18500, 1},
	}
	for _, tc := range cases {
		got, err := PickOutcome(seq, big.NewInt(tc.random))
		if err != nil {
			t.Fatalf("random=%d err=%v", tc.random, err)
		}
		if got != tc.want {
			t.Fatalf("random=%d got=%d want=%d", tc.random, got, tc.want)
		}
	}
}

func TestPickOutcome_Deterministic(t *testing.T) {
	seq := outcomes(8500, 1500)
	random, ok := new(big.Int).SetString("123456789", 10)
	if !ok {
		t.Fatal("bad literal")
	}
	first, err := PickOutcome(seq, random)
	if err != nil {
		t.Fatal(err)
	}
	second, err := PickOutcome(seq, random)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("first=%d second=%d", first, second)
	}
	if first != 0 && first != 1 {
		t.Fatalf("index out of range: %d", first)
	}
}

func TestPickOutcome_PartitionExhaustive(t *testing.T) {
	seq := outcomes(1, 4999, 5000)
	bounds := []int64{1, 5000, 10000}
	for r := int64(0); r < 10000; r++ {
		want := 0
		for i, b := range bounds {
			if r < b {
				want = i
				break
			}
		}
		got, err := PickOutcome(seq, big.NewInt(r))
		if err != nil {
			t.Fatalf("r=%d err=%v", r, err)
		}
		if got != want {
			t.Fatalf("r=%d got=%d want=%d", r, got, want)
		}
	}
}

func TestPickOutcome_LargeRandomValue(t *testing.T) {
	seq := outcomes(10000)
	random, ok := new(big.Int).SetString("ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff", 16)
	if !ok {
		t.Fatal("bad literal")
	}
	got, err := PickOutcome(seq, random)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Fatalf("got=%d want=0", got)
	}
}

func TestPickOutcome_EmptyRule(t *testing.T) {
	_, err := PickOutcome(nil, big.NewInt(1))
	if !errors.Is(err, ErrRuleNotFound) {
		t.Fatalf("err=%v want ErrRuleNotFound", err)
	}
}

func TestPickOutcome_FallbackOnShortWeights(t *testing.T) {
	// Weights summing below 10,000 violate the creation invariant; the
	// selector must still terminate on the last index.
	seq := outcomes(2000, 3000)
	got, err := PickOutcome(seq, big.NewInt(9000))
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Fatalf("got=%d want=1", got)
	}
}
