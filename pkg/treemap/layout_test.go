package treemap

import (
	"fmt"
	"math"
	"math/rand/v2"
	"reflect"
	"testing"

	"github.com/matzehuels/releasecal/pkg/errors"
)

const tol = 1e-6

func approx(a, b float64) bool {
	return math.Abs(a-b) <= tol*max(1, math.Abs(a), math.Abs(b))
}

func approxRect(a, b Rect) bool {
	return approx(a.X0, b.X0) && approx(a.Y0, b.Y0) && approx(a.X1, b.X1) && approx(a.Y1, b.Y1)
}

func randomInput(rng *rand.Rand) ([]Item, Rect) {
	n := 1 + rng.IntN(30)
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{Name: fmt.Sprintf("c%d", i), Value: 0.1 + rng.Float64()*100}
		if rng.IntN(4) == 0 {
			items[i].Value = float64(1 + rng.IntN(5))
		}
	}
	x0, y0 := rng.Float64()*50, rng.Float64()*50
	bounds := Rect{X0: x0, Y0: y0, X1: x0 + 1 + rng.Float64()*500, Y1: y0 + 1 + rng.Float64()*500}
	return items, bounds
}

func TestLayoutProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for trial := range 500 {
		items, bounds := randomInput(rng)
		nodes, err := Layout(items, bounds)
		if err != nil {
			t.Fatalf("trial %d: Layout: %v", trial, err)
		}
		if len(nodes) != len(items) {
			t.Fatalf("trial %d: got %d nodes, want %d", trial, len(nodes), len(items))
		}

		var area, sum float64
		for _, it := range items {
			sum += it.Value
		}
		unit := bounds.Area() / sum

		for i, n := range nodes {
			r := n.Rect
			if r.Width() < 0 || r.Height() < 0 || math.IsNaN(r.Area()) {
				t.Fatalf("trial %d: node %d has invalid rect %+v", trial, i, r)
			}
			if r.X0 < bounds.X0-tol || r.Y0 < bounds.Y0-tol || r.X1 > bounds.X1+tol || r.Y1 > bounds.Y1+tol {
				t.Fatalf("trial %d: node %d rect %+v outside bounds %+v", trial, i, r, bounds)
			}
			// Area proportional to value.
			if got, want := r.Area(), n.Item.Value*unit; !approx(got, want) {
				t.Errorf("trial %d: node %d area = %v, want %v", trial, i, got, want)
			}
			area += r.Area()

			for j := i + 1; j < len(nodes); j++ {
				if r.Overlaps(nodes[j].Rect) {
					t.Fatalf("trial %d: nodes %d and %d overlap: %+v %+v", trial, i, j, r, nodes[j].Rect)
				}
			}
		}

		if !approx(area, bounds.Area()) {
			t.Errorf("trial %d: total area = %v, want %v", trial, area, bounds.Area())
		}
	}
}

func TestLayoutEqualValuesEqualAreas(t *testing.T) {
	items := []Item{{Name: "a", Value: 2}, {Name: "b", Value: 2}, {Name: "c", Value: 2}, {Name: "d", Value: 2}}
	nodes, err := Layout(items, Rect{X1: 100, Y1: 60})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	for _, n := range nodes {
		if !approx(n.Rect.Area(), 1500) {
			t.Errorf("%s area = %v, want 1500", n.Item.Name, n.Rect.Area())
		}
	}
}

func TestLayoutDegenerate(t *testing.T) {
	bounds := Rect{X0: 0.1, Y0: 0.2, X1: 0.3, Y1: 0.7}

	nodes, err := Layout(nil, bounds)
	if err != nil || nodes != nil {
		t.Errorf("Layout(nil) = %v, %v; want nil, nil", nodes, err)
	}

	nodes, err = Layout([]Item{{Name: "only", Value: 5}}, bounds)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	if nodes[0].Rect != bounds {
		t.Errorf("single node rect = %+v, want %+v", nodes[0].Rect, bounds)
	}

	// Empty items are checked before bounds.
	if nodes, err := Layout([]Item{}, Rect{}); err != nil || nodes != nil {
		t.Errorf("Layout(empty, zero bounds) = %v, %v; want nil, nil", nodes, err)
	}
}

func TestLayoutDeterministic(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	for range 50 {
		items, bounds := randomInput(rng)
		a, errA := Layout(items, bounds)
		b, errB := Layout(items, bounds)
		if errA != nil || errB != nil {
			t.Fatalf("Layout: %v, %v", errA, errB)
		}
		if !reflect.DeepEqual(a, b) {
			t.Fatal("identical input produced different layouts")
		}
	}
}

func TestLayoutOrderAndInputUntouched(t *testing.T) {
	items := []Item{
		{Name: "b1", Value: 1},
		{Name: "a3", Value: 3},
		{Name: "b2", Value: 1},
		{Name: "c2", Value: 2},
	}
	orig := append([]Item(nil), items...)

	nodes, err := Layout(items, Rect{X1: 10, Y1: 10})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if !reflect.DeepEqual(items, orig) {
		t.Error("Layout modified its input")
	}

	want := []string{"a3", "c2", "b1", "b2"}
	for i, n := range nodes {
		if n.Item.Name != want[i] {
			t.Errorf("node %d = %s, want %s", i, n.Item.Name, want[i])
		}
	}
}

func TestLayoutSquarifiedExample(t *testing.T) {
	// The classic 6x4 example: 6 and 6 form the first column, 4 and 3 the
	// first row of the remaining space.
	items := []Item{
		{Name: "a", Value: 6}, {Name: "b", Value: 6}, {Name: "c", Value: 4},
		{Name: "d", Value: 3}, {Name: "e", Value: 2}, {Name: "f", Value: 2}, {Name: "g", Value: 1},
	}
	nodes, err := Layout(items, Rect{X1: 6, Y1: 4})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}

	want := []Rect{
		{X0: 0, Y0: 0, X1: 3, Y1: 2},
		{X0: 0, Y0: 2, X1: 3, Y1: 4},
		{X0: 3, Y0: 0, X1: 3 + 12.0/7, Y1: 7.0 / 3},
		{X0: 3 + 12.0/7, Y0: 0, X1: 6, Y1: 7.0 / 3},
	}
	for i, w := range want {
		if !approxRect(nodes[i].Rect, w) {
			t.Errorf("node %d (%s) rect = %+v, want %+v", i, nodes[i].Item.Name, nodes[i].Rect, w)
		}
	}
}

func TestLayoutInvalidInput(t *testing.T) {
	ok := []Item{{Name: "a", Value: 1}}
	tests := []struct {
		name   string
		items  []Item
		bounds Rect
	}{
		{"zero width", ok, Rect{X1: 0, Y1: 10}},
		{"zero height", ok, Rect{X1: 10, Y1: 0}},
		{"negative width", ok, Rect{X0: 10, X1: 5, Y1: 10}},
		{"nan bounds", ok, Rect{X1: math.NaN(), Y1: 10}},
		{"inf bounds", ok, Rect{X1: math.Inf(1), Y1: 10}},
		{"zero value", []Item{{Name: "a", Value: 0}}, Rect{X1: 10, Y1: 10}},
		{"negative value", []Item{{Name: "a", Value: 2}, {Name: "b", Value: -1}}, Rect{X1: 10, Y1: 10}},
		{"nan value", []Item{{Name: "a", Value: math.NaN()}}, Rect{X1: 10, Y1: 10}},
		{"inf value", []Item{{Name: "a", Value: math.Inf(1)}}, Rect{X1: 10, Y1: 10}},
		{"overflowing sum", []Item{{Name: "a", Value: math.MaxFloat64}, {Name: "b", Value: math.MaxFloat64}}, Rect{X1: 10, Y1: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, err := Layout(tt.items, tt.bounds)
			if err == nil {
				t.Fatalf("Layout() = %v, want error", nodes)
			}
			if !errors.Is(err, errors.ErrCodeInvalidLayoutInput) {
				t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidLayoutInput)
			}
		})
	}
}

func TestLayoutExtremeRatiosNeverNegative(t *testing.T) {
	items := []Item{{Name: "huge", Value: 1e12}, {Name: "tiny", Value: 1}, {Name: "tinier", Value: 0.5}}
	nodes, err := Layout(items, Rect{X1: 100, Y1: 1})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("got %d nodes, want 3", len(nodes))
	}
	for _, n := range nodes {
		if n.Rect.Width() < 0 || n.Rect.Height() < 0 || math.IsNaN(n.Rect.Area()) {
			t.Errorf("%s rect = %+v", n.Item.Name, n.Rect)
		}
	}
}

func TestWorstRatio(t *testing.T) {
	tests := []struct {
		name   string
		row    []float64
		scale  float64
		length float64
		want   float64
	}{
		{"square", []float64{1}, 100, 10, 1},
		{"two halves", []float64{1, 1}, 100, 10, 4},
		{"elongated", []float64{1}, 100, 20, 4},
		{"empty", nil, 100, 10, math.Inf(1)},
		{"zero length", []float64{1}, 100, 0, math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WorstRatio(tt.row, tt.scale, tt.length)
			if math.IsInf(tt.want, 1) {
				if !math.IsInf(got, 1) {
					t.Errorf("WorstRatio() = %v, want +Inf", got)
				}
				return
			}
			if !approx(got, tt.want) {
				t.Errorf("WorstRatio() = %v, want %v", got, tt.want)
			}
		})
	}
}
