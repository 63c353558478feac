package treemap

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/releasecal/pkg/errors"
)

// collapseFactor scales the bounds to the extent below which the free space
// is treated as used up.
const collapseFactor = 1e-9

// Item is a weighted entry to lay out.
type Item struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// Node is an item with its computed rectangle.
type Node struct {
	Item Item `json:"item"`
	Rect Rect `json:"rect"`
}

// Layout places items inside bounds as a squarified treemap.
//
// It returns one node per item in the order rows were committed, which is
// descending by value with ties in input order. The nodes tile bounds
// exactly: the last row reaches the far edge of the free space and the last
// item of each row reaches the end of its strip. items is not modified.
//
// An empty items slice yields no nodes and no error.
func Layout(items []Item, bounds Rect) ([]Node, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if err := validate(items, bounds); err != nil {
		return nil, err
	}

	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b Item) int { return cmp.Compare(b.Value, a.Value) })

	collapse := collapseFactor * max(bounds.Width(), bounds.Height())
	nodes := make([]Node, 0, len(sorted))
	free := bounds
	rest := sorted

	for len(rest) > 0 {
		if free.Width() < collapse || free.Height() < collapse {
			corner := Rect{X0: free.X0, Y0: free.Y0, X1: free.X0, Y1: free.Y0}
			for _, it := range rest {
				nodes = append(nodes, Node{Item: it, Rect: corner})
			}
			break
		}

		horizontal := free.Width() < free.Height()
		short := free.Height()
		if horizontal {
			short = free.Width()
		}
		remaining := total(rest)
		scale := free.Area() / remaining

		n := bestRow(rest, scale, short)
		row := rest[:n]
		rest = rest[n:]

		var committed []Node
		committed, free = commitRow(row, remaining, free, horizontal, len(rest) == 0)
		nodes = append(nodes, committed...)
	}
	return nodes, nil
}

// bestRow returns the length of the prefix of items that minimizes the worst
// aspect ratio. The row grows only while the ratio strictly improves.
func bestRow(items []Item, scale, length float64) int {
	values := make([]float64, 0, len(items))
	values = append(values, items[0].Value)
	worst := WorstRatio(values, scale, length)

	for i := 1; i < len(items); i++ {
		values = append(values, items[i].Value)
		r := WorstRatio(values, scale, length)
		if !(r < worst) {
			return i
		}
		worst = r
	}
	return len(items)
}

// commitRow lays row out as a strip across the short side of free and
// returns its nodes together with the free space left after it.
func commitRow(row []Item, remaining float64, free Rect, horizontal, last bool) ([]Node, Rect) {
	rowSum := total(row)
	nodes := make([]Node, len(row))

	if horizontal {
		// Strip along the top spanning the width.
		far := free.Y1
		if !last {
			far = min(free.Y0+rowSum/remaining*free.Height(), free.Y1)
		}
		x := free.X0
		for i, it := range row {
			end := free.X1
			if i < len(row)-1 {
				end = min(x+it.Value/rowSum*free.Width(), free.X1)
			}
			nodes[i] = Node{Item: it, Rect: Rect{X0: x, Y0: free.Y0, X1: end, Y1: far}}
			x = end
		}
		free.Y0 = far
		return nodes, free
	}

	// Strip along the left spanning the height.
	far := free.X1
	if !last {
		far = min(free.X0+rowSum/remaining*free.Width(), free.X1)
	}
	y := free.Y0
	for i, it := range row {
		end := free.Y1
		if i < len(row)-1 {
			end = min(y+it.Value/rowSum*free.Height(), free.Y1)
		}
		nodes[i] = Node{Item: it, Rect: Rect{X0: free.X0, Y0: y, X1: far, Y1: end}}
		y = end
	}
	free.X0 = far
	return nodes, free
}

// WorstRatio returns the largest aspect ratio (always >= 1) among the values
// of a row laid along a side of the given length, with scale converting
// values to area. It returns +Inf for rows that cannot be laid out.
func WorstRatio(row []float64, scale, length float64) float64 {
	var sum float64
	for _, v := range row {
		sum += v
	}
	if sum <= 0 || scale <= 0 || length <= 0 {
		return math.Inf(1)
	}

	thickness := sum * scale / length
	worst := 0.0
	for _, v := range row {
		extent := v / sum * length
		if extent <= 0 {
			return math.Inf(1)
		}
		worst = max(worst, thickness/extent, extent/thickness)
	}
	return worst
}

func total(items []Item) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Value
	}
	return sum
}

func validate(items []Item, bounds Rect) error {
	if !bounds.Valid() {
		return errors.New(errors.ErrCodeInvalidLayoutInput,
			"bounds %gx%g must have a finite positive width and height", bounds.Width(), bounds.Height())
	}
	for i, it := range items {
		if math.IsNaN(it.Value) || math.IsInf(it.Value, 0) || it.Value <= 0 {
			return errors.New(errors.ErrCodeInvalidLayoutInput,
				"item %d (%q) has value %g, want a finite positive number", i, it.Name, it.Value)
		}
	}
	if sum := total(items); math.IsInf(sum, 0) {
		return errors.New(errors.ErrCodeInvalidLayoutInput, "sum of item values overflows")
	}
	return nil
}
