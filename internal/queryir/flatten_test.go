package queryir

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/esquery/internal/ir"
)

func idTerm(i int) Node {
	return Term{Field: "id", Value: ir.String(fmt.Sprintf("id-%02d", i))}
}

// leftChain builds ((t0 | t1) | t2) | ...
func leftChain(n int) Node {
	out := idTerm(0)
	for i := 1; i < n; i++ {
		out = Or{Left: out, Right: idTerm(i)}
	}
	return out
}

// rightChain builds t0 | (t1 | (t2 | ...))
func rightChain(n int) Node {
	out := idTerm(n - 1)
	for i := n - 2; i >= 0; i-- {
		out = Or{Left: idTerm(i), Right: out}
	}
	return out
}

// balanced builds a balanced binary Or tree over terms [lo, hi).
func balanced(lo, hi int) Node {
	if hi-lo == 1 {
		return idTerm(lo)
	}
	mid := (lo + hi) / 2
	return Or{Left: balanced(lo, mid), Right: balanced(mid, hi)}
}

func TestFlattenShapes(t *testing.T) {
	shapes := map[string]func(int) Node{
		"left":     leftChain,
		"right":    rightChain,
		"balanced": func(n int) Node { return balanced(0, n) },
	}

	for name, build := range shapes {
		for _, n := range []int{2, 3, 20, 30, 100} {
			t.Run(fmt.Sprintf("%s/%d", name, n), func(t *testing.T) {
				root, ok := build(n).(Or)
				require.True(t, ok)

				group := Flatten(root)

				require.Len(t, group.Children, n)
				for i, c := range group.Children {
					assert.Equal(t, idTerm(i), c, "order must follow source order")
				}
				assert.Equal(t, 1, Depth(group))
			})
		}
	}
}

func TestFlattenStopsAtAndAndNot(t *testing.T) {
	inner := Or{Left: idTerm(1), Right: idTerm(2)}
	conj := And{Left: idTerm(3), Right: Or{Left: idTerm(4), Right: idTerm(5)}}
	neg := Not{Child: Or{Left: idTerm(6), Right: idTerm(7)}}

	root := Or{Left: Or{Left: inner, Right: conj}, Right: neg}
	group := Flatten(root)

	require.Len(t, group.Children, 4)
	assert.Equal(t, idTerm(1), group.Children[0])
	assert.Equal(t, idTerm(2), group.Children[1])
	assert.Equal(t, conj, group.Children[2])
	assert.Equal(t, neg, group.Children[3])
}

func TestFlattenAbsorbsBoolGroups(t *testing.T) {
	root := Or{Left: NewBoolGroup(idTerm(0), idTerm(1)), Right: Or{Left: idTerm(2), Right: NewBoolGroup()}}
	group := Flatten(root)
	assert.Equal(t, []Node{idTerm(0), idTerm(1), idTerm(2)}, group.Children)
}

func TestOptimizeRewritesNestedRuns(t *testing.T) {
	root := And{
		Left:  leftChain(3),
		Right: Not{Child: rightChain(4)},
	}

	opt := Optimize(root)

	and, ok := opt.(And)
	require.True(t, ok)
	left, ok := and.Left.(BoolGroup)
	require.True(t, ok)
	assert.Len(t, left.Children, 3)

	not, ok := and.Right.(Not)
	require.True(t, ok)
	right, ok := not.Child.(BoolGroup)
	require.True(t, ok)
	assert.Len(t, right.Children, 4)

	assert.Equal(t, 3, Depth(opt))
	assert.Equal(t, Leaves(root), Leaves(opt))
}

func TestOptimizeIsIdempotent(t *testing.T) {
	root := Or{Left: And{Left: idTerm(0), Right: leftChain(5)}, Right: idTerm(9)}
	once := Optimize(root)
	assert.Equal(t, once, Optimize(once))
}

func TestDepth(t *testing.T) {
	assert.Equal(t, 0, Depth(idTerm(0)))
	assert.Equal(t, 29, Depth(leftChain(30)))
	assert.Equal(t, 1, Depth(Optimize(leftChain(30))))
	assert.Equal(t, 2, Depth(Not{Child: And{Left: idTerm(0), Right: idTerm(1)}}))
}
