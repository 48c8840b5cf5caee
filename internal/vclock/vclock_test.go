package vclock

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Clock
		want Ordering
	}{
		{"both empty", nil, Clock{}, Equal},
		{"same components", Clock{"S1": 5, "S2": 3}, Clock{"S1": 5, "S2": 3}, Equal},
		{"absent equals zero", Clock{"S1": 5}, Clock{"S1": 5, "S2": 0}, Equal},
		{"a after b", Clock{"S1": 5, "S2": 3}, Clock{"S1": 5, "S2": 1}, Descending},
		{"a before b", Clock{"S1": 5, "S2": 1}, Clock{"S1": 5, "S2": 3}, Ascending},
		{"a has extra replica", Clock{"S1": 1, "S2": 1}, Clock{"S1": 1}, Descending},
		{"b has extra replica", Clock{"S1": 1}, Clock{"S1": 1, "S3": 2}, Ascending},
		{"concurrent", Clock{"S1": 5, "S2": 1}, Clock{"S1": 2, "S2": 4}, Concurrent},
		{"concurrent disjoint", Clock{"S1": 1}, Clock{"S2": 1}, Concurrent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
			assert.Equal(t, tt.want.Invert(), Compare(tt.b, tt.a), "reverse comparison should invert")
		})
	}
}

func TestCompare_Reflexive(t *testing.T) {
	c := Clock{"S1": 7, "S2": 0, "S3": 12}
	assert.Equal(t, Equal, Compare(c, c))
}

func TestCompare_InverseProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 500; i++ {
		a := randomClock(rng)
		b := randomClock(rng)
		assert.Equal(t, Compare(a, b).Invert(), Compare(b, a), "a=%v b=%v", a, b)
		assert.Equal(t, Equal, Compare(a, a), "a=%v", a)
	}
}

func TestMax_DominatesInputs(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 200; i++ {
		inputs := make([]Clock, 1+rng.IntN(4))
		for j := range inputs {
			inputs[j] = randomClock(rng)
		}
		m := Max(inputs...)
		for _, in := range inputs {
			assert.True(t, Dominates(m, in), "max %v should dominate %v", m, in)
		}
	}
}

func TestMax_Concurrent(t *testing.T) {
	got := Max(Clock{"S1": 5, "S2": 1}, Clock{"S1": 2, "S2": 4})
	assert.Equal(t, Clock{"S1": 5, "S2": 4}, got)
}

func TestMax_Empty(t *testing.T) {
	got := Max()
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMax_DoesNotAliasInputs(t *testing.T) {
	in := Clock{"S1": 1}
	out := Max(in)
	out["S1"] = 9
	assert.Equal(t, uint64(1), in["S1"])
}

func TestIdentical(t *testing.T) {
	assert.True(t, Identical(Clock{"S1": 1, "S2": 2}, Clock{"S2": 2, "S1": 1}))
	assert.True(t, Identical(nil, Clock{}))
	assert.False(t, Identical(Clock{"S1": 1}, Clock{"S1": 1, "S2": 0}), "explicit zero is not absent")
	assert.False(t, Identical(Clock{"S1": 1}, Clock{"S1": 2}))
}

func TestClock_String(t *testing.T) {
	assert.Equal(t, "{S1:5,S2:3}", Clock{"S2": 3, "S1": 5}.String())
	assert.Equal(t, "{}", Clock(nil).String())
}

func TestClock_Clone(t *testing.T) {
	c := Clock{"S1": 1}
	cp := c.Clone()
	cp["S1"] = 2
	assert.Equal(t, uint64(1), c.Get("S1"))
	assert.Equal(t, uint64(0), c.Get("missing"))
}

func TestOrdering_String(t *testing.T) {
	assert.Equal(t, "descending", Descending.String())
	assert.Equal(t, "ordering(9)", Ordering(9).String())
}

func randomClock(rng *rand.Rand) Clock {
	replicas := []string{"S1", "S2", "S3"}
	c := Clock{}
	for _, r := range replicas {
		if rng.IntN(3) == 0 {
			continue
		}
		c[r] = uint64(rng.IntN(4))
	}
	return c
}
