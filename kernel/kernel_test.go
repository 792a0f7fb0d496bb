package kernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestGaussian(t *testing.T) {
	tests := []struct {
		name     string
		d2, beta float64
		expected float64
	}{
		{"ZeroDistance", 0, 1, 1},
		{"UnitDistance", 1, 1, math.Exp(-1)},
		{"ZeroPrecision", 5, 0, 1},
		{"HighPrecision", 1, 10, math.Exp(-10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Gaussian(tt.d2, tt.beta), 1e-12)
		})
	}
}

func TestStudentT(t *testing.T) {
	assert.InDelta(t, 1.0, StudentT(0, 1), 1e-12)
	assert.InDelta(t, 0.5, StudentT(1, 1), 1e-12)
	assert.InDelta(t, 0.25, StudentT(3, 1), 1e-12)
}

func TestBandwidth(t *testing.T) {
	assert.InDelta(t, 1/math.Sqrt(2), Bandwidth(1), 1e-12)
	// Higher precision means tighter bandwidth.
	assert.Less(t, Bandwidth(4), Bandwidth(1))
}

func TestProvider(t *testing.T) {
	for _, typ := range []Type{TypeGaussian, TypeLaplacian, TypeStudentT} {
		t.Run(typ.String(), func(t *testing.T) {
			fn, err := Provider(typ)
			require.NoError(t, err)
			require.NotNil(t, fn)
			// All kernels evaluate to 1 at zero distance.
			assert.InDelta(t, 1.0, fn(0, 1), 1e-12)
		})
	}

	_, err := Provider(Type(999))
	assert.Error(t, err)
}

func TestSquaredDistances(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{
		0, 0,
		3, 4,
		0, 1,
	})

	d2 := SquaredDistances(x)
	require.Equal(t, 3, d2.SymmetricDim())

	assert.InDelta(t, 0.0, d2.At(0, 0), 1e-12)
	assert.InDelta(t, 25.0, d2.At(0, 1), 1e-12)
	assert.InDelta(t, 1.0, d2.At(0, 2), 1e-12)
	assert.InDelta(t, d2.At(1, 2), d2.At(2, 1), 1e-12)
}
