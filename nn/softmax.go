package nn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// SoftmaxRows returns the row-wise softmax of x. Each row is shifted by its
// maximum before exponentiation so large logits cannot overflow.
func SoftmaxRows(x *mat.Dense) *mat.Dense {
	rows, cols := x.Dims()
	y := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		row := x.RawRowView(i)
		out := y.RawRowView(i)

		maxVal := math.Inf(-1)
		for _, v := range row {
			if v > maxVal {
				maxVal = v
			}
		}

		var sum float64
		for j, v := range row {
			out[j] = math.Exp(v - maxVal)
			sum += out[j]
		}

		inv := 1 / sum
		for j := range out {
			out[j] *= inv
		}
	}
	return y
}
