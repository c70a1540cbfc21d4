package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ScatterAddStrided sums rows of width `width` from values into size output
// buckets selected by index. values holds len(index) consecutive rows. The
// result is independent of row order up to floating-point reordering;
// buckets that receive no rows stay zero.
func ScatterAddStrided(values []float64, width int, index []int, size int) ([]float64, error) {
	if width <= 0 || len(values) != len(index)*width {
		return nil, fmt.Errorf("scatter: values length %d does not match %d rows of width %d",
			len(values), len(index), width)
	}
	out := make([]float64, size*width)
	for r, target := range index {
		if target < 0 || target >= size {
			return nil, fmt.Errorf("scatter: index %d out of range [0,%d)", target, size)
		}
		row := values[r*width : (r+1)*width]
		dst := out[target*width : (target+1)*width]
		for k, v := range row {
			dst[k] += v
		}
	}
	return out, nil
}

// ScatterAddRows is ScatterAddStrided for gonum matrices: rows of values are
// summed into the output row named by index.
func ScatterAddRows(values *mat.Dense, index []int, size int) (*mat.Dense, error) {
	rows, cols := values.Dims()
	if rows != len(index) {
		return nil, fmt.Errorf("scatter: %d rows but %d indices", rows, len(index))
	}
	raw := values.RawMatrix()
	flat := raw.Data
	if raw.Stride != cols {
		flat = make([]float64, rows*cols)
		for i := 0; i < rows; i++ {
			copy(flat[i*cols:(i+1)*cols], values.RawRowView(i))
		}
	} else {
		flat = flat[:rows*cols]
	}
	agg, err := ScatterAddStrided(flat, cols, index, size)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(size, cols, agg), nil
}
