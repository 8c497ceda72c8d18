package tensor

import (
	"bufio"
	"fmt"
	"io"
)

// Mat represents a dense row-major matrix of float32 values.
//
// R and C represent the number of rows and columns respectively. Data holds the
// flattened matrix values; out-of-range indices panic like plain slices do.
type Mat struct {
	R, C int
	Data []float32
}

// NewMat allocates a zero initialised matrix with the given shape.
func NewMat(r, c int) *Mat {
	if r < 0 || c < 0 {
		panic("negative dimension for matrix")
	}
	return &Mat{R: r, C: c, Data: make([]float32, r*c)}
}

// NewMatFromData wraps existing data. It checks that the data length matches r*c.
func NewMatFromData(r, c int, data []float32) (*Mat, error) {
	if r < 0 || c < 0 {
		return nil, errNegativeDim
	}
	if r*c != len(data) {
		return nil, errRawSizeMismatch
	}
	return &Mat{R: r, C: c, Data: data}, nil
}

// Shape returns the number of rows and columns.
func (m *Mat) Shape() (int, int) { return m.R, m.C }

// Row returns a view of the i-th row. Writes through the slice update the matrix.
func (m *Mat) Row(i int) []float32 {
	if i < 0 || i >= m.R {
		panic("row index out of range")
	}
	start := i * m.C
	return m.Data[start : start+m.C]
}

// RowTo copies the i-th row into dst. dst must have length >= C.
func (m *Mat) RowTo(dst []float32, i int) {
	if len(dst) < m.C {
		panic("row buffer too small")
	}
	copy(dst[:m.C], m.Row(i))
}

// AddRowTo adds the i-th row to dst.
func (m *Mat) AddRowTo(dst []float32, i int) {
	for j, v := range m.Row(i) {
		dst[j] += v
	}
}

// RowNorm returns the L2 norm of the i-th row.
func (m *Mat) RowNorm(i int) float32 {
	return Norm(m.Row(i))
}

// DotRow returns the dot product of the i-th row and v.
func (m *Mat) DotRow(v []float32, i int) float32 {
	return Dot(m.Row(i), v)
}

// Dump writes the shape on the first line followed by one row per line.
func (m *Mat) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d %d\n", m.R, m.C); err != nil {
		return err
	}
	for i := 0; i < m.R; i++ {
		if _, err := bw.WriteString(FormatVec(m.Row(i))); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

var (
	errNegativeDim     = fmtError("negative dimension for matrix")
	errRawSizeMismatch = fmtError("matrix data length mismatch")
	errBlockSize       = fmtError("quantization block size must be positive")
)

type fmtError string

func (e fmtError) Error() string { return string(e) }
