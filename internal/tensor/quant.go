package tensor

import (
	"bufio"
	"fmt"
	"io"
	"math"
)

// QMat is a row-major matrix stored as int8 codes with one float32 scale per
// block of BlockSize columns. Rows are decoded on access.
//
// When Norms is set there are no block scales: each row was scaled to unit
// length, encoded on a fixed 1/127 grid, and Norms[i] restores its length.
type QMat struct {
	R, C      int
	BlockSize int
	Scales    []float32
	Codes     []int8
	Norms     []float32
}

const unitScale = 1.0 / 127

// Shape returns the number of rows and columns.
func (q *QMat) Shape() (int, int) { return q.R, q.C }

// BlocksPerRow returns the number of scale blocks in a row, zero when the
// norms are kept separately.
func (q *QMat) BlocksPerRow() int {
	if q.Norms != nil {
		return 0
	}
	return (q.C + q.BlockSize - 1) / q.BlockSize
}

// Quantize encodes m with symmetric absmax int8 blocks. With qnorm, the row
// norms are kept as float32 and only the direction of each row is encoded.
func Quantize(m *Mat, blockSize int, qnorm bool) (*QMat, error) {
	if blockSize <= 0 {
		return nil, errBlockSize
	}
	q := &QMat{R: m.R, C: m.C, BlockSize: blockSize, Codes: make([]int8, m.R*m.C)}
	if qnorm {
		q.Norms = make([]float32, m.R)
		for i := 0; i < m.R; i++ {
			row := m.Row(i)
			n := Norm(row)
			q.Norms[i] = n
			if n == 0 {
				continue
			}
			encode(q.Codes[i*m.C:(i+1)*m.C], row, n*unitScale)
		}
		return q, nil
	}

	bpr := q.BlocksPerRow()
	q.Scales = make([]float32, m.R*bpr)
	for i := 0; i < m.R; i++ {
		row := m.Row(i)
		codes := q.Codes[i*m.C : (i+1)*m.C]
		for b := 0; b < bpr; b++ {
			lo := b * blockSize
			hi := min(lo+blockSize, m.C)
			var absMax float32
			for _, v := range row[lo:hi] {
				absMax = max(absMax, float32(math.Abs(float64(v))))
			}
			scale := absMax / 127
			q.Scales[i*bpr+b] = scale
			if scale == 0 {
				continue
			}
			encode(codes[lo:hi], row[lo:hi], scale)
		}
	}
	return q, nil
}

func encode(codes []int8, x []float32, scale float32) {
	for j, v := range x {
		c := math.Round(float64(v / scale))
		codes[j] = int8(max(-127, min(127, c)))
	}
}

func (q *QMat) scale(i, j int) float32 {
	if q.Norms != nil {
		return q.Norms[i] * unitScale
	}
	return q.Scales[i*q.BlocksPerRow()+j/q.BlockSize]
}

// RowTo decodes the i-th row into dst. dst must have length >= C.
func (q *QMat) RowTo(dst []float32, i int) {
	if i < 0 || i >= q.R {
		panic("row index out of range")
	}
	if len(dst) < q.C {
		panic("row buffer too small")
	}
	codes := q.Codes[i*q.C : (i+1)*q.C]
	for j, c := range codes {
		dst[j] = float32(c) * q.scale(i, j)
	}
}

// AddRowTo adds the decoded i-th row to dst.
func (q *QMat) AddRowTo(dst []float32, i int) {
	codes := q.Codes[i*q.C : (i+1)*q.C]
	for j, c := range codes {
		dst[j] += float32(c) * q.scale(i, j)
	}
}

// Dump writes the decoded matrix in the same layout as Mat.Dump.
func (q *QMat) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d %d\n", q.R, q.C); err != nil {
		return err
	}
	row := make([]float32, q.C)
	for i := 0; i < q.R; i++ {
		q.RowTo(row, i)
		if _, err := bw.WriteString(FormatVec(row)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
