package index

import "fmt"

// Matrix is a dense row-major float64 matrix. Rows are documents, columns
// are vocabulary terms.
type Matrix struct {
	Rows int
	Cols int
	Data []float64
}

func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

func (m *Matrix) At(i, j int) float64 { return m.Data[i*m.Cols+j] }

func (m *Matrix) Set(i, j int, v float64) { m.Data[i*m.Cols+j] = v }

// Row returns row i as a slice sharing the matrix storage.
func (m *Matrix) Row(i int) []float64 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// Column copies column j.
func (m *Matrix) Column(j int) []float64 {
	col := make([]float64, m.Rows)
	for i := range col {
		col[i] = m.Data[i*m.Cols+j]
	}
	return col
}

// AddColumnTo adds column j element-wise into dst, which must have Rows
// elements.
func (m *Matrix) AddColumnTo(j int, dst []float64) {
	for i := 0; i < m.Rows; i++ {
		dst[i] += m.Data[i*m.Cols+j]
	}
}

// checkShape verifies the declared shape against the backing storage and
// the expected dimensions.
func (m *Matrix) checkShape(name string, rows, cols int) error {
	if m == nil {
		return fmt.Errorf("%s matrix is missing", name)
	}
	if len(m.Data) != m.Rows*m.Cols {
		return fmt.Errorf("%s matrix declares %dx%d but holds %d values", name, m.Rows, m.Cols, len(m.Data))
	}
	if m.Rows != rows || m.Cols != cols {
		return fmt.Errorf("%s matrix is %dx%d, want %dx%d", name, m.Rows, m.Cols, rows, cols)
	}
	return nil
}
