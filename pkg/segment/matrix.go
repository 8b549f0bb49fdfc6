package segment

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MatrixSpeeds computes per-row speeds of a position matrix sampled at the
// given timestamps. Row 0 has no predecessor and gets speed 0. A
// non-positive time step falls back to the raw position difference.
func MatrixSpeeds(timestamps []float64, positions mat.Matrix) ([]float64, error) {
	rows, cols := positions.Dims()
	if len(timestamps) != rows {
		return nil, fmt.Errorf("timestamps: got %d, want %d (one per row)", len(timestamps), rows)
	}

	speeds := make([]float64, rows)
	prev := make([]float64, cols)
	cur := make([]float64, cols)
	delta := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(cur, i, positions)
		if i > 0 {
			floats.SubTo(delta, cur, prev)
			if dt := timestamps[i] - timestamps[i-1]; dt > 0 {
				floats.Scale(1/dt, delta)
			}
			speeds[i] = floats.Norm(delta, 2)
		}
		prev, cur = cur, prev
	}
	return speeds, nil
}

// DetectSegmentsFromMatrix segments a flat, time-stamped position matrix.
// Boundaries are the plateau onsets followed by the last row, so the
// recording's end closes the final open segment.
func DetectSegmentsFromMatrix(timestamps []float64, positions mat.Matrix, threshold float64, window int) ([]Segment, error) {
	a, err := AnalyzeMatrix(timestamps, positions, Params{Threshold: threshold, Window: window})
	if err != nil {
		return nil, err
	}
	return a.Segments, nil
}

// AnalyzeMatrix is DetectSegmentsFromMatrix that also returns the
// intermediate arrays. Edges include the closing boundary.
func AnalyzeMatrix(timestamps []float64, positions mat.Matrix, p Params) (Analysis, error) {
	speeds, err := MatrixSpeeds(timestamps, positions)
	if err != nil {
		return Analysis{}, err
	}
	mask := PlateauMask(speeds, p.Threshold, p.Window)
	edges := RisingEdges(mask)
	if last := len(speeds) - 1; len(edges) > 0 && edges[len(edges)-1] < last {
		edges = append(edges, last)
	}
	return Analysis{
		Speeds:   speeds,
		Mask:     mask,
		Edges:    edges,
		Segments: pairEdges(edges),
	}, nil
}
