package engine

import (
	"errors"
	"math"
)

// ErrNonInvertible is returned by Invert for a matrix with a zero determinant.
var ErrNonInvertible = errors.New("matrix is not invertible")

// Matrix2D maps image coordinates to display coordinates.
// Layout: [a, b, c, d, e, f] representing:
// | a  c  e |
// | b  d  f |
// | 0  0  1 |
//
// The engine only builds similarity transforms, so a == d and b == -c,
// with (e, f) the translation.
type Matrix2D [6]float64

// Identity returns the identity matrix.
func Identity() Matrix2D {
	return Matrix2D{1, 0, 0, 1, 0, 0}
}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Matrix2D {
	return Matrix2D{1, 0, 0, 1, tx, ty}
}

// Scale returns a uniform scale matrix.
func Scale(s float64) Matrix2D {
	return Matrix2D{s, 0, 0, s, 0, 0}
}

// Rotate returns a rotation matrix (angle in radians).
// With y pointing down, positive angles turn clockwise on screen.
func Rotate(radians float64) Matrix2D {
	sin, cos := math.Sincos(radians)
	return Matrix2D{cos, sin, -sin, cos, 0, 0}
}

// RotateDegrees returns a rotation matrix (angle in degrees).
func RotateDegrees(degrees float64) Matrix2D {
	return Rotate(degrees * math.Pi / 180.0)
}

// RotateAbout returns a rotation by degrees around the pivot (px, py).
func RotateAbout(degrees, px, py float64) Matrix2D {
	return Translate(px, py).Multiply(RotateDegrees(degrees)).Multiply(Translate(-px, -py))
}

// Multiply multiplies this matrix by another: result = m * other
// This applies 'other' first, then 'm'.
func (m Matrix2D) Multiply(other Matrix2D) Matrix2D {
	return Matrix2D{
		m[0]*other[0] + m[2]*other[1],        // a
		m[1]*other[0] + m[3]*other[1],        // b
		m[0]*other[2] + m[2]*other[3],        // c
		m[1]*other[2] + m[3]*other[3],        // d
		m[0]*other[4] + m[2]*other[5] + m[4], // e
		m[1]*other[4] + m[3]*other[5] + m[5], // f
	}
}

// TransformPoint applies the matrix to a point.
func (m Matrix2D) TransformPoint(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// Determinant returns the determinant of the matrix.
func (m Matrix2D) Determinant() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// Invert returns the inverse of the matrix.
func (m Matrix2D) Invert() (Matrix2D, error) {
	det := m.Determinant()
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return Matrix2D{}, ErrNonInvertible
	}

	invDet := 1.0 / det
	return Matrix2D{
		m[3] * invDet,
		-m[1] * invDet,
		-m[2] * invDet,
		m[0] * invDet,
		(m[2]*m[5] - m[3]*m[4]) * invDet,
		(m[1]*m[4] - m[0]*m[5]) * invDet,
	}, nil
}

// Values returns the matrix in the row-major 3x3 order used by
// platform matrix APIs: [a c e b d f 0 0 1].
func (m Matrix2D) Values() [9]float64 {
	return [9]float64{m[0], m[2], m[4], m[1], m[3], m[5], 0, 0, 1}
}

// IsIdentity checks if this is the identity matrix (within epsilon).
func (m Matrix2D) IsIdentity() bool {
	const eps = 1e-10
	return math.Abs(m[0]-1) < eps &&
		math.Abs(m[1]) < eps &&
		math.Abs(m[2]) < eps &&
		math.Abs(m[3]-1) < eps &&
		math.Abs(m[4]) < eps &&
		math.Abs(m[5]) < eps
}
