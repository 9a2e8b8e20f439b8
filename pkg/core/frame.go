package core

import "math"

// Frame is an orthonormal basis. Local coordinates put N on +Z.
type Frame struct {
	S, T, N Vec3
}

// NewFrame builds a frame around the unit normal n
// (Duff et al., "Building an Orthonormal Basis, Revisited")
func NewFrame(n Vec3) Frame {
	sign := math.Copysign(1.0, n.Z)
	a := -1.0 / (sign + n.Z)
	b := n.X * n.Y * a
	s := NewVec3(1.0+sign*n.X*n.X*a, sign*b, -sign*n.X)
	t := NewVec3(b, sign+n.Y*n.Y*a, -n.Y)
	return Frame{S: s, T: t, N: n}
}

// ToLocal expresses a world-space vector in this frame
func (f Frame) ToLocal(v Vec3) Vec3 {
	return NewVec3(v.Dot(f.S), v.Dot(f.T), v.Dot(f.N))
}

// ToWorld converts a local vector back to world space
func (f Frame) ToWorld(v Vec3) Vec3 {
	return f.S.Multiply(v.X).Add(f.T.Multiply(v.Y)).Add(f.N.Multiply(v.Z))
}

// CosTheta returns the cosine of the angle between a local vector and +Z
func CosTheta(v Vec3) float64 {
	return v.Z
}

// SinTheta2 returns the squared sine of the angle between a local vector and +Z
func SinTheta2(v Vec3) float64 {
	return math.Max(0, 1.0-v.Z*v.Z)
}

// TanTheta returns the tangent of the angle between a local vector and +Z
func TanTheta(v Vec3) float64 {
	temp := 1.0 - v.Z*v.Z
	if temp <= 0 {
		return 0
	}
	return math.Sqrt(temp) / v.Z
}
