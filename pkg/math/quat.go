package math

import "math"

// Quat represents a quaternion for 3D rotations.
// Components are stored as X, Y, Z, W where W is the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{X: 0, Y: 0, Z: 0, W: 1}
}

// QuatFromAxisAngle creates a quaternion from axis-angle rotation.
// axis should be normalized, angle is in radians.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	halfAngle := angle / 2
	s := float32(math.Sin(float64(halfAngle)))
	return Quat{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: float32(math.Cos(float64(halfAngle))),
	}
}

// QuatLookRotation returns the rotation whose forward axis (-Z) points along
// forward, with +Y as close to up as possible. When forward is parallel to up
// a fallback up axis is chosen.
func QuatLookRotation(forward, up Vec3) Quat {
	f := forward.Normalize()
	if f == (Vec3{}) {
		return QuatIdentity()
	}
	r := f.Cross(up)
	if r.Length() < 1e-6 {
		r = f.Cross(Vec3{X: 0, Y: 0, Z: 1})
		if r.Length() < 1e-6 {
			r = f.Cross(Vec3{X: 1, Y: 0, Z: 0})
		}
	}
	r = r.Normalize()
	u := r.Cross(f)
	back := f.Negate()

	// Columns of the rotation matrix are right, up, back.
	m00, m01, m02 := r.X, u.X, back.X
	m10, m11, m12 := r.Y, u.Y, back.Y
	m20, m21, m22 := r.Z, u.Z, back.Z

	var q Quat
	trace := m00 + m11 + m22
	switch {
	case trace > 0:
		s := float32(math.Sqrt(float64(trace+1))) * 2
		q = Quat{W: 0.25 * s, X: (m21 - m12) / s, Y: (m02 - m20) / s, Z: (m10 - m01) / s}
	case m00 > m11 && m00 > m22:
		s := float32(math.Sqrt(float64(1+m00-m11-m22))) * 2
		q = Quat{W: (m21 - m12) / s, X: 0.25 * s, Y: (m01 + m10) / s, Z: (m02 + m20) / s}
	case m11 > m22:
		s := float32(math.Sqrt(float64(1+m11-m00-m22))) * 2
		q = Quat{W: (m02 - m20) / s, X: (m01 + m10) / s, Y: 0.25 * s, Z: (m12 + m21) / s}
	default:
		s := float32(math.Sqrt(float64(1+m22-m00-m11))) * 2
		q = Quat{W: (m10 - m01) / s, X: (m02 + m20) / s, Y: (m12 + m21) / s, Z: 0.25 * s}
	}
	return q.Normalize()
}

// Normalize returns a normalized quaternion.
func (q Quat) Normalize() Quat {
	length := float32(math.Sqrt(float64(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)))
	if length < 0.0001 {
		return QuatIdentity()
	}
	invLen := 1.0 / length
	return Quat{
		X: q.X * invLen,
		Y: q.Y * invLen,
		Z: q.Z * invLen,
		W: q.W * invLen,
	}
}

// Conjugate returns the conjugate, which is the inverse for unit quaternions.
func (q Quat) Conjugate() Quat {
	return Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// Dot returns the dot product of two quaternions.
func (q Quat) Dot(other Quat) float32 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// Mul multiplies two quaternions (combines rotations, other applied first).
func (q Quat) Mul(other Quat) Quat {
	return Quat{
		X: q.W*other.X + q.X*other.W + q.Y*other.Z - q.Z*other.Y,
		Y: q.W*other.Y - q.X*other.Z + q.Y*other.W + q.Z*other.X,
		Z: q.W*other.Z + q.X*other.Y - q.Y*other.X + q.Z*other.W,
		W: q.W*other.W - q.X*other.X - q.Y*other.Y - q.Z*other.Z,
	}
}

// Rotate rotates v by the quaternion. q is assumed to be normalized.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// Forward returns the rotated -Z axis.
func (q Quat) Forward() Vec3 {
	return q.Rotate(Vec3{X: 0, Y: 0, Z: -1})
}

// Right returns the rotated +X axis.
func (q Quat) Right() Vec3 {
	return q.Rotate(Vec3{X: 1, Y: 0, Z: 0})
}

// Up returns the rotated +Y axis.
func (q Quat) Up() Vec3 {
	return q.Rotate(Vec3{X: 0, Y: 1, Z: 0})
}

// ToMat4 converts the quaternion to a 4x4 rotation matrix.
func (q Quat) ToMat4() Mat4 {
	q = q.Normalize()

	xx := q.X * q.X
	xy := q.X * q.Y
	xz := q.X * q.Z
	xw := q.X * q.W
	yy := q.Y * q.Y
	yz := q.Y * q.Z
	yw := q.Y * q.W
	zz := q.Z * q.Z
	zw := q.Z * q.W

	return Mat4{
		1 - 2*(yy+zz), 2 * (xy + zw), 2 * (xz - yw), 0,
		2 * (xy - zw), 1 - 2*(xx+zz), 2 * (yz + xw), 0,
		2 * (xz + yw), 2 * (yz - xw), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// IsFinite reports whether every component is neither NaN nor infinite.
func (q Quat) IsFinite() bool {
	return IsFinite(q.X) && IsFinite(q.Y) && IsFinite(q.Z) && IsFinite(q.W)
}
