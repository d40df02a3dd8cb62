package world

import "math"

type Vec3i struct {
	X int
	Y int
	Z int
}

func (v Vec3i) ToArray() [3]int { return [3]int{v.X, v.Y, v.Z} }

func (v Vec3i) Add(d Vec3i) Vec3i { return Vec3i{X: v.X + d.X, Y: v.Y + d.Y, Z: v.Z + d.Z} }

func (v Vec3i) Float() Vec3f { return Vec3f{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)} }

// Vec3f is an entity position; blocks occupy the unit cube at their integer corner.
type Vec3f struct {
	X float64
	Y float64
	Z float64
}

func (v Vec3f) ToArray() [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

// Floor returns the block coordinates containing v.
func (v Vec3f) Floor() Vec3i {
	return Vec3i{X: int(math.Floor(v.X)), Y: int(math.Floor(v.Y)), Z: int(math.Floor(v.Z))}
}

// Distance is the straight-line distance between a and b.
func Distance(a, b Vec3f) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
