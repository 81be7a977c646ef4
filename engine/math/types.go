package math

/** @brief A 3-element vector. */
type Vec3 struct {
	X, Y, Z float32
}

/** @brief A 4-element vector, also used for colours and viewport rects. */
type Vec4 struct {
	X, Y, Z, W float32
}

func NewVec3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func NewVec4(x, y, z, w float32) Vec4 {
	return Vec4{X: x, Y: y, Z: z, W: w}
}
