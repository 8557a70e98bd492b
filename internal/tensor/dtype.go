// Package tensor provides the dense buffers exchanged with the filter-gradient kernels.
package tensor

// Float is the element constraint for delta maps and filter gradients.
// The set is closed so kernels can pick a matching atomic primitive.
type Float interface {
	float32 | float64
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types.
const (
	Float32 DataType = iota
	Float64
	Uint8
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	case Uint8:
		return 1
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Uint8:
		return "uint8"
	default:
		return "unknown"
	}
}

// DataTypeOf returns the DataType matching T.
func DataTypeOf[T Float]() DataType {
	var zero T
	if _, ok := any(zero).(float32); ok {
		return Float32
	}
	return Float64
}
