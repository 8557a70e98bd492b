// Copyright 2025 The DeepBind-code Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense tensors the filter-gradient kernels read
// and write.
//
// Example:
//
//	grad, err := tensor.New[float32](tensor.Shape{nfilter, filterSize, nchannel})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(grad.At(0, 1, 2))
package tensor

import (
	"github.com/RodgersLuo/DeepBind-code/internal/tensor"
)

// Float is the constraint for kernel element types: float32 or float64.
type Float = tensor.Float

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Uint8   DataType = tensor.Uint8
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// Tensor is a dense row-major tensor of T.
type Tensor[T Float] = tensor.Tensor[T]

// New allocates a zero-filled tensor.
func New[T Float](shape Shape) (*Tensor[T], error) {
	return tensor.New[T](shape)
}

// FromSlice wraps data without copying. len(data) must equal
// shape.NumElements().
func FromSlice[T Float](data []T, shape Shape) (*Tensor[T], error) {
	return tensor.FromSlice(data, shape)
}

// DataTypeOf returns the DataType of T.
func DataTypeOf[T Float]() DataType {
	return tensor.DataTypeOf[T]()
}
