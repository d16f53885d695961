// Copyright 2015 Aleksandr Demakin. All rights reserved.

// Package allocator gives byte access to values, which are stored continuously in memory.
package allocator

import (
	"fmt"
	"reflect"
	"unsafe"
)

const maxObjectSize = 128 * 1024 * 1024

// ObjectSize returns the size of a value of the given type.
// Pointers are dereferenced.
func ObjectSize(t reflect.Type) int {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return int(t.Size())
}

// CheckObjectReferences checks if an object can be safely copied byte by byte.
// The object must not contain any reference types like
// maps, strings, slices and so on. A pointer is allowed at the top level only.
func CheckObjectReferences(object interface{}) error {
	if object == nil {
		return fmt.Errorf("nil object")
	}
	return CheckType(reflect.TypeOf(object))
}

// CheckType is CheckObjectReferences for a type.
func CheckType(t reflect.Type) error {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if err := checkType(t); err != nil {
		return err
	}
	if t.Size() > maxObjectSize {
		return fmt.Errorf("the object exceeds max object size of %d", maxObjectSize)
	}
	return nil
}

func checkType(t reflect.Type) error {
	switch kind := t.Kind(); kind {
	case reflect.Array:
		return checkType(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if err := checkType(field.Type); err != nil {
				return fmt.Errorf("field %s: %v", field.Name, err)
			}
		}
		return nil
	default:
		return checkNumericType(kind)
	}
}

func checkNumericType(kind reflect.Kind) error {
	if kind >= reflect.Bool && kind <= reflect.Complex128 {
		return nil
	}
	return fmt.Errorf("unsupported type %q", kind.String())
}

// ObjectData returns a copy of the object's underlying byte representation.
// If the object is a pointer, the value it points to is copied.
func ObjectData(object interface{}) ([]byte, error) {
	if err := CheckObjectReferences(object); err != nil {
		return nil, err
	}
	value := reflect.ValueOf(object)
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return nil, fmt.Errorf("nil object")
		}
		value = value.Elem()
	}
	// an addressable copy, so that we could take its address.
	tmp := reflect.New(value.Type())
	tmp.Elem().Set(value)
	size := int(value.Type().Size())
	data := make([]byte, size)
	if size > 0 {
		copy(data, unsafe.Slice((*byte)(tmp.UnsafePointer()), size))
	}
	return data, nil
}

// Alloc copies the memory into the object, which must be a non-nil pointer.
// The length of the memory must be equal to the size of the object.
func Alloc(memory []byte, object interface{}) error {
	value := reflect.ValueOf(object)
	if value.Kind() != reflect.Ptr || value.IsNil() {
		return fmt.Errorf("a non-nil pointer is required, got %T", object)
	}
	if err := CheckType(value.Type()); err != nil {
		return err
	}
	size := ObjectSize(value.Type())
	if size != len(memory) {
		return fmt.Errorf("size mismatch: %T needs %d bytes, got %d", object, size, len(memory))
	}
	if size > 0 {
		copy(unsafe.Slice((*byte)(value.UnsafePointer()), size), memory)
	}
	return nil
}
