package attribute

import "reflect"

// deepCopy copies a cast value so the copy shares no mutable state with v
func deepCopy(typ Type, v interface{}) interface{} {
	if c, ok := typ.(Copier); ok {
		return c.DeepCopy(v)
	}
	if v == nil {
		return nil
	}
	return copyValue(reflect.ValueOf(v)).Interface()
}

// copyValue recursively copies pointers, slices, maps and interfaces.
// Structs are copied by value with their exported fields copied deeply;
// unexported fields are shared.
func copyValue(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		c := reflect.New(v.Elem().Type())
		c.Elem().Set(copyValue(v.Elem()))
		return c
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		c := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			c.Index(i).Set(copyValue(v.Index(i)))
		}
		return c
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		c := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			c.SetMapIndex(iter.Key(), copyValue(iter.Value()))
		}
		return c
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		c := reflect.New(v.Type()).Elem()
		c.Set(copyValue(v.Elem()))
		return c
	case reflect.Struct:
		c := reflect.New(v.Type()).Elem()
		c.Set(v)
		for i := 0; i < c.NumField(); i++ {
			if f := c.Field(i); f.CanSet() {
				f.Set(copyValue(f))
			}
		}
		return c
	default:
		return v
	}
}
