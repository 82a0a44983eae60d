package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"reflect"
)

const tagName = "wire"

// Marshal encodes the tagged fields of a struct in declaration order.
// Supported tags: varint, i64, f32, f64, bool, string.
func Marshal(v any) ([]byte, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("marshal: expected struct, got %s", rv.Kind())
	}

	var buf bytes.Buffer
	t := rv.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		tag := field.Tag.Get(tagName)
		if tag == "" || tag == "-" {
			continue
		}

		if err := WriteField(&buf, tag, rv.Field(i).Interface()); err != nil {
			return nil, fmt.Errorf("marshal field %s: %w", field.Name, err)
		}
	}

	return buf.Bytes(), nil
}

// Unmarshal decodes data into the tagged fields of the struct v points to.
func Unmarshal(data []byte, v any) error {
	return Decode(bytes.NewReader(data), v)
}

// Decode reads the tagged fields of the struct v points to from r, leaving
// any trailing bytes unread.
func Decode(r io.Reader, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("unmarshal: expected non-nil pointer, got %T", v)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("unmarshal: expected pointer to struct, got pointer to %s", rv.Kind())
	}

	t := rv.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		tag := field.Tag.Get(tagName)
		if tag == "" || tag == "-" {
			continue
		}

		val, err := ReadField(r, tag)
		if err != nil {
			return fmt.Errorf("unmarshal field %s: %w", field.Name, err)
		}

		fv := rv.Field(i)
		vv := reflect.ValueOf(val)
		if !vv.Type().AssignableTo(fv.Type()) {
			return fmt.Errorf("unmarshal field %s: cannot assign %s to %s", field.Name, vv.Type(), fv.Type())
		}
		fv.Set(vv)
	}

	return nil
}

// WriteField encodes one value for a field tag: varint (int32), i64 (int64),
// f32 (float32), f64 (float64), bool (one byte) or string (varint length and
// bytes). val must have the Go type its tag names.
func WriteField(w io.Writer, tag string, val any) error {
	switch tag {
	case "varint":
		_, err := WriteVarInt(w, val.(int32))
		return err
	case "i64":
		return binary.Write(w, binary.BigEndian, val.(int64))
	case "f32":
		return binary.Write(w, binary.BigEndian, val.(float32))
	case "f64":
		return binary.Write(w, binary.BigEndian, val.(float64))
	case "bool":
		var b uint8
		if val.(bool) {
			b = 1
		}
		return binary.Write(w, binary.BigEndian, b)
	case "string":
		_, err := WriteString(w, val.(string))
		return err
	default:
		return fmt.Errorf("unknown field tag: %q", tag)
	}
}

// ReadField decodes one value for a field tag. The dynamic type of the result
// is the one WriteField expects for the same tag.
func ReadField(r io.Reader, tag string) (any, error) {
	switch tag {
	case "varint":
		v, _, err := ReadVarInt(r)
		return v, err
	case "i64":
		return ReadI64(r)
	case "f32":
		return ReadF32(r)
	case "f64":
		return ReadF64(r)
	case "bool":
		return ReadBool(r)
	case "string":
		return ReadString(r)
	default:
		return nil, fmt.Errorf("unknown field tag: %q", tag)
	}
}
