// Package layout decodes fixed-size on-chain account buffers from a declarative
// field list. A Schema is an ordered sequence of fields, each with an explicit
// byte width and byte order; decoding is all-or-nothing.
package layout

import (
	"encoding/binary"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ErrShortBuffer is returned when a buffer is smaller than the schema size.
var ErrShortBuffer = errors.New("buffer shorter than layout")

// FieldType identifies how a field's bytes are interpreted.
type FieldType uint8

const (
	TypePadding FieldType = iota
	TypeUint
	TypePublicKey
)

// Field is a single entry of a Schema.
type Field struct {
	Name  string
	Type  FieldType
	Width int
	Order binary.ByteOrder
}

func Padding(width int) Field {
	return Field{Type: TypePadding, Width: width}
}

func U8(name string) Field {
	return Field{Name: name, Type: TypeUint, Width: 1, Order: binary.LittleEndian}
}

func U16LE(name string) Field {
	return Field{Name: name, Type: TypeUint, Width: 2, Order: binary.LittleEndian}
}

func U32LE(name string) Field {
	return Field{Name: name, Type: TypeUint, Width: 4, Order: binary.LittleEndian}
}

func U64LE(name string) Field {
	return Field{Name: name, Type: TypeUint, Width: 8, Order: binary.LittleEndian}
}

func PublicKey(name string) Field {
	return Field{Name: name, Type: TypePublicKey, Width: solana.PublicKeyLength}
}

// Schema is a named, ordered list of fields.
type Schema struct {
	Name    string
	fields  []Field
	offsets map[string]int
	size    int
}

// NewSchema validates the field list and precomputes offsets. It panics on
// malformed definitions since schemas are package-level declarations.
func NewSchema(name string, fields ...Field) *Schema {
	s := &Schema{
		Name:    name,
		fields:  append([]Field(nil), fields...),
		offsets: make(map[string]int, len(fields)),
	}

	for _, f := range fields {
		if err := f.validate(); err != nil {
			panic(fmt.Sprintf("layout %s: %v", name, err))
		}
		if f.Name != "" {
			if _, dup := s.offsets[f.Name]; dup {
				panic(fmt.Sprintf("layout %s: duplicate field %q", name, f.Name))
			}
			s.offsets[f.Name] = s.size
		}
		s.size += f.Width
	}

	return s
}

// Extend returns a new schema with extra fields appended.
func (s *Schema) Extend(name string, fields ...Field) *Schema {
	all := make([]Field, 0, len(s.fields)+len(fields))
	all = append(all, s.fields...)
	all = append(all, fields...)
	return NewSchema(name, all...)
}

// Size is the minimum buffer length the schema needs.
func (s *Schema) Size() int { return s.size }

// Offset returns the byte offset of a named field.
func (s *Schema) Offset(name string) (int, bool) {
	off, ok := s.offsets[name]
	return off, ok
}

// MustOffset is Offset for fields known to exist.
func (s *Schema) MustOffset(name string) int {
	off, ok := s.offsets[name]
	if !ok {
		panic(fmt.Sprintf("layout %s: unknown field %q", s.Name, name))
	}
	return off
}

// Decode reads every field of the schema from the start of data. Trailing
// bytes beyond Size are ignored.
func (s *Schema) Decode(data []byte) (Record, error) {
	if len(data) < s.size {
		return Record{}, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortBuffer, s.Name, s.size, len(data))
	}

	rec := Record{
		schema: s.Name,
		uints:  make(map[string]uint64),
		keys:   make(map[string]solana.PublicKey),
	}

	dec := bin.NewBinDecoder(data[:s.size])
	for _, f := range s.fields {
		if err := rec.read(dec, f); err != nil {
			return Record{}, fmt.Errorf("%s.%s: %w", s.Name, f.Name, err)
		}
	}

	return rec, nil
}

func (f Field) validate() error {
	switch f.Type {
	case TypePadding:
		if f.Width <= 0 {
			return fmt.Errorf("padding width must be > 0")
		}
	case TypeUint:
		switch f.Width {
		case 1, 2, 4, 8:
		default:
			return fmt.Errorf("field %q: unsupported uint width %d", f.Name, f.Width)
		}
		if f.Order == nil {
			return fmt.Errorf("field %q: byte order required", f.Name)
		}
	case TypePublicKey:
		if f.Width != solana.PublicKeyLength {
			return fmt.Errorf("field %q: public key must be %d bytes", f.Name, solana.PublicKeyLength)
		}
	default:
		return fmt.Errorf("field %q: unknown type %d", f.Name, f.Type)
	}
	if f.Type != TypePadding && f.Name == "" {
		return fmt.Errorf("non-padding field needs a name")
	}
	return nil
}

// Record holds decoded field values keyed by field name.
type Record struct {
	schema string
	uints  map[string]uint64
	keys   map[string]solana.PublicKey
}

// Schema returns the name of the schema the record was decoded with.
func (r Record) Schema() string { return r.schema }

// Uint returns an unsigned integer field; missing names yield zero.
func (r Record) Uint(name string) uint64 { return r.uints[name] }

// PublicKey returns a 32-byte identifier field; missing names yield the zero key.
func (r Record) PublicKey(name string) solana.PublicKey { return r.keys[name] }

// Has reports whether the record contains the named field.
func (r Record) Has(name string) bool {
	if _, ok := r.uints[name]; ok {
		return true
	}
	_, ok := r.keys[name]
	return ok
}

func (r Record) read(dec *bin.Decoder, f Field) error {
	switch f.Type {
	case TypePadding:
		return dec.SkipBytes(uint(f.Width))
	case TypePublicKey:
		raw, err := dec.ReadNBytes(f.Width)
		if err != nil {
			return err
		}
		var pk solana.PublicKey
		copy(pk[:], raw)
		r.keys[f.Name] = pk
		return nil
	case TypeUint:
		v, err := readUint(dec, f)
		if err != nil {
			return err
		}
		r.uints[f.Name] = v
		return nil
	}
	return fmt.Errorf("unknown field type %d", f.Type)
}

func readUint(dec *bin.Decoder, f Field) (uint64, error) {
	switch f.Width {
	case 1:
		v, err := dec.ReadUint8()
		return uint64(v), err
	case 2:
		v, err := dec.ReadUint16(f.Order)
		return uint64(v), err
	case 4:
		v, err := dec.ReadUint32(f.Order)
		return uint64(v), err
	default:
		return dec.ReadUint64(f.Order)
	}
}
