// Package gbf implements the GBF container codec: a binary format for
// hierarchical scientific data (n-dimensional numeric arrays, logical and
// character arrays, nullable strings, datetime/duration/categorical arrays,
// and nested named record trees of these leaves), plus the reader and
// writer that serialize them.
package gbf

import (
	"strings"

	"github.com/scigolib/gbf/internal/gbferrs"
	"github.com/scigolib/gbf/internal/utils"
)

// Kind identifies a Value's variant. It is also the literal string stored
// in a field's "kind" entry in the header's field table (EmptyStruct is
// the only leaf that reports kind "struct").
type Kind string

const (
	KindStruct            Kind = "struct"
	KindNumeric           Kind = "numeric"
	KindLogical           Kind = "logical"
	KindChar              Kind = "char"
	KindString            Kind = "string"
	KindDateTime          Kind = "datetime"
	KindDuration          Kind = "duration"
	KindCalendarDuration  Kind = "calendar_duration"
	KindCategorical       Kind = "categorical"
)

// NumericClass enumerates the supported element types of a Numeric value.
type NumericClass string

const (
	ClassDouble NumericClass = "double"
	ClassSingle NumericClass = "single"
	ClassInt8   NumericClass = "int8"
	ClassInt16  NumericClass = "int16"
	ClassInt32  NumericClass = "int32"
	ClassInt64  NumericClass = "int64"
	ClassUint8  NumericClass = "uint8"
	ClassUint16 NumericClass = "uint16"
	ClassUint32 NumericClass = "uint32"
	ClassUint64 NumericClass = "uint64"
)

// BytesPerElement returns the on-disk element width for a numeric class, or
// an error if the class is not one of the ten supported classes.
func BytesPerElement(class NumericClass) (int, error) {
	switch class {
	case ClassDouble, ClassInt64, ClassUint64:
		return 8, nil
	case ClassSingle, ClassInt32, ClassUint32:
		return 4, nil
	case ClassInt16, ClassUint16:
		return 2, nil
	case ClassInt8, ClassUint8:
		return 1, nil
	default:
		return 0, gbferrs.UnsupportedError("unknown numeric class " + string(class))
	}
}

// Value is the closed tagged union described by spec.md §3: a record tree
// (Struct/EmptyStruct) whose leaves are typed arrays.
type Value struct {
	kind Kind

	// Struct
	fields      map[string]*Value
	emptyStruct bool

	// Numeric
	class   NumericClass
	shape   []uint64
	complex bool
	realLE  []byte
	imagLE  []byte

	// Logical
	logicalData []byte

	// Char
	charData []uint16

	// String
	stringData []*string

	// DateTime
	tz     *string
	locale *string
	format *string
	isNaT  []bool
	year   []int16
	month  []uint8
	day    []uint8
	msDay  []int32

	// Duration
	isNaN  []bool
	ms     []int64

	// CalendarDuration
	isMissing []bool
	months    []int32
	days      []int32
	timeMs    []int64

	// Categorical
	categories []string
	codes      []uint32
}

// Kind reports the value's variant.
func (v *Value) Kind() Kind { return v.kind }

// IsStruct reports whether v is a (possibly empty) record.
func (v *Value) IsStruct() bool { return v.kind == KindStruct }

// IsEmptyStruct reports whether v is the distinguished empty record.
func (v *Value) IsEmptyStruct() bool { return v.kind == KindStruct && v.emptyStruct }

// Fields returns the record's named children. Only valid when IsStruct().
func (v *Value) Fields() map[string]*Value { return v.fields }

// Shape returns the value's dimensions (leaves only).
func (v *Value) Shape() []uint64 { return v.shape }

func validateShapeLen(shape []uint64, length, elemsPerUnit int, what string) error {
	n, err := utils.ElementCount(shape)
	if err != nil {
		return gbferrs.FormatError(what+": invalid shape", err)
	}
	want := n * uint64(elemsPerUnit)
	if uint64(length) != want {
		return gbferrs.FormatError(what, gbferrs.FieldSizeMismatch(what, want, uint64(length)))
	}
	return nil
}

// NewStruct builds a record from named children. Keys containing "." are
// rejected per spec.md invariant 4 (dotted paths must round-trip).
func NewStruct(fields map[string]*Value) (*Value, error) {
	for name := range fields {
		if strings.Contains(name, ".") {
			return nil, gbferrs.FormatError("struct field name "+name+" must not contain '.'", nil)
		}
	}
	clone := make(map[string]*Value, len(fields))
	for k, v := range fields {
		clone[k] = v
	}
	return &Value{kind: KindStruct, fields: clone}, nil
}

// NewEmptyStruct builds the distinguished empty record (serializes as a
// single zero-byte leaf, shape [1,1], encoding "empty-scalar-struct").
func NewEmptyStruct() *Value {
	return &Value{kind: KindStruct, fields: map[string]*Value{}, emptyStruct: true}
}

// NewNumeric builds a Numeric leaf. realLE/imagLE are little-endian packed
// element bytes; imagLE must be nil unless complex is true.
func NewNumeric(class NumericClass, shape []uint64, complexVal bool, realLE, imagLE []byte) (*Value, error) {
	bpe, err := BytesPerElement(class)
	if err != nil {
		return nil, err
	}
	if err := validateShapeLen(shape, len(realLE), bpe, "numeric real_le"); err != nil {
		return nil, err
	}
	if complexVal {
		if imagLE == nil {
			return nil, gbferrs.FormatError("complex numeric requires imag_le", nil)
		}
		if len(imagLE) != len(realLE) {
			return nil, gbferrs.FieldSizeMismatch("numeric imag_le", uint64(len(realLE)), uint64(len(imagLE)))
		}
	} else if imagLE != nil {
		return nil, gbferrs.FormatError("non-complex numeric must not carry imag_le", nil)
	}

	return &Value{
		kind: KindNumeric, class: class, shape: append([]uint64(nil), shape...),
		complex: complexVal, realLE: append([]byte(nil), realLE...), imagLE: cloneBytes(imagLE),
	}, nil
}

// NumericClass returns the element class of a Numeric value.
func (v *Value) NumericClass() NumericClass { return v.class }

// IsComplex reports whether a Numeric value carries an imaginary component.
func (v *Value) IsComplex() bool { return v.complex }

// RealLE returns the little-endian packed real component bytes.
func (v *Value) RealLE() []byte { return v.realLE }

// ImagLE returns the little-endian packed imaginary component bytes, or nil.
func (v *Value) ImagLE() []byte { return v.imagLE }

// NewLogical builds a Logical leaf: one byte (0/1) per element.
func NewLogical(shape []uint64, data []byte) (*Value, error) {
	if err := validateShapeLen(shape, len(data), 1, "logical data"); err != nil {
		return nil, err
	}
	return &Value{kind: KindLogical, shape: append([]uint64(nil), shape...), logicalData: append([]byte(nil), data...)}, nil
}

// LogicalData returns the per-element 0/1 bytes.
func (v *Value) LogicalData() []byte { return v.logicalData }

// NewChar builds a Char leaf: UTF-16 code units, column-major.
func NewChar(shape []uint64, data []uint16) (*Value, error) {
	if err := validateShapeLen(shape, len(data), 1, "char data"); err != nil {
		return nil, err
	}
	return &Value{kind: KindChar, shape: append([]uint64(nil), shape...), charData: append([]uint16(nil), data...)}, nil
}

// CharData returns the UTF-16 code units.
func (v *Value) CharData() []uint16 { return v.charData }

// NewString builds a nullable UTF-8 String leaf.
func NewString(shape []uint64, data []*string) (*Value, error) {
	if err := validateShapeLen(shape, len(data), 1, "string data"); err != nil {
		return nil, err
	}
	clone := make([]*string, len(data))
	copy(clone, data)
	return &Value{kind: KindString, shape: append([]uint64(nil), shape...), stringData: clone}, nil
}

// StringData returns the nullable string elements.
func (v *Value) StringData() []*string { return v.stringData }

// NewDateTime builds a DateTime leaf.
func NewDateTime(shape []uint64, tz, locale, format *string, isNaT []bool, year []int16, month, day []uint8, msDay []int32) (*Value, error) {
	n, err := utils.ElementCount(shape)
	if err != nil {
		return nil, gbferrs.FormatError("datetime: invalid shape", err)
	}
	for name, length := range map[string]int{
		"is_nat": len(isNaT), "year": len(year), "month": len(month), "day": len(day), "ms_day": len(msDay),
	} {
		if uint64(length) != n {
			return nil, gbferrs.FieldSizeMismatch("datetime."+name, n, uint64(length))
		}
	}
	return &Value{
		kind: KindDateTime, shape: append([]uint64(nil), shape...),
		tz: clonePtr(tz), locale: clonePtr(locale), format: clonePtr(format),
		isNaT: append([]bool(nil), isNaT...), year: append([]int16(nil), year...),
		month: append([]uint8(nil), month...), day: append([]uint8(nil), day...),
		msDay: append([]int32(nil), msDay...),
	}, nil
}

// TZ returns the optional timezone name.
func (v *Value) TZ() *string { return v.tz }

// Locale returns the optional locale tag.
func (v *Value) Locale() *string { return v.locale }

// Format returns the optional display format string.
func (v *Value) Format() *string { return v.format }

// IsNaT returns the per-element "not a time" mask.
func (v *Value) IsNaT() []bool { return v.isNaT }

// Year, Month, Day, MsDay return the packed calendar components.
func (v *Value) Year() []int16  { return v.year }
func (v *Value) Month() []uint8 { return v.month }
func (v *Value) Day() []uint8   { return v.day }
func (v *Value) MsDay() []int32 { return v.msDay }

// NewDuration builds a Duration leaf (milliseconds since epoch-relative span).
func NewDuration(shape []uint64, isNaN []bool, ms []int64) (*Value, error) {
	n, err := utils.ElementCount(shape)
	if err != nil {
		return nil, gbferrs.FormatError("duration: invalid shape", err)
	}
	if uint64(len(isNaN)) != n || uint64(len(ms)) != n {
		return nil, gbferrs.FieldSizeMismatch("duration", n, uint64(len(ms)))
	}
	return &Value{kind: KindDuration, shape: append([]uint64(nil), shape...), isNaN: append([]bool(nil), isNaN...), ms: append([]int64(nil), ms...)}, nil
}

// IsNaN returns the per-element "not a number" mask for a Duration.
func (v *Value) IsNaN() []bool { return v.isNaN }

// Ms returns a Duration's millisecond magnitudes.
func (v *Value) Ms() []int64 { return v.ms }

// NewCalendarDuration builds a CalendarDuration leaf.
func NewCalendarDuration(shape []uint64, isMissing []bool, months, days []int32, timeMs []int64) (*Value, error) {
	n, err := utils.ElementCount(shape)
	if err != nil {
		return nil, gbferrs.FormatError("calendar_duration: invalid shape", err)
	}
	for name, length := range map[string]int{
		"is_missing": len(isMissing), "months": len(months), "days": len(days), "time_ms": len(timeMs),
	} {
		if uint64(length) != n {
			return nil, gbferrs.FieldSizeMismatch("calendar_duration."+name, n, uint64(length))
		}
	}
	return &Value{
		kind: KindCalendarDuration, shape: append([]uint64(nil), shape...),
		isMissing: append([]bool(nil), isMissing...), months: append([]int32(nil), months...),
		days: append([]int32(nil), days...), timeMs: append([]int64(nil), timeMs...),
	}, nil
}

// IsMissing returns the per-element missing mask for a CalendarDuration.
func (v *Value) IsMissing() []bool { return v.isMissing }

// Months, Days, TimeMs return a CalendarDuration's packed components.
func (v *Value) Months() []int32 { return v.months }
func (v *Value) Days() []int32   { return v.days }
func (v *Value) TimeMs() []int64 { return v.timeMs }

// NewCategorical builds a Categorical leaf. Code 0 means undefined; codes
// k in [1, len(categories)] select categories[k-1]. Range validity of the
// codes is not checked here (spec.md §9: the reference decoder tolerates
// out-of-range codes on non-validating reads) — use ValidateCategorical
// to check invariant 3 explicitly.
func NewCategorical(shape []uint64, categories []string, codes []uint32) (*Value, error) {
	n, err := utils.ElementCount(shape)
	if err != nil {
		return nil, gbferrs.FormatError("categorical: invalid shape", err)
	}
	if uint64(len(codes)) != n {
		return nil, gbferrs.FieldSizeMismatch("categorical.codes", n, uint64(len(codes)))
	}
	return &Value{
		kind: KindCategorical, shape: append([]uint64(nil), shape...),
		categories: append([]string(nil), categories...), codes: append([]uint32(nil), codes...),
	}, nil
}

// ValidateCategorical checks invariant 3: every code is 0 or within
// [1, len(categories)]. The writer calls this unconditionally (the
// invariant "must hold on encode"); the reader calls it only when reading
// with validation enabled.
func ValidateCategorical(v *Value) error {
	if v.Kind() != KindCategorical {
		return nil
	}
	for _, c := range v.codes {
		if c != 0 && int(c) > len(v.categories) {
			return gbferrs.FormatError("categorical code out of range", nil)
		}
	}
	return nil
}

// Categories returns the dictionary of category names.
func (v *Value) Categories() []string { return v.categories }

// Codes returns the per-element dictionary codes (0 = undefined).
func (v *Value) Codes() []uint32 { return v.codes }

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
