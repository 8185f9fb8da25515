package annotation

import (
	"cmp"
	"fmt"
	"strings"
)

// Field is an orderable attribute of an annotation.
type Field int

const (
	Start Field = iota
	End
	Length
	Tag
	Priority
	Text
)

// canonical is the tie-break order of deterministic sorting: field names
// sorted alphabetically.
var canonical = []Field{End, Length, Priority, Start, Tag, Text}

var fieldNames = map[Field]string{
	Start:    "start_char",
	End:      "end_char",
	Length:   "length",
	Tag:      "tag",
	Priority: "priority",
	Text:     "text",
}

func (f Field) String() string { return fieldNames[f] }

// ParseField accepts the names used in configuration files.
func ParseField(name string) (Field, error) {
	for f, n := range fieldNames {
		if n == name {
			return f, nil
		}
	}
	switch name {
	case "start":
		return Start, nil
	case "end":
		return End, nil
	}
	return 0, fmt.Errorf("unknown annotation field %q", name)
}

// Value is one component of a sort key.
type Value struct {
	num   int
	str   string
	isStr bool
	desc  bool
}

// IntValue wraps an integer key component.
func IntValue(n int) Value { return Value{num: n} }

// StringValue wraps a string key component.
func StringValue(s string) Value { return Value{str: s, isStr: true} }

// Int returns the integer component.
func (v Value) Int() int { return v.num }

// Str returns the string component.
func (v Value) Str() string { return v.str }

// Compare orders two values of the same field.
func (v Value) Compare(o Value) int {
	var c int
	if v.isStr {
		c = strings.Compare(v.str, o.str)
	} else {
		c = cmp.Compare(v.num, o.num)
	}
	if v.desc {
		return -c
	}
	return c
}

// Callback transforms a key component before comparison.
type Callback func(Value) Value

// Reverse sorts a field in descending order. For integers it is the same as
// negating the value.
func Reverse(v Value) Value {
	v.desc = !v.desc
	return v
}

func fieldValue(a Annotation, f Field) Value {
	switch f {
	case Start:
		return IntValue(a.start)
	case End:
		return IntValue(a.end)
	case Length:
		return IntValue(len(a.text))
	case Tag:
		return StringValue(a.tag)
	case Priority:
		return IntValue(a.priority)
	case Text:
		return StringValue(a.text)
	}
	panic(fmt.Sprintf("annotation: unknown field %d", f))
}

// Order describes how to sort annotations.
type Order struct {
	by            []Field
	callbacks     map[Field]Callback
	deterministic bool
}

// OrderBy sorts by the given fields, breaking remaining ties with every other
// field in canonical order so that distinct annotations never compare equal.
func OrderBy(fields ...Field) Order {
	return Order{by: fields, deterministic: true}
}

// WithCallback returns a copy of o that transforms f with cb.
func (o Order) WithCallback(f Field, cb Callback) Order {
	cbs := make(map[Field]Callback, len(o.callbacks)+1)
	for k, v := range o.callbacks {
		cbs[k] = v
	}
	cbs[f] = cb
	o.callbacks = cbs
	return o
}

// Loose returns a copy of o that compares only the listed fields.
func (o Order) Loose() Order {
	o.deterministic = false
	return o
}

// Strict returns a copy of o that breaks ties on all remaining fields.
func (o Order) Strict() Order {
	o.deterministic = true
	return o
}

// Fields returns the fields compared by o, in order.
func (o Order) Fields() []Field {
	fields := append([]Field(nil), o.by...)
	if !o.deterministic {
		return fields
	}
	for _, f := range canonical {
		if !containsField(o.by, f) {
			fields = append(fields, f)
		}
	}
	return fields
}

func containsField(fields []Field, f Field) bool {
	for _, x := range fields {
		if x == f {
			return true
		}
	}
	return false
}

// SortKey computes the comparison key of a.
func (o Order) SortKey(a Annotation) []Value {
	fields := o.Fields()
	key := make([]Value, len(fields))
	for i, f := range fields {
		v := fieldValue(a, f)
		if i < len(o.by) {
			if cb, ok := o.callbacks[f]; ok {
				v = cb(v)
			}
		}
		key[i] = v
	}
	return key
}

// CompareKeys orders two keys computed by the same Order.
func CompareKeys(a, b []Value) int {
	for i := range a {
		if c := a[i].Compare(b[i]); c != 0 {
			return c
		}
	}
	return 0
}
