package amo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

var (
	// ErrMissingRequiredField matches a [DeserializeError] for an absent field.
	ErrMissingRequiredField = errors.New("missing required field")
	// ErrUnexpectedValueType matches a [DeserializeError] for a wrongly tagged value.
	ErrUnexpectedValueType = errors.New("unexpected value type")
	// ErrInvalidValue matches a [DeserializeError] for a well tagged but unusable value.
	ErrInvalidValue = errors.New("invalid value")
	// ErrDuplicateField matches a [DeserializeError] for a field given twice.
	ErrDuplicateField = errors.New("duplicate field")
	// ErrOperationSent is returned when an operation is sent a second time.
	ErrOperationSent = errors.New("operation already sent")
)

// SerializeError reports an in-memory value that cannot produce the raw
// representation its attribute type requires. Built-in values never fail;
// custom values may.
type SerializeError struct {
	Field string // Attribute name, when known
	Msg   string
	Err   error
}

// NewSerializeError creates a SerializeError with a formatted message.
func NewSerializeError(format string, args ...any) *SerializeError {
	return &SerializeError{Msg: fmt.Sprintf(format, args...)}
}

func (e *SerializeError) Error() string {
	var buf strings.Builder
	buf.WriteString("serialize")
	e.describe(&buf)
	return buf.String()
}

// describe writes everything after the "serialize" prefix, so a wrapped
// SerializeError reads as a single one.
func (e *SerializeError) describe(buf *strings.Builder) {
	if e.Field != "" {
		buf.WriteString(" field ")
		buf.WriteString(e.Field)
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	if inner, ok := e.Err.(*SerializeError); ok {
		inner.describe(buf)
	} else if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
}

func (e *SerializeError) Unwrap() error {
	return e.Err
}

// asSerializeError returns err as a SerializeError naming field. A
// SerializeError without a field is wrapped, not copied, so errors.Is still
// finds the value the caller returned.
func asSerializeError(field string, err error) *SerializeError {
	var se *SerializeError
	if errors.As(err, &se) && (se.Field != "" || field == "") {
		return se
	}
	return &SerializeError{Field: field, Err: err}
}

// DeserializeErrorKind classifies a [DeserializeError].
type DeserializeErrorKind int

const (
	MissingRequiredField DeserializeErrorKind = iota + 1
	UnexpectedValueType
	Invalid
	DuplicateField
)

func (k DeserializeErrorKind) String() string {
	switch k {
	case MissingRequiredField:
		return "missing required field"
	case UnexpectedValueType:
		return "unexpected value type"
	case Invalid:
		return "invalid value"
	case DuplicateField:
		return "duplicate field"
	}
	return fmt.Sprintf("DeserializeErrorKind(%d)", int(k))
}

// DeserializeError reports a wire value that cannot be turned into its
// domain value.
type DeserializeError struct {
	Kind     DeserializeErrorKind
	ItemType string               // MissingRequiredField, DuplicateField
	Field    string               // Attribute name, when known
	Expected string               // UnexpectedValueType: expected attribute type name
	Actual   types.AttributeValue // UnexpectedValueType: the value as received
	Msg      string               // Invalid
	Err      error
}

// MissingFieldError reports that a required field is absent from an item.
func MissingFieldError(itemType, field string) *DeserializeError {
	return &DeserializeError{Kind: MissingRequiredField, ItemType: itemType, Field: field}
}

// UnexpectedTypeError reports a value whose discriminant is not expected.
func UnexpectedTypeError(expected string, actual types.AttributeValue) *DeserializeError {
	return &DeserializeError{Kind: UnexpectedValueType, Expected: expected, Actual: actual}
}

// InvalidValueError reports a correctly tagged value with unusable contents.
func InvalidValueError(format string, args ...any) *DeserializeError {
	return &DeserializeError{Kind: Invalid, Msg: fmt.Sprintf(format, args...)}
}

func (e *DeserializeError) Error() string {
	var buf strings.Builder
	buf.WriteString("deserialize")
	if e.ItemType != "" {
		buf.WriteString(" ")
		buf.WriteString(e.ItemType)
	}
	if e.Field != "" {
		buf.WriteString(" field ")
		buf.WriteString(e.Field)
	}
	buf.WriteString(": ")
	buf.WriteString(e.Kind.String())
	switch e.Kind {
	case UnexpectedValueType:
		fmt.Fprintf(&buf, ": expected %s, got %s", e.Expected, describeValue(e.Actual))
	case Invalid:
		if e.Msg != "" {
			buf.WriteString(": ")
			buf.WriteString(e.Msg)
		}
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

func (e *DeserializeError) Unwrap() error {
	return e.Err
}

// Is matches the package sentinels by kind.
func (e *DeserializeError) Is(target error) bool {
	switch target {
	case ErrMissingRequiredField:
		return e.Kind == MissingRequiredField
	case ErrUnexpectedValueType:
		return e.Kind == UnexpectedValueType
	case ErrInvalidValue:
		return e.Kind == Invalid
	case ErrDuplicateField:
		return e.Kind == DuplicateField
	}
	return false
}

// withField returns a copy of e naming field, unless a field is already set.
func (e *DeserializeError) withField(field string) *DeserializeError {
	if e.Field != "" {
		return e
	}
	cp := *e
	cp.Field = field
	return &cp
}

// asDeserializeError returns err as a DeserializeError, treating foreign
// errors as invalid values.
func asDeserializeError(err error) *DeserializeError {
	var de *DeserializeError
	if errors.As(err, &de) {
		return de
	}
	return &DeserializeError{Kind: Invalid, Err: err}
}

// describeValue renders the discriminant and a short form of av.
func describeValue(av types.AttributeValue) string {
	switch v := av.(type) {
	case nil:
		return "<nil>"
	case *types.AttributeValueMemberS:
		return fmt.Sprintf("S(%q)", v.Value)
	case *types.AttributeValueMemberN:
		return fmt.Sprintf("N(%s)", v.Value)
	case *types.AttributeValueMemberB:
		return fmt.Sprintf("B(%d bytes)", len(v.Value))
	case *types.AttributeValueMemberBOOL:
		return fmt.Sprintf("BOOL(%t)", v.Value)
	case *types.AttributeValueMemberNULL:
		return "NULL"
	case *types.AttributeValueMemberM:
		return fmt.Sprintf("M(%d entries)", len(v.Value))
	case *types.AttributeValueMemberL:
		return fmt.Sprintf("L(%d elements)", len(v.Value))
	case *types.AttributeValueMemberSS:
		return fmt.Sprintf("SS(%d)", len(v.Value))
	case *types.AttributeValueMemberNS:
		return fmt.Sprintf("NS(%d)", len(v.Value))
	case *types.AttributeValueMemberBS:
		return fmt.Sprintf("BS(%d)", len(v.Value))
	}
	return fmt.Sprintf("%T", av)
}

// ReadErrorKind classifies a [ReadError].
type ReadErrorKind int

const (
	// ReadTransport is a failure of the remote call itself.
	ReadTransport ReadErrorKind = iota + 1
	// ReadDeserialize is a response that could not be decoded.
	ReadDeserialize
	// ReadSerialize is a request that could not be encoded; no call was made.
	ReadSerialize
)

// ReadError is returned by read operations (GetItem, Query, Scan).
// Err holds the transport error, *DeserializeError or *SerializeError.
type ReadError struct {
	Kind  ReadErrorKind
	Op    string
	Table string
	Err   error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// APIError returns the service error behind a transport failure, if any.
func (e *ReadError) APIError() (smithy.APIError, bool) {
	return apiError(e.Err)
}

// WriteErrorKind classifies a [WriteError].
type WriteErrorKind int

const (
	// WriteTransport is a failure of the remote call itself.
	WriteTransport WriteErrorKind = iota + 1
	// WriteSerialize is a request that could not be encoded; no call was made.
	WriteSerialize
)

// WriteError is returned by write operations (PutItem, DeleteItem).
type WriteError struct {
	Kind  WriteErrorKind
	Op    string
	Table string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// APIError returns the service error behind a transport failure, if any.
func (e *WriteError) APIError() (smithy.APIError, bool) {
	return apiError(e.Err)
}

func apiError(err error) (smithy.APIError, bool) {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsConditionFailed reports whether err was caused by a failed condition
// expression on a write.
func IsConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
