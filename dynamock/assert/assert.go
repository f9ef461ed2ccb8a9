// Package assert provides fluent assertion utilities for testing amo items
// and the errors amo operations return.
//
// # Usage
//
//	import "github.com/nisimpson/amo/dynamock/assert"
//
//	// Assert on raw items, e.g. from dynamock.MemoryClient.Items
//	assert.Items(t, client.Items("tags")).
//		HasCount(3).
//		ContainsKey(amo.Item{"resource": ..., "key": ...}).
//		HasAttribute("value", "infra")
//
//	// Assert on a single item
//	assert.Marshals(t, tag).
//		HasString("key", "team").
//		Lacks("account")
//
//	// Assert on errors
//	assert.Error(t, err).
//		IsRead(amo.ReadDeserialize).
//		IsDeserialize(amo.MissingRequiredField).
//		HasField("value")
package assert

import (
	"errors"
	"maps"
	"reflect"
	"slices"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/amo"
)

// ItemsAssertion provides fluent assertions for a collection of items.
type ItemsAssertion struct {
	t     testing.TB
	items []amo.Item
}

// Items creates a new ItemsAssertion for the given items.
func Items(t testing.TB, items []amo.Item) *ItemsAssertion {
	return &ItemsAssertion{
		t:     t,
		items: items,
	}
}

// HasCount asserts that the items collection has the expected count.
func (a *ItemsAssertion) HasCount(expected int) *ItemsAssertion {
	a.t.Helper()
	if len(a.items) != expected {
		a.t.Errorf("expected %d items, got %d", expected, len(a.items))
	}
	return a
}

// IsEmpty asserts that the items collection is empty.
func (a *ItemsAssertion) IsEmpty() *ItemsAssertion {
	a.t.Helper()
	return a.HasCount(0)
}

// IsNotEmpty asserts that the items collection is not empty.
func (a *ItemsAssertion) IsNotEmpty() *ItemsAssertion {
	a.t.Helper()
	if len(a.items) == 0 {
		a.t.Error("expected items to not be empty")
	}
	return a
}

// ContainsKey asserts that some item carries every attribute of key with an
// equal value.
func (a *ItemsAssertion) ContainsKey(key amo.Item) *ItemsAssertion {
	a.t.Helper()
	for _, item := range a.items {
		if hasAll(item, key) {
			return a
		}
	}

	a.t.Errorf("expected to find item with key %v", slices.Sorted(maps.Keys(key)))
	return a
}

// HasAttribute asserts that at least one item has the specified S attribute
// with the expected value.
func (a *ItemsAssertion) HasAttribute(attributeName, expectedValue string) *ItemsAssertion {
	a.t.Helper()
	want := &types.AttributeValueMemberS{Value: expectedValue}
	for _, item := range a.items {
		if equalValue(item[attributeName], want) {
			return a
		}
	}

	a.t.Errorf("expected to find attribute %s with value %s in items", attributeName, expectedValue)
	return a
}

// Each runs an ItemAssertion over every item.
func (a *ItemsAssertion) Each(fn func(*ItemAssertion)) *ItemsAssertion {
	a.t.Helper()
	for _, item := range a.items {
		fn(Item(a.t, item))
	}
	return a
}

func hasAll(item, key amo.Item) bool {
	for name, want := range key {
		if !equalValue(item[name], want) {
			return false
		}
	}
	return true
}

func equalValue(got, want types.AttributeValue) bool {
	if got == nil {
		return false
	}
	return reflect.DeepEqual(got, want)
}

// ItemAssertion provides fluent assertions for a single item.
type ItemAssertion struct {
	t    testing.TB
	item amo.Item
}

// Item creates a new ItemAssertion for the given item.
func Item(t testing.TB, item amo.Item) *ItemAssertion {
	return &ItemAssertion{t: t, item: item}
}

// Marshals asserts that in marshals without error and returns an
// ItemAssertion over the result.
func Marshals(t testing.TB, in amo.ItemMarshaler) *ItemAssertion {
	t.Helper()
	item, err := amo.MarshalItem(in)
	if err != nil {
		t.Errorf("failed to marshal item: %v", err)
	}
	return Item(t, item)
}

// HasString asserts that the named attribute is S with the given value.
func (a *ItemAssertion) HasString(name, expected string) *ItemAssertion {
	a.t.Helper()
	return a.HasValue(name, &types.AttributeValueMemberS{Value: expected})
}

// HasNumber asserts that the named attribute is N with the given decimal text.
func (a *ItemAssertion) HasNumber(name, expected string) *ItemAssertion {
	a.t.Helper()
	return a.HasValue(name, &types.AttributeValueMemberN{Value: expected})
}

// HasValue asserts that the named attribute equals expected.
func (a *ItemAssertion) HasValue(name string, expected types.AttributeValue) *ItemAssertion {
	a.t.Helper()
	got, ok := a.item[name]
	switch {
	case !ok:
		a.t.Errorf("expected attribute %s, but it is absent", name)
	case !reflect.DeepEqual(got, expected):
		a.t.Errorf("attribute %s: expected %#v, got %#v", name, expected, got)
	}
	return a
}

// Lacks asserts that the named attribute is absent.
func (a *ItemAssertion) Lacks(name string) *ItemAssertion {
	a.t.Helper()
	if _, ok := a.item[name]; ok {
		a.t.Errorf("expected attribute %s to be absent", name)
	}
	return a
}

// HasAttributeCount asserts the number of attributes in the item.
func (a *ItemAssertion) HasAttributeCount(expected int) *ItemAssertion {
	a.t.Helper()
	if len(a.item) != expected {
		a.t.Errorf("expected %d attributes, got %d", expected, len(a.item))
	}
	return a
}

// Decodes asserts that the item unmarshals into out without error.
func (a *ItemAssertion) Decodes(out amo.ItemUnmarshaler) *ItemAssertion {
	a.t.Helper()
	if err := amo.UnmarshalItem(a.item, out); err != nil {
		a.t.Errorf("failed to unmarshal item: %v", err)
	}
	return a
}

// ErrorAssertion provides fluent assertions for errors returned by amo.
type ErrorAssertion struct {
	t   testing.TB
	err error
}

// Error creates a new ErrorAssertion. It fails immediately if err is nil.
func Error(t testing.TB, err error) *ErrorAssertion {
	t.Helper()
	if err == nil {
		t.Error("expected an error, got nil")
	}
	return &ErrorAssertion{t: t, err: err}
}

// Is asserts that errors.Is(err, target) holds.
func (a *ErrorAssertion) Is(target error) *ErrorAssertion {
	a.t.Helper()
	if !errors.Is(a.err, target) {
		a.t.Errorf("expected error matching %v, got %v", target, a.err)
	}
	return a
}

// IsRead asserts that the error is an *amo.ReadError of the given kind.
func (a *ErrorAssertion) IsRead(kind amo.ReadErrorKind) *ErrorAssertion {
	a.t.Helper()
	var re *amo.ReadError
	switch {
	case !errors.As(a.err, &re):
		a.t.Errorf("expected *amo.ReadError, got %T: %v", a.err, a.err)
	case re.Kind != kind:
		a.t.Errorf("expected read error kind %d, got %d", kind, re.Kind)
	}
	return a
}

// IsWrite asserts that the error is an *amo.WriteError of the given kind.
func (a *ErrorAssertion) IsWrite(kind amo.WriteErrorKind) *ErrorAssertion {
	a.t.Helper()
	var we *amo.WriteError
	switch {
	case !errors.As(a.err, &we):
		a.t.Errorf("expected *amo.WriteError, got %T: %v", a.err, a.err)
	case we.Kind != kind:
		a.t.Errorf("expected write error kind %d, got %d", kind, we.Kind)
	}
	return a
}

// IsDeserialize asserts that the error wraps an *amo.DeserializeError of
// the given kind.
func (a *ErrorAssertion) IsDeserialize(kind amo.DeserializeErrorKind) *ErrorAssertion {
	a.t.Helper()
	var de *amo.DeserializeError
	switch {
	case !errors.As(a.err, &de):
		a.t.Errorf("expected *amo.DeserializeError, got %T: %v", a.err, a.err)
	case de.Kind != kind:
		a.t.Errorf("expected %v, got %v", kind, de.Kind)
	}
	return a
}

// IsSerialize asserts that the error wraps an *amo.SerializeError.
func (a *ErrorAssertion) IsSerialize() *ErrorAssertion {
	a.t.Helper()
	var se *amo.SerializeError
	if !errors.As(a.err, &se) {
		a.t.Errorf("expected *amo.SerializeError, got %T: %v", a.err, a.err)
	}
	return a
}

// HasField asserts the attribute name recorded by the wrapped serialize or
// deserialize error.
func (a *ErrorAssertion) HasField(name string) *ErrorAssertion {
	a.t.Helper()
	var (
		de *amo.DeserializeError
		se *amo.SerializeError
	)
	switch {
	case errors.As(a.err, &de):
		if de.Field != name {
			a.t.Errorf("expected field %q, got %q", name, de.Field)
		}
	case errors.As(a.err, &se):
		if se.Field != name {
			a.t.Errorf("expected field %q, got %q", name, se.Field)
		}
	default:
		a.t.Errorf("expected a serialize or deserialize error, got %T: %v", a.err, a.err)
	}
	return a
}

// HasCode asserts the service error code behind the error.
func (a *ErrorAssertion) HasCode(code string) *ErrorAssertion {
	a.t.Helper()
	var (
		re *amo.ReadError
		we *amo.WriteError
	)
	var got string
	switch {
	case errors.As(a.err, &re):
		if ae, ok := re.APIError(); ok {
			got = ae.ErrorCode()
		}
	case errors.As(a.err, &we):
		if ae, ok := we.APIError(); ok {
			got = ae.ErrorCode()
		}
	}
	if got != code {
		a.t.Errorf("expected error code %q, got %q", code, got)
	}
	return a
}

// IsConditionFailed asserts that the error is a failed write condition.
func (a *ErrorAssertion) IsConditionFailed() *ErrorAssertion {
	a.t.Helper()
	if !amo.IsConditionFailed(a.err) {
		a.t.Errorf("expected conditional check failure, got %v", a.err)
	}
	return a
}
