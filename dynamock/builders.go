package dynamock

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/amo"
)

// ItemOption is a functional option for configuring items during building.
type ItemOption func(*ItemBuilder)

// ItemBuilder provides item building through functional options only.
type ItemBuilder struct {
	*TestItem
}

// NewItem creates a new item builder with the given options applied.
func NewItem(opts ...ItemOption) *ItemBuilder {
	builder := &ItemBuilder{
		TestItem: &TestItem{Item: make(amo.Item)},
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder
}

// Build creates a TestItem from the builder configuration.
func (b *ItemBuilder) Build() *TestItem {
	return &TestItem{Item: maps.Clone(b.Item)}
}

// Functional Options

// WithString sets an S attribute.
func WithString(name, value string) ItemOption {
	return func(b *ItemBuilder) {
		b.Item[name] = &types.AttributeValueMemberS{Value: value}
	}
}

// WithNumber sets an N attribute.
func WithNumber(name string, value int64) ItemOption {
	return func(b *ItemBuilder) {
		b.Item[name] = &types.AttributeValueMemberN{Value: strconv.FormatInt(value, 10)}
	}
}

// WithBinary sets a B attribute.
func WithBinary(name string, value []byte) ItemOption {
	return func(b *ItemBuilder) {
		b.Item[name] = &types.AttributeValueMemberB{Value: value}
	}
}

// WithBool sets a BOOL attribute.
func WithBool(name string, value bool) ItemOption {
	return func(b *ItemBuilder) {
		b.Item[name] = &types.AttributeValueMemberBOOL{Value: value}
	}
}

// WithNull sets a NULL attribute.
func WithNull(name string) ItemOption {
	return func(b *ItemBuilder) {
		b.Item[name] = &types.AttributeValueMemberNULL{Value: true}
	}
}

// WithAttribute sets an attribute to an already encoded value.
func WithAttribute(name string, value types.AttributeValue) ItemOption {
	return func(b *ItemBuilder) {
		b.Item[name] = value
	}
}

// WithValue encodes v with its attribute type. It panics if v fails to
// serialize, so it is meant for fixed test fixtures.
func WithValue[R amo.Raw](name string, v amo.ValueMarshaler[R]) ItemOption {
	return func(b *ItemBuilder) {
		av, err := amo.MarshalValue(v)
		if err != nil {
			panic(fmt.Sprintf("dynamock: attribute %s: %v", name, err))
		}
		b.Item[name] = av
	}
}

// WithItem copies every attribute of item.
func WithItem(item amo.Item) ItemOption {
	return func(b *ItemBuilder) {
		maps.Copy(b.Item, item)
	}
}

// Without removes an attribute.
func Without(name string) ItemOption {
	return func(b *ItemBuilder) {
		delete(b.Item, name)
	}
}

// TestItem is an untyped item that implements the amo item interfaces, for
// tables whose contents a test wants to inspect raw:
//
//	raw := amo.NewTable[dynamock.TestItem]("tags", client)
type TestItem struct {
	Item amo.Item
}

// MarshalItem implements the amo.ItemMarshaler interface. Attributes are
// yielded in name order.
func (e TestItem) MarshalItem() iter.Seq2[amo.Attribute, error] {
	return func(yield func(amo.Attribute, error) bool) {
		for _, name := range slices.Sorted(maps.Keys(e.Item)) {
			if !yield(amo.Attribute{Name: name, Value: e.Item[name]}, nil) {
				return
			}
		}
	}
}

// UnmarshalItem implements the amo.ItemUnmarshaler interface.
func (e *TestItem) UnmarshalItem(item amo.Item) error {
	e.Item = maps.Clone(item)
	return nil
}

// Ensure TestItem implements all required interfaces
var _ amo.ItemMarshaler = TestItem{}
var _ amo.ItemUnmarshaler = (*TestItem)(nil)
