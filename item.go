package amo

import (
	"fmt"
	"iter"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Item is an alias for the dynamodb attribute value map.
type Item = map[string]types.AttributeValue

// Attribute is one named attribute of an item.
type Attribute struct {
	Name  string
	Value types.AttributeValue
}

// ItemMarshaler can describe itself as a sequence of attributes.
type ItemMarshaler interface {
	// MarshalItem returns a lazy, single pass sequence of attributes.
	// A failing field yields a non-nil error in place of its attribute.
	MarshalItem() iter.Seq2[Attribute, error]
}

// ItemUnmarshaler can populate itself from an item. Implementations must
// leave the receiver untouched when they return an error.
type ItemUnmarshaler interface {
	UnmarshalItem(Item) error
}

// Field is a deferred attribute; see [Attr] and [Fields].
type Field func() (Attribute, error)

// Attr returns a Field that encodes v under name when evaluated.
func Attr[R Raw](name string, v ValueMarshaler[R]) Field {
	return func() (Attribute, error) {
		av, err := MarshalValue(v)
		if err != nil {
			return Attribute{}, asSerializeError(name, err)
		}
		return Attribute{Name: name, Value: av}, nil
	}
}

// OmitEmpty returns a Field that is skipped when empty is true.
func OmitEmpty(empty bool, f Field) Field {
	if empty {
		return nil
	}
	return f
}

// Fields turns fields into an item sequence. Each field is evaluated only
// when the sequence reaches it; nil fields are skipped.
func Fields(fields ...Field) iter.Seq2[Attribute, error] {
	return func(yield func(Attribute, error) bool) {
		for _, f := range fields {
			if f == nil {
				continue
			}
			if !yield(f()) {
				return
			}
		}
	}
}

// MarshalItem collects the attributes of in into an Item. The first failing
// field aborts the collection and its *SerializeError is returned.
func MarshalItem(in ItemMarshaler) (Item, error) {
	item := make(Item)
	for attr, err := range in.MarshalItem() {
		if err != nil {
			return nil, asSerializeError("", err)
		}
		item[attr.Name] = attr.Value
	}
	return item, nil
}

// UnmarshalItem decodes item into out. Errors are returned as *DeserializeError.
func UnmarshalItem(item Item, out ItemUnmarshaler) error {
	if err := out.UnmarshalItem(item); err != nil {
		return asDeserializeError(err)
	}
	return nil
}

// UnmarshalItemSeq collects seq into an Item and decodes it into out.
// A name that appears twice fails with a DuplicateField error.
func UnmarshalItemSeq(seq iter.Seq2[string, types.AttributeValue], out ItemUnmarshaler) error {
	item := make(Item)
	for name, av := range seq {
		if _, exists := item[name]; exists {
			return &DeserializeError{Kind: DuplicateField, ItemType: itemTypeName(out), Field: name}
		}
		item[name] = av
	}
	return UnmarshalItem(item, out)
}

// itemTypeName names the type behind out, without the pointer.
func itemTypeName(out ItemUnmarshaler) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", out), "*")
}

// ItemDecoder reads declared fields out of an item. The first error is
// retained and later reads become no-ops, so an UnmarshalItem
// implementation can read every field and check Err once.
// Fields not read through the decoder are ignored.
type ItemDecoder struct {
	itemType string
	item     Item
	err      error
}

// NewItemDecoder creates an ItemDecoder. itemType names the decoded type in errors.
func NewItemDecoder(itemType string, item Item) *ItemDecoder {
	return &ItemDecoder{itemType: itemType, item: item}
}

// Err returns the first error encountered.
func (d *ItemDecoder) Err() error {
	return d.err
}

func (d *ItemDecoder) fail(err *DeserializeError) {
	if err.ItemType == "" {
		cp := *err
		cp.ItemType = d.itemType
		err = &cp
	}
	d.err = err
}

// Require decodes the field name into out, recording a MissingRequiredField
// error when it is absent.
func Require[R Raw](d *ItemDecoder, name string, out ValueUnmarshaler[R]) {
	if d.err != nil {
		return // Don't continue if there's already an error
	}
	av, ok := d.item[name]
	if !ok {
		d.fail(MissingFieldError(d.itemType, name))
		return
	}
	if err := UnmarshalValue(av, out); err != nil {
		d.fail(asDeserializeError(err).withField(name))
	}
}

// Optional decodes the field name into out when present and reports whether
// it was. A NULL attribute counts as absent.
func Optional[R Raw](d *ItemDecoder, name string, out ValueUnmarshaler[R]) bool {
	if d.err != nil {
		return false
	}
	av, ok := d.item[name]
	if !ok {
		return false
	}
	if _, null := av.(*types.AttributeValueMemberNULL); null {
		return false
	}
	if err := UnmarshalValue(av, out); err != nil {
		d.fail(asDeserializeError(err).withField(name))
		return false
	}
	return true
}
