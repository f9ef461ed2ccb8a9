// Package amo provides a strongly typed layer over the AWS SDK for Go v2
// DynamoDB client.
//
// The library lets you describe how domain values map onto DynamoDB
// attribute values, and binds item types to tables whose key attributes and
// key value types are checked by the compiler.
//
// # Attribute Types
//
// Every value encodes to exactly one of four attribute types:
//   - S: strings, backed by the raw type string
//   - N: numbers, backed by the raw type Number (decimal text)
//   - B: binary, backed by the raw type []byte
//   - Opaque: any attribute value, backed by the raw type Document
//
// # Values
//
// A value type implements ValueMarshaler[R] and ValueUnmarshaler[R] for its
// raw type R. The built-in String, Int, Float, Number, Bytes, Time, Document
// and Map cover the common cases; domain types wrap them:
//
//	type Arn string
//
//	func (a Arn) MarshalRaw() (string, error) { return string(a), nil }
//
//	func (a *Arn) UnmarshalRaw(raw string) error {
//	    if !strings.HasPrefix(raw, "arn:") {
//	        return amo.InvalidValueError("%q is not an ARN", raw)
//	    }
//	    *a = Arn(raw)
//	    return nil
//	}
//
// # Items
//
// Items implement ItemMarshaler, yielding their attributes lazily, and
// ItemUnmarshaler, usually through an ItemDecoder:
//
//	func (t Tag) MarshalItem() iter.Seq2[amo.Attribute, error] {
//	    return amo.Fields(
//	        amo.Attr[string]("resource", t.Resource),
//	        amo.Attr[string]("key", amo.String(t.Key)),
//	        amo.Attr[string]("value", amo.String(t.Value)),
//	    )
//	}
//
//	func (t *Tag) UnmarshalItem(item amo.Item) error {
//	    var tag Tag
//	    d := amo.NewItemDecoder("Tag", item)
//	    amo.Require[string](d, "resource", &tag.Resource)
//	    amo.Require[string](d, "key", (*amo.String)(&tag.Key))
//	    amo.Require[string](d, "value", (*amo.String)(&tag.Value))
//	    if err := d.Err(); err != nil {
//	        return err
//	    }
//	    *t = tag
//	    return nil
//	}
//
// # Tables
//
// Tables bind a name, a Client and an item type. Key attributes are declared
// once, and Get, Delete and Query only accept values of the declared raw
// types:
//
//	tags := amo.NewHashRangeTable[Tag]("tags", client,
//	    amo.Key("resource", amo.S), amo.Key("key", amo.S))
//
//	out, err := tags.Get(arn, amo.String("owner")).Consistency(amo.Strong).Send(ctx)
//
// Operations are builders. A value that fails to serialize while the
// operation is built is reported by Send, which then makes no request.
// Each operation can be sent once.
//
// # Errors
//
// Read operations fail with *ReadError and write operations with
// *WriteError. Both wrap the transport error, a *SerializeError, or a
// *DeserializeError, which errors.Is matches against ErrMissingRequiredField,
// ErrUnexpectedValueType, ErrInvalidValue and ErrDuplicateField.
//
// # Pagination
//
// TablePaginator stores query start keys in a cursor table:
//
//	paginator := amo.NewTablePaginator("cursors", client)
//	cursor, err := paginator.PageCursor(ctx, out.LastEvaluatedKey)
//	startKey, err := paginator.StartKey(ctx, cursor)
package amo
