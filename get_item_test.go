package amo

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestGetItem(t *testing.T) {
	ctx := context.Background()
	arn := Arn("arn:aws:iam::123:role/x")

	t.Run("request carries typed key", func(t *testing.T) {
		client := newMockDynamoDBClient("resource", "key")
		tags := newTagTable(client)

		if _, err := tags.Get(arn, String("env")).Send(ctx); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		input := client.getInput
		if aws.ToString(input.TableName) != "tags" {
			t.Errorf("Expected table tags, got %s", aws.ToString(input.TableName))
		}
		if got := input.Key["resource"].(*types.AttributeValueMemberS).Value; got != string(arn) {
			t.Errorf("Expected resource %s, got %s", arn, got)
		}
		if got := input.Key["key"].(*types.AttributeValueMemberS).Value; got != "env" {
			t.Errorf("Expected key env, got %s", got)
		}
		if input.ConsistentRead != nil {
			t.Error("Expected default consistency")
		}
	})

	t.Run("decodes the response", func(t *testing.T) {
		client := newMockDynamoDBClient("resource", "key")
		client.items[client.key(tagItem())] = tagItem()
		client.requestID = "req-1"
		tags := newTagTable(client)

		out, err := tags.Get(arn, String("env")).Send(ctx)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		want := Tag{Resource: arn, Key: "env", Value: "prod"}
		if out.Item == nil || *out.Item != want {
			t.Errorf("Expected %+v, got %+v", want, out.Item)
		}
		if out.RequestID != "req-1" {
			t.Errorf("Expected request id req-1, got %q", out.RequestID)
		}
	})

	t.Run("not found is not an error", func(t *testing.T) {
		client := newMockDynamoDBClient("resource", "key")
		tags := newTagTable(client)

		out, err := tags.Get(arn, String("missing")).Send(ctx)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if out.Item != nil {
			t.Errorf("Expected no item, got %+v", out.Item)
		}
	})

	t.Run("key serialize failure makes no call", func(t *testing.T) {
		client := newMockDynamoDBClient("resource", "key")
		tags := newTagTable(client)

		_, err := tags.Get(Arn("role/x"), String("env")).Send(ctx)
		var readErr *ReadError
		if !errors.As(err, &readErr) || readErr.Kind != ReadSerialize {
			t.Fatalf("Expected serialize ReadError, got %v", err)
		}
		var serr *SerializeError
		if !errors.As(err, &serr) || serr.Field != "resource" {
			t.Errorf("Expected original SerializeError on resource, got %v", err)
		}
		if n := client.callCount("GetItem"); n != 0 {
			t.Errorf("Expected no remote call, got %d", n)
		}
	})

	t.Run("key serialize failure keeps the value's error", func(t *testing.T) {
		client := newMockDynamoDBClient("resource", "key")
		tags := newTagTable(client)

		_, err := tags.Get(unmappedKey("x"), String("env")).Send(ctx)
		if !errors.Is(err, errUnmappedKey) {
			t.Fatalf("Expected errUnmappedKey in the chain, got %v", err)
		}
		var serr *SerializeError
		if !errors.As(err, &serr) || serr.Field != "resource" {
			t.Errorf("Expected the field to be named, got %v", err)
		}
		if got := err.Error(); got != "GetItem tags: serialize field resource: no wire mapping" {
			t.Errorf("Unexpected message %q", got)
		}
		if n := client.callCount("GetItem"); n != 0 {
			t.Errorf("Expected no remote call, got %d", n)
		}
	})

	t.Run("transport failure is wrapped verbatim", func(t *testing.T) {
		client := newMockDynamoDBClient("resource", "key")
		client.err = errBoom
		tags := newTagTable(client)

		_, err := tags.Get(arn, String("env")).Send(ctx)
		var readErr *ReadError
		if !errors.As(err, &readErr) || readErr.Kind != ReadTransport {
			t.Fatalf("Expected transport ReadError, got %v", err)
		}
		if readErr.Err != errBoom {
			t.Errorf("Expected the transport error unchanged, got %v", readErr.Err)
		}
		if readErr.Op != "GetItem" || readErr.Table != "tags" {
			t.Errorf("Unexpected op/table %s/%s", readErr.Op, readErr.Table)
		}
		if n := client.callCount("GetItem"); n != 1 {
			t.Errorf("Expected exactly one call, got %d", n)
		}
	})

	t.Run("decode failure returns no item", func(t *testing.T) {
		client := newMockDynamoDBClient("resource", "key")
		item := tagItem()
		delete(item, "value")
		client.items[client.key(item)] = item
		tags := newTagTable(client)

		out, err := tags.Get(arn, String("env")).Send(ctx)
		if out != nil {
			t.Errorf("Expected no output, got %+v", out)
		}
		var readErr *ReadError
		if !errors.As(err, &readErr) || readErr.Kind != ReadDeserialize {
			t.Fatalf("Expected deserialize ReadError, got %v", err)
		}
		if !errors.Is(err, ErrMissingRequiredField) {
			t.Errorf("Expected missing field, got %v", err)
		}
	})

	t.Run("strong consistency", func(t *testing.T) {
		client := newMockDynamoDBClient("resource", "key")
		tags := newTagTable(client)

		if _, err := tags.Get(arn, String("env")).Consistency(Strong).Send(ctx); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !aws.ToBool(client.getInput.ConsistentRead) {
			t.Error("Expected consistent read")
		}
	})

	t.Run("consumed capacity", func(t *testing.T) {
		client := newMockDynamoDBClient("resource", "key")
		tags := newTagTable(client)

		op := tags.Get(arn, String("env")).ReturnConsumedCapacity(types.ReturnConsumedCapacityIndexes)
		input, err := op.Input()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if input.ReturnConsumedCapacity != types.ReturnConsumedCapacityIndexes {
			t.Errorf("Expected INDEXES, got %q", input.ReturnConsumedCapacity)
		}
	})

	t.Run("operation is single use", func(t *testing.T) {
		client := newMockDynamoDBClient("resource", "key")
		tags := newTagTable(client)

		op := tags.Get(arn, String("env"))
		if _, err := op.Send(ctx); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		_, err := op.Send(ctx)
		if !errors.Is(err, ErrOperationSent) {
			t.Fatalf("Expected ErrOperationSent, got %v", err)
		}
		if n := client.callCount("GetItem"); n != 1 {
			t.Errorf("Expected exactly one call, got %d", n)
		}
	})

	t.Run("hash table", func(t *testing.T) {
		client := newMockDynamoDBClient("id")
		client.items["N:7"] = Item{"id": &types.AttributeValueMemberN{Value: "7"}}
		table := NewHashTable[counter]("counters", client, Key("id", N))

		out, err := table.Get(Int(7)).Send(ctx)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if out.Item == nil || out.Item.ID != 7 {
			t.Errorf("Expected counter 7, got %+v", out.Item)
		}
	})
}

type counter struct {
	ID Int
}

func (c *counter) UnmarshalItem(item Item) error {
	d := NewItemDecoder("counter", item)
	Require[Number](d, "id", &c.ID)
	return d.Err()
}

var errUnmappedKey = &SerializeError{Msg: "no wire mapping"}

// unmappedKey is a key value that always fails with errUnmappedKey.
type unmappedKey string

func (unmappedKey) MarshalRaw() (string, error) { return "", errUnmappedKey }
