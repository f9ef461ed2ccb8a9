package amo

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Example demonstrates a put and a typed get
func Example() {
	// This example shows the API without making actual AWS calls
	client := newMockDynamoDBClient("resource", "key")
	ctx := context.Background()

	tags := NewHashRangeTable[Tag]("tags", client, Key("resource", S), Key("key", S))

	tag := Tag{Resource: "arn:aws:iam::123:role/x", Key: "env", Value: "prod"}
	if _, err := tags.Put(tag).Send(ctx); err != nil {
		log.Fatal(err)
	}

	out, err := tags.Get(tag.Resource, String("env")).Consistency(Strong).Send(ctx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s=%s\n", out.Item.Key, out.Item.Value)

	// Output:
	// env=prod
}

// ExampleHashRangeTable_Get shows the request built for a typed key
func ExampleHashRangeTable_Get() {
	tags := NewHashRangeTable[Tag]("tags", nil, Key("resource", S), Key("key", S))

	input, err := tags.Get(Arn("arn:aws:iam::123:role/x"), String("env")).Input()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(input.Key["resource"].(*types.AttributeValueMemberS).Value)
	fmt.Println(input.Key["key"].(*types.AttributeValueMemberS).Value)

	// Output:
	// arn:aws:iam::123:role/x
	// env
}

// ExampleReadError shows how a deferred key failure surfaces at Send
func ExampleReadError() {
	tags := NewHashRangeTable[Tag]("tags", newMockDynamoDBClient("resource", "key"), Key("resource", S), Key("key", S))

	_, err := tags.Get(Arn("role/x"), String("env")).Send(context.Background())

	var readErr *ReadError
	if errors.As(err, &readErr) && readErr.Kind == ReadSerialize {
		fmt.Println(err)
	}

	// Output:
	// GetItem tags: serialize field resource: "role/x" is not an ARN
}

// ExampleUnmarshalItem shows the error for a wrongly typed key attribute
func ExampleUnmarshalItem() {
	item := Item{"resource": &types.AttributeValueMemberN{Value: "5"}}

	var tag Tag
	err := UnmarshalItem(item, &tag)
	fmt.Println(err)

	// Output:
	// deserialize Tag field resource: unexpected value type: expected S, got N(5)
}
