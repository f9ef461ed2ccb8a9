package dynamock_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/nisimpson/amo"
	"github.com/nisimpson/amo/dynamock"
)

func ExampleMemoryClient() {
	ctx := context.Background()
	tags := amo.NewHashRangeTable[dynamock.TestItem]("tags", nil, amo.Key("resource", amo.S), amo.Key("key", amo.S))
	client := dynamock.NewMemoryClient(tags.Schema())

	seeder := dynamock.NewSeedTestData(client, "tags")
	_, err := seeder.SeedFromJSON(ctx, strings.NewReader(`[
		{"resource": "arn:aws:s3:::logs", "key": "team", "value": "infra"},
		{"resource": "arn:aws:s3:::logs", "key": "tier", "value": "cold"},
		{"resource": "arn:aws:s3:::logs", "key": "env", "value": "prod"}
	]`))
	if err != nil {
		fmt.Println(err)
		return
	}

	tags = amo.NewHashRangeTable[dynamock.TestItem]("tags", client, amo.Key("resource", amo.S), amo.Key("key", amo.S))
	out, err := tags.Query(amo.String("arn:aws:s3:::logs")).BeginsWith(amo.String("t")).Send(ctx)
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, item := range out.Items {
		var key amo.String
		if err := amo.UnmarshalValue[string](item.Item["key"], &key); err != nil {
			fmt.Println(err)
			return
		}
		fmt.Println(key)
	}
	// Output:
	// team
	// tier
}

func ExampleNewItem() {
	item := dynamock.NewItem(
		dynamock.WithString("resource", "arn:aws:s3:::logs"),
		dynamock.WithValue[amo.Number]("version", amo.Int(3)),
		dynamock.WithNull("account"),
	).Build()

	for attr := range item.MarshalItem() {
		fmt.Println(attr.Name)
	}
	// Output:
	// account
	// resource
	// version
}
