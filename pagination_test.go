package amo

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Tests for pagination functionality

func TestPagination(t *testing.T) {
	client := newMockDynamoDBClient(AttributeNameCursor)
	paginator := NewTablePaginator("cursors", client)
	ctx := context.Background()

	t.Run("nil lastkey returns empty cursor", func(t *testing.T) {
		cursor, err := paginator.PageCursor(ctx, nil)
		if err != nil {
			t.Fatalf("Failed to create cursor: %v", err)
		}
		if cursor != "" {
			t.Errorf("Expected empty cursor for nil lastkey, got %s", cursor)
		}
	})

	t.Run("empty lastkey returns empty cursor", func(t *testing.T) {
		cursor, err := paginator.PageCursor(ctx, Item{})
		if err != nil {
			t.Fatalf("Failed to create cursor: %v", err)
		}
		if cursor != "" {
			t.Errorf("Expected empty cursor for empty lastkey, got %s", cursor)
		}
	})

	t.Run("valid lastkey creates and retrieves cursor", func(t *testing.T) {
		lastkey := Item{
			"resource": &types.AttributeValueMemberS{Value: "arn:aws:iam::123:role/x"},
			"key":      &types.AttributeValueMemberS{Value: "env"},
		}

		cursor, err := paginator.PageCursor(ctx, lastkey)
		if err != nil {
			t.Fatalf("Failed to create cursor: %v", err)
		}
		if cursor == "" {
			t.Fatal("Expected non-empty cursor for valid lastkey")
		}

		stored := client.putInput.Item
		if _, ok := stored[AttributeNameExpires].(*types.AttributeValueMemberN); !ok {
			t.Errorf("Expected an N expiry, got %T", stored[AttributeNameExpires])
		}

		retrievedKey, err := paginator.StartKey(ctx, cursor)
		if err != nil {
			t.Fatalf("Failed to get start key: %v", err)
		}
		if retrievedKey == nil {
			t.Fatal("Expected non-nil start key")
		}
		if got := retrievedKey["key"].(*types.AttributeValueMemberS).Value; got != "env" {
			t.Errorf("Expected key env, got %s", got)
		}
		if !aws.ToBool(client.getInput.ConsistentRead) {
			t.Error("Expected cursor reads to be strongly consistent")
		}
	})

	t.Run("empty cursor returns nil start key", func(t *testing.T) {
		retrievedKey, err := paginator.StartKey(ctx, "")
		if err != nil {
			t.Fatalf("Failed to get start key: %v", err)
		}
		if retrievedKey != nil {
			t.Error("Expected nil key for empty cursor")
		}
	})

	t.Run("non-existent cursor returns nil", func(t *testing.T) {
		result, err := paginator.StartKey(ctx, "non-existent-cursor")
		if err != nil {
			t.Errorf("Unexpected error for non-existent cursor: %v", err)
		}
		if result != nil {
			t.Error("Expected nil result for non-existent cursor")
		}
	})

	t.Run("cursor with empty key data returns nil", func(t *testing.T) {
		emptyCursor := PageCursor{
			Cursor: "empty-cursor",
			Key:    []byte{},
		}

		if _, err := paginator.Table().Put(emptyCursor).Send(ctx); err != nil {
			t.Fatalf("Failed to store empty cursor: %v", err)
		}

		result, err := paginator.StartKey(ctx, "empty-cursor")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if result != nil {
			t.Error("Expected nil result for empty key data")
		}
	})
}

func TestPaginationExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	client := newMockDynamoDBClient(AttributeNameCursor)
	paginator := NewTablePaginator("cursors", client, func(o *TableOptions) {
		o.Tick = func() time.Time { return now }
	}).WithTTL(time.Hour)
	ctx := context.Background()

	lastkey := Item{"id": &types.AttributeValueMemberS{Value: "1"}}
	cursor, err := paginator.PageCursor(ctx, lastkey)
	if err != nil {
		t.Fatalf("Failed to create cursor: %v", err)
	}

	now = now.Add(30 * time.Minute)
	if key, err := paginator.StartKey(ctx, cursor); err != nil || key == nil {
		t.Fatalf("Expected a live cursor, got %v (%v)", key, err)
	}

	now = now.Add(time.Hour)
	key, err := paginator.StartKey(ctx, cursor)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if key != nil {
		t.Error("Expected expired cursor to yield nil")
	}
}

func TestMarshalAndUnmarshalStartKey(t *testing.T) {
	client := newMockDynamoDBClient(AttributeNameCursor)
	paginator := NewTablePaginator("cursors", client)
	ctx := context.Background()

	lastKey := Item{
		"resource": &types.AttributeValueMemberS{Value: "arn:aws:iam::123:role/x"},
		"version":  &types.AttributeValueMemberN{Value: "3"},
	}

	cursor, err := MarshalStartKey(ctx, paginator, lastKey)
	if err != nil {
		t.Fatalf("Failed to marshal start key: %v", err)
	}

	startKey, err := UnmarshalStartKey(ctx, paginator, cursor)
	if err != nil {
		t.Fatalf("Failed to unmarshal start key: %v", err)
	}
	if got := startKey["version"].(*types.AttributeValueMemberN).Value; got != "3" {
		t.Errorf("Expected version 3, got %s", got)
	}
}

func TestPageCursorItem(t *testing.T) {
	in := PageCursor{Cursor: "c", Key: []byte("k"), Expires: time.Unix(1700000000, 0).UTC()}
	item, err := MarshalItem(in)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var out PageCursor
	if err := UnmarshalItem(item, &out); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if out.Cursor != "c" || string(out.Key) != "k" || !out.Expires.Equal(in.Expires) {
		t.Errorf("Expected %+v, got %+v", in, out)
	}
}
