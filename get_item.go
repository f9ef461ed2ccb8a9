package amo

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// GetItem reads a single item by primary key. It is built by a table's Get
// method, optionally refined, and consumed by Send.
type GetItem[I any, P ItemPtr[I]] struct {
	operation
	input *dynamodb.GetItemInput
	err   error // key serialization failure, reported by Send
}

// GetItemOutput is the result of a GetItem. Item is nil when no item exists
// under the key.
type GetItemOutput[I any] struct {
	Item             *I
	ConsumedCapacity *types.ConsumedCapacity
	RequestID        string
}

func newGetItem[I any, P ItemPtr[I]](op operation, key Item, rcc types.ReturnConsumedCapacity, err error) *GetItem[I, P] {
	return &GetItem[I, P]{
		operation: op,
		input: &dynamodb.GetItemInput{
			TableName:              aws.String(op.table),
			Key:                    key,
			ReturnConsumedCapacity: rcc,
		},
		err: err,
	}
}

// Consistency sets the read consistency.
func (g *GetItem[I, P]) Consistency(c Consistency) *GetItem[I, P] {
	g.input.ConsistentRead = c.consistentRead()
	return g
}

// ReturnConsumedCapacity requests capacity details in the output.
func (g *GetItem[I, P]) ReturnConsumedCapacity(v types.ReturnConsumedCapacity) *GetItem[I, P] {
	g.input.ReturnConsumedCapacity = v
	return g
}

// Input returns the request that Send would issue, or the key serialization
// error.
func (g *GetItem[I, P]) Input() (*dynamodb.GetItemInput, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.input, nil
}

// Send issues the request. A key that failed to serialize is reported
// without contacting DynamoDB. Every failure is a *ReadError, except reuse
// of a sent operation, which fails with ErrOperationSent.
func (g *GetItem[I, P]) Send(ctx context.Context) (*GetItemOutput[I], error) {
	if err := g.begin(); err != nil {
		return nil, err
	}

	start := time.Now()
	if g.err != nil {
		err := g.readError(ReadSerialize, g.err)
		g.finish(ctx, start, err)
		return nil, err
	}

	out, err := g.client.GetItem(ctx, g.input)
	if err != nil {
		err := g.readError(ReadTransport, err)
		g.finish(ctx, start, err)
		return nil, err
	}
	if out == nil {
		out = &dynamodb.GetItemOutput{}
	}

	result := &GetItemOutput[I]{
		ConsumedCapacity: out.ConsumedCapacity,
		RequestID:        requestID(out.ResultMetadata),
	}

	if len(out.Item) > 0 {
		var item I
		if err := UnmarshalItem(out.Item, P(&item)); err != nil {
			err := g.readError(ReadDeserialize, err)
			g.finish(ctx, start, err)
			return nil, err
		}
		result.Item = &item
	}

	g.finish(ctx, start, nil)
	return result, nil
}
