package amo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DeleteItem removes a single item by primary key. Deleting a missing item
// succeeds.
type DeleteItem struct {
	operation
	input *dynamodb.DeleteItemInput
	cond  expression.ConditionBuilder
	err   error // key serialization failure, reported by Send
}

// DeleteItemOutput is the result of a DeleteItem.
type DeleteItemOutput struct {
	ConsumedCapacity *types.ConsumedCapacity
	RequestID        string
}

func newDeleteItem(op operation, key Item, rcc types.ReturnConsumedCapacity, err error) *DeleteItem {
	return &DeleteItem{
		operation: op,
		input: &dynamodb.DeleteItemInput{
			TableName:              aws.String(op.table),
			Key:                    key,
			ReturnConsumedCapacity: rcc,
		},
		err: err,
	}
}

// Condition makes the delete conditional; see [IsConditionFailed].
func (d *DeleteItem) Condition(cond expression.ConditionBuilder) *DeleteItem {
	d.cond = cond
	return d
}

// Input returns the request that Send would issue, or the key
// serialization error.
func (d *DeleteItem) Input() (*dynamodb.DeleteItemInput, error) {
	if d.err != nil {
		return nil, d.err
	}
	if !d.cond.IsSet() {
		return d.input, nil
	}

	expr, err := expression.NewBuilder().WithCondition(d.cond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := *d.input
	input.ConditionExpression = expr.Condition()
	input.ExpressionAttributeNames = expr.Names()
	input.ExpressionAttributeValues = expr.Values()
	return &input, nil
}

// Send issues the delete. Every failure is a *WriteError, except reuse of
// a sent operation.
func (d *DeleteItem) Send(ctx context.Context) (*DeleteItemOutput, error) {
	if err := d.begin(); err != nil {
		return nil, err
	}

	start := time.Now()
	input, err := d.Input()
	if err != nil {
		err := d.writeError(WriteSerialize, asSerializeError("", err))
		d.finish(ctx, start, err)
		return nil, err
	}

	out, err := d.client.DeleteItem(ctx, input)
	if err != nil {
		err := d.writeError(WriteTransport, err)
		d.finish(ctx, start, err)
		return nil, err
	}
	if out == nil {
		out = &dynamodb.DeleteItemOutput{}
	}

	d.finish(ctx, start, nil)
	return &DeleteItemOutput{
		ConsumedCapacity: out.ConsumedCapacity,
		RequestID:        requestID(out.ResultMetadata),
	}, nil
}
