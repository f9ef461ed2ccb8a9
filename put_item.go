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

// PutItem writes a single item.
type PutItem struct {
	operation
	input   *dynamodb.PutItemInput
	hashKey string
	cond    expression.ConditionBuilder
	err     error // item serialization failure, reported by Send
}

// PutItemOutput is the result of a PutItem.
type PutItemOutput struct {
	ConsumedCapacity *types.ConsumedCapacity
	RequestID        string
}

func newPutItem(op operation, item Item, hashKey string, rcc types.ReturnConsumedCapacity, err error) *PutItem {
	return &PutItem{
		operation: op,
		input: &dynamodb.PutItemInput{
			TableName:              aws.String(op.table),
			Item:                   item,
			ReturnConsumedCapacity: rcc,
		},
		hashKey: hashKey,
		err:     err,
	}
}

// Condition makes the write conditional; see [IsConditionFailed].
func (p *PutItem) Condition(cond expression.ConditionBuilder) *PutItem {
	p.cond = cond
	return p
}

// IfNotExists makes the write fail when an item with the same key exists.
func (p *PutItem) IfNotExists() *PutItem {
	if p.hashKey == "" {
		if p.err == nil {
			p.err = NewSerializeError("table %s declares no key", p.table)
		}
		return p
	}
	return p.Condition(expression.AttributeNotExists(expression.Name(p.hashKey)))
}

// Input returns the request that Send would issue, or the item
// serialization error.
func (p *PutItem) Input() (*dynamodb.PutItemInput, error) {
	if p.err != nil {
		return nil, p.err
	}
	if !p.cond.IsSet() {
		return p.input, nil
	}

	expr, err := expression.NewBuilder().WithCondition(p.cond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := *p.input
	input.ConditionExpression = expr.Condition()
	input.ExpressionAttributeNames = expr.Names()
	input.ExpressionAttributeValues = expr.Values()
	return &input, nil
}

// Send issues the write. An item that failed to serialize is reported
// without contacting DynamoDB. Every failure is a *WriteError, except reuse
// of a sent operation.
func (p *PutItem) Send(ctx context.Context) (*PutItemOutput, error) {
	if err := p.begin(); err != nil {
		return nil, err
	}

	start := time.Now()
	input, err := p.Input()
	if err != nil {
		err := p.writeError(WriteSerialize, asSerializeError("", err))
		p.finish(ctx, start, err)
		return nil, err
	}

	out, err := p.client.PutItem(ctx, input)
	if err != nil {
		err := p.writeError(WriteTransport, err)
		p.finish(ctx, start, err)
		return nil, err
	}
	if out == nil {
		out = &dynamodb.PutItemOutput{}
	}

	p.finish(ctx, start, nil)
	return &PutItemOutput{
		ConsumedCapacity: out.ConsumedCapacity,
		RequestID:        requestID(out.ResultMetadata),
	}, nil
}
