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

// Query reads the items of one partition of a table or index, optionally
// narrowed by a condition on the range key of raw type R. Matching, ordering
// and pagination are performed by DynamoDB.
type Query[I any, P ItemPtr[I], R KeyRaw] struct {
	operation
	index      string
	rangeName  string
	hash       Field
	rangeCond  expression.KeyConditionBuilder
	filter     expression.ConditionBuilder
	limit      int32
	startKey   Item
	descending bool
	consistent Consistency
	rcc        types.ReturnConsumedCapacity
	err        error // first construction failure, reported by Send
}

// QueryOutput is one page of query results.
type QueryOutput[I any] struct {
	Items            []I
	Count            int32
	ScannedCount     int32
	LastEvaluatedKey Item // Start key of the next page; nil on the last page
	ConsumedCapacity *types.ConsumedCapacity
	RequestID        string
}

func newQuery[I any, P ItemPtr[I], R KeyRaw](op operation, index, rangeName string, hash Field, rcc types.ReturnConsumedCapacity) *Query[I, P, R] {
	return &Query[I, P, R]{
		operation: op,
		index:     index,
		rangeName: rangeName,
		hash:      hash,
		rcc:       rcc,
	}
}

// rangeValue encodes v for a range key condition, recording any failure.
func (q *Query[I, P, R]) rangeValue(v ValueMarshaler[R]) (expression.ValueBuilder, bool) {
	av, err := MarshalValue(v)
	if err != nil {
		if q.err == nil {
			q.err = asSerializeError(q.rangeName, err)
		}
		return expression.ValueBuilder{}, false
	}
	return expression.Value(wireValue{av}), true
}

func (q *Query[I, P, R]) where(cond func(expression.KeyBuilder) expression.KeyConditionBuilder) *Query[I, P, R] {
	q.rangeCond = cond(expression.Key(q.rangeName))
	return q
}

// Equal selects items whose range key equals v.
func (q *Query[I, P, R]) Equal(v ValueMarshaler[R]) *Query[I, P, R] {
	val, ok := q.rangeValue(v)
	if !ok {
		return q
	}
	return q.where(func(k expression.KeyBuilder) expression.KeyConditionBuilder { return k.Equal(val) })
}

// LessThan selects items whose range key is less than v.
func (q *Query[I, P, R]) LessThan(v ValueMarshaler[R]) *Query[I, P, R] {
	val, ok := q.rangeValue(v)
	if !ok {
		return q
	}
	return q.where(func(k expression.KeyBuilder) expression.KeyConditionBuilder { return k.LessThan(val) })
}

// LessThanEqual selects items whose range key is at most v.
func (q *Query[I, P, R]) LessThanEqual(v ValueMarshaler[R]) *Query[I, P, R] {
	val, ok := q.rangeValue(v)
	if !ok {
		return q
	}
	return q.where(func(k expression.KeyBuilder) expression.KeyConditionBuilder { return k.LessThanEqual(val) })
}

// GreaterThan selects items whose range key is greater than v.
func (q *Query[I, P, R]) GreaterThan(v ValueMarshaler[R]) *Query[I, P, R] {
	val, ok := q.rangeValue(v)
	if !ok {
		return q
	}
	return q.where(func(k expression.KeyBuilder) expression.KeyConditionBuilder { return k.GreaterThan(val) })
}

// GreaterThanEqual selects items whose range key is at least v.
func (q *Query[I, P, R]) GreaterThanEqual(v ValueMarshaler[R]) *Query[I, P, R] {
	val, ok := q.rangeValue(v)
	if !ok {
		return q
	}
	return q.where(func(k expression.KeyBuilder) expression.KeyConditionBuilder { return k.GreaterThanEqual(val) })
}

// Between selects items whose range key lies in [lower, upper].
func (q *Query[I, P, R]) Between(lower, upper ValueMarshaler[R]) *Query[I, P, R] {
	lo, ok := q.rangeValue(lower)
	if !ok {
		return q
	}
	hi, ok := q.rangeValue(upper)
	if !ok {
		return q
	}
	return q.where(func(k expression.KeyBuilder) expression.KeyConditionBuilder { return k.Between(lo, hi) })
}

// BeginsWith selects items whose range key starts with prefix. It requires
// an S range key; other key types fail at Send.
func (q *Query[I, P, R]) BeginsWith(prefix ValueMarshaler[R]) *Query[I, P, R] {
	raw, err := prefix.MarshalRaw()
	if err != nil {
		if q.err == nil {
			q.err = asSerializeError(q.rangeName, err)
		}
		return q
	}
	s, ok := any(raw).(string)
	if !ok {
		if q.err == nil {
			q.err = &SerializeError{
				Field: q.rangeName,
				Msg:   fmt.Sprintf("begins_with requires an S range key, not %s", TypeOf[R]().Name()),
			}
		}
		return q
	}
	return q.where(func(k expression.KeyBuilder) expression.KeyConditionBuilder { return k.BeginsWith(s) })
}

// Filter applies a condition to the items read, after the key condition.
// Filtered items still count against Limit.
func (q *Query[I, P, R]) Filter(cond expression.ConditionBuilder) *Query[I, P, R] {
	q.filter = cond
	return q
}

// Limit caps the number of items evaluated per page. Values above
// math.MaxInt32 are clamped; zero or less means no limit.
func (q *Query[I, P, R]) Limit(n int) *Query[I, P, R] {
	q.limit = clampInt32(n)
	return q
}

// StartKey continues a previous query after key.
func (q *Query[I, P, R]) StartKey(key Item) *Query[I, P, R] {
	q.startKey = key
	return q
}

// Descending reverses the range key order.
func (q *Query[I, P, R]) Descending() *Query[I, P, R] {
	q.descending = true
	return q
}

// Consistency sets the read consistency. Global secondary indexes only
// support eventual consistency.
func (q *Query[I, P, R]) Consistency(c Consistency) *Query[I, P, R] {
	q.consistent = c
	return q
}

// Input returns the request that Send would issue, or the first
// construction error.
func (q *Query[I, P, R]) Input() (*dynamodb.QueryInput, error) {
	if q.err != nil {
		return nil, q.err
	}

	hash, err := q.hash()
	if err != nil {
		return nil, err
	}

	// Build the key condition for the partition
	keyCondition := expression.Key(hash.Name).Equal(expression.Value(wireValue{hash.Value}))

	// Add range condition if provided
	if q.rangeCond.IsSet() {
		keyCondition = keyCondition.And(q.rangeCond)
	}

	builder := expression.NewBuilder().WithKeyCondition(keyCondition)

	// Add condition filter if provided
	if q.filter.IsSet() {
		builder = builder.WithFilter(q.filter)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(q.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(!q.descending),
		ConsistentRead:            q.consistent.consistentRead(),
		ReturnConsumedCapacity:    q.rcc,
	}

	if q.index != "" {
		input.IndexName = aws.String(q.index)
	}

	if q.filter.IsSet() {
		input.FilterExpression = expr.Filter()
	}

	if q.limit > 0 {
		input.Limit = aws.Int32(q.limit)
	}

	if q.startKey != nil {
		input.ExclusiveStartKey = q.startKey
	}

	return input, nil
}

// Send issues the query and decodes one page of results. If any item fails
// to decode, no items are returned.
func (q *Query[I, P, R]) Send(ctx context.Context) (*QueryOutput[I], error) {
	if err := q.begin(); err != nil {
		return nil, err
	}

	start := time.Now()
	input, err := q.Input()
	if err != nil {
		err := q.readError(ReadSerialize, asSerializeError("", err))
		q.finish(ctx, start, err)
		return nil, err
	}

	out, err := q.client.Query(ctx, input)
	if err != nil {
		err := q.readError(ReadTransport, err)
		q.finish(ctx, start, err)
		return nil, err
	}
	if out == nil {
		out = &dynamodb.QueryOutput{}
	}

	items, err := decodeItems[I, P](out.Items)
	if err != nil {
		err := q.readError(ReadDeserialize, err)
		q.finish(ctx, start, err)
		return nil, err
	}

	q.finish(ctx, start, nil)
	return &QueryOutput[I]{
		Items:            items,
		Count:            out.Count,
		ScannedCount:     out.ScannedCount,
		LastEvaluatedKey: out.LastEvaluatedKey,
		ConsumedCapacity: out.ConsumedCapacity,
		RequestID:        requestID(out.ResultMetadata),
	}, nil
}

// decodeItems decodes every item or none.
func decodeItems[I any, P ItemPtr[I]](items []Item) ([]I, error) {
	result := make([]I, 0, len(items))
	for i, item := range items {
		var v I
		if err := UnmarshalItem(item, P(&v)); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		result = append(result, v)
	}
	return result, nil
}
