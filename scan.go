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

// Scan reads every item of a table, one page per Send.
type Scan[I any, P ItemPtr[I]] struct {
	operation
	input  *dynamodb.ScanInput
	filter expression.ConditionBuilder
}

// ScanOutput is one page of scan results.
type ScanOutput[I any] struct {
	Items            []I
	Count            int32
	ScannedCount     int32
	LastEvaluatedKey Item // Start key of the next page; nil on the last page
	ConsumedCapacity *types.ConsumedCapacity
	RequestID        string
}

func newScan[I any, P ItemPtr[I]](op operation, rcc types.ReturnConsumedCapacity) *Scan[I, P] {
	return &Scan[I, P]{
		operation: op,
		input: &dynamodb.ScanInput{
			TableName:              aws.String(op.table),
			ReturnConsumedCapacity: rcc,
		},
	}
}

// Filter discards items that do not satisfy cond.
func (s *Scan[I, P]) Filter(cond expression.ConditionBuilder) *Scan[I, P] {
	s.filter = cond
	return s
}

// Limit caps the number of items evaluated per page. Values above
// math.MaxInt32 are clamped; zero or less means no limit.
func (s *Scan[I, P]) Limit(n int) *Scan[I, P] {
	s.input.Limit = nil
	if n > 0 {
		s.input.Limit = aws.Int32(clampInt32(n))
	}
	return s
}

// StartKey continues a previous scan after key.
func (s *Scan[I, P]) StartKey(key Item) *Scan[I, P] {
	s.input.ExclusiveStartKey = key
	return s
}

// Segment restricts the scan to one of total parallel segments.
func (s *Scan[I, P]) Segment(segment, total int) *Scan[I, P] {
	s.input.Segment = aws.Int32(clampInt32(segment))
	s.input.TotalSegments = aws.Int32(clampInt32(total))
	return s
}

// Consistency sets the read consistency.
func (s *Scan[I, P]) Consistency(c Consistency) *Scan[I, P] {
	s.input.ConsistentRead = c.consistentRead()
	return s
}

// Input returns the request that Send would issue.
func (s *Scan[I, P]) Input() (*dynamodb.ScanInput, error) {
	if !s.filter.IsSet() {
		return s.input, nil
	}

	expr, err := expression.NewBuilder().WithFilter(s.filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := *s.input
	input.FilterExpression = expr.Filter()
	input.ExpressionAttributeNames = expr.Names()
	input.ExpressionAttributeValues = expr.Values()
	return &input, nil
}

// Send issues the scan and decodes one page of results. If any item fails
// to decode, no items are returned.
func (s *Scan[I, P]) Send(ctx context.Context) (*ScanOutput[I], error) {
	if err := s.begin(); err != nil {
		return nil, err
	}

	start := time.Now()
	input, err := s.Input()
	if err != nil {
		err := s.readError(ReadSerialize, asSerializeError("", err))
		s.finish(ctx, start, err)
		return nil, err
	}

	out, err := s.client.Scan(ctx, input)
	if err != nil {
		err := s.readError(ReadTransport, err)
		s.finish(ctx, start, err)
		return nil, err
	}
	if out == nil {
		out = &dynamodb.ScanOutput{}
	}

	items, err := decodeItems[I, P](out.Items)
	if err != nil {
		err := s.readError(ReadDeserialize, err)
		s.finish(ctx, start, err)
		return nil, err
	}

	s.finish(ctx, start, nil)
	return &ScanOutput[I]{
		Items:            items,
		Count:            out.Count,
		ScannedCount:     out.ScannedCount,
		LastEvaluatedKey: out.LastEvaluatedKey,
		ConsumedCapacity: out.ConsumedCapacity,
		RequestID:        requestID(out.ResultMetadata),
	}, nil
}
