package amo

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go/middleware"
)

// Consistency is the read consistency requested by a read operation.
type Consistency int

const (
	// Eventual reads may miss recent writes. This is the DynamoDB default.
	Eventual Consistency = iota
	// Strong reads reflect all writes acknowledged before the read.
	Strong
)

func (c Consistency) consistentRead() *bool {
	if c == Strong {
		return aws.Bool(true)
	}
	return nil
}

// clampInt32 converts n for an int32 request field, saturating instead of
// wrapping.
func clampInt32(n int) int32 {
	switch {
	case n > math.MaxInt32:
		return math.MaxInt32
	case n < math.MinInt32:
		return math.MinInt32
	}
	return int32(n)
}

// operation holds what every request builder shares: the target, the
// client, and the single-use guard.
type operation struct {
	op     string
	table  string
	client Client
	logger *slog.Logger
	sent   bool
}

// begin marks the operation as sent. Operations are single use.
func (o *operation) begin() error {
	if o.sent {
		return fmt.Errorf("%s %s: %w", o.op, o.table, ErrOperationSent)
	}
	o.sent = true
	return nil
}

func (o *operation) finish(ctx context.Context, start time.Time, err error) {
	if err != nil {
		o.logger.DebugContext(ctx, "dynamodb request failed",
			"op", o.op, "table", o.table, "duration", time.Since(start), "error", err)
		return
	}
	o.logger.DebugContext(ctx, "dynamodb request",
		"op", o.op, "table", o.table, "duration", time.Since(start))
}

func (o *operation) readError(kind ReadErrorKind, err error) *ReadError {
	return &ReadError{Kind: kind, Op: o.op, Table: o.table, Err: err}
}

func (o *operation) writeError(kind WriteErrorKind, err error) *WriteError {
	return &WriteError{Kind: kind, Op: o.op, Table: o.table, Err: err}
}

// requestID extracts the AWS request ID from response metadata.
func requestID(metadata middleware.Metadata) string {
	id, _ := awsmiddleware.GetRequestIDMetadata(metadata)
	return id
}

// wireValue passes an already encoded attribute value through the
// expression builder, which marshals its operands with attributevalue.
type wireValue struct {
	av types.AttributeValue
}

var _ attributevalue.Marshaler = wireValue{}

func (w wireValue) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return w.av, nil
}
