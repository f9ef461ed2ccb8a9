package transport

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/smithy-go"
	"github.com/nisimpson/amo"
)

// Logged is a client that logs every request it forwards.
type Logged struct {
	next   amo.Client
	logger *slog.Logger
}

var _ amo.Client = (*Logged)(nil)

// Log wraps client so that each request is logged at debug level, and each
// failed request at warn level with its service error code.
func Log(client amo.Client, logger *slog.Logger) *Logged {
	return &Logged{next: client, logger: logger}
}

func logCall[U any](ctx context.Context, logger *slog.Logger, op string, table *string, call func() (*U, error)) (*U, error) {
	start := time.Now()
	out, err := call()
	attrs := []any{"op", op, "table", aws.ToString(table), "duration", time.Since(start)}
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			attrs = append(attrs, "code", apiErr.ErrorCode())
		}
		logger.WarnContext(ctx, "dynamodb call failed", append(attrs, "error", err)...)
		return out, err
	}
	logger.DebugContext(ctx, "dynamodb call", attrs...)
	return out, nil
}

func (l *Logged) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return logCall(ctx, l.logger, "GetItem", params.TableName, func() (*dynamodb.GetItemOutput, error) {
		return l.next.GetItem(ctx, params, optFns...)
	})
}

func (l *Logged) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return logCall(ctx, l.logger, "PutItem", params.TableName, func() (*dynamodb.PutItemOutput, error) {
		return l.next.PutItem(ctx, params, optFns...)
	})
}

func (l *Logged) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return logCall(ctx, l.logger, "DeleteItem", params.TableName, func() (*dynamodb.DeleteItemOutput, error) {
		return l.next.DeleteItem(ctx, params, optFns...)
	})
}

func (l *Logged) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	return logCall(ctx, l.logger, "Query", params.TableName, func() (*dynamodb.QueryOutput, error) {
		return l.next.Query(ctx, params, optFns...)
	})
}

func (l *Logged) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return logCall(ctx, l.logger, "Scan", params.TableName, func() (*dynamodb.ScanOutput, error) {
		return l.next.Scan(ctx, params, optFns...)
	})
}
