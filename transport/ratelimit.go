package transport

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/nisimpson/amo"
	"golang.org/x/time/rate"
)

// RateLimited is a client that waits for a token before every request.
type RateLimited struct {
	next    amo.Client
	limiter *rate.Limiter
}

var _ amo.Client = (*RateLimited)(nil)

// RateLimit wraps client with a token bucket limiter. The limiter may be
// shared between clients to cap their combined request rate.
//
//	client := transport.RateLimit(ddb, rate.NewLimiter(50, 10))
func RateLimit(client amo.Client, limiter *rate.Limiter) *RateLimited {
	return &RateLimited{next: client, limiter: limiter}
}

func (r *RateLimited) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.GetItem(ctx, params, optFns...)
}

func (r *RateLimited) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.PutItem(ctx, params, optFns...)
}

func (r *RateLimited) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.DeleteItem(ctx, params, optFns...)
}

func (r *RateLimited) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.Query(ctx, params, optFns...)
}

func (r *RateLimited) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.Scan(ctx, params, optFns...)
}
