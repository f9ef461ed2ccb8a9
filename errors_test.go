package amo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "serialize",
			err:  &SerializeError{Field: "resource", Msg: `"x" is not an ARN`},
			want: `serialize field resource: "x" is not an ARN`,
		},
		{
			name: "missing field",
			err:  MissingFieldError("Tag", "value"),
			want: "deserialize Tag field value: missing required field",
		},
		{
			name: "unexpected type",
			err:  UnexpectedTypeError("S", &types.AttributeValueMemberN{Value: "5"}),
			want: "deserialize: unexpected value type: expected S, got N(5)",
		},
		{
			name: "invalid",
			err:  InvalidValueError("bad %s", "thing"),
			want: "deserialize: invalid value: bad thing",
		},
		{
			name: "read",
			err:  &ReadError{Kind: ReadTransport, Op: "GetItem", Table: "tags", Err: errBoom},
			want: "GetItem tags: boom",
		},
		{
			name: "write",
			err:  &WriteError{Kind: WriteTransport, Op: "PutItem", Table: "tags", Err: errBoom},
			want: "PutItem tags: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDeserializeErrorIs(t *testing.T) {
	tests := []struct {
		kind     DeserializeErrorKind
		sentinel error
	}{
		{MissingRequiredField, ErrMissingRequiredField},
		{UnexpectedValueType, ErrUnexpectedValueType},
		{Invalid, ErrInvalidValue},
		{DuplicateField, ErrDuplicateField},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &DeserializeError{Kind: tt.kind})
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("Expected %v to match %v", err, tt.sentinel)
			}
			for _, other := range tests {
				if other.kind != tt.kind && errors.Is(err, other.sentinel) {
					t.Errorf("%v should not match %v", err, other.sentinel)
				}
			}
		})
	}
}

func TestReadErrorAPIError(t *testing.T) {
	apiErr := &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}
	err := &ReadError{Kind: ReadTransport, Op: "Query", Table: "tags", Err: apiErr}

	got, ok := err.APIError()
	if !ok || got.ErrorCode() != "ThrottlingException" {
		t.Errorf("Expected ThrottlingException, got %v (%v)", got, ok)
	}

	serr := &ReadError{Kind: ReadSerialize, Err: &SerializeError{Msg: "bad"}}
	if _, ok := serr.APIError(); ok {
		t.Error("Expected no API error behind a serialize failure")
	}
}

func TestIsConditionFailed(t *testing.T) {
	ccf := &types.ConditionalCheckFailedException{Message: aws.String("failed")}
	err := &WriteError{Kind: WriteTransport, Op: "PutItem", Table: "tags", Err: ccf}
	if !IsConditionFailed(err) {
		t.Error("Expected condition failure")
	}
	if IsConditionFailed(errBoom) {
		t.Error("Expected no condition failure")
	}
}
