package amo

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func TestBuiltinValues(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		av, err := MarshalValue[string](String("hello"))
		if err != nil {
			t.Fatalf("Failed to marshal: %v", err)
		}
		var s String
		if err := UnmarshalValue(av, &s); err != nil || s != "hello" {
			t.Errorf("Expected hello, got %q (%v)", s, err)
		}
	})

	t.Run("Int", func(t *testing.T) {
		av, err := MarshalValue[Number](Int(-42))
		if err != nil {
			t.Fatalf("Failed to marshal: %v", err)
		}
		if n := av.(*types.AttributeValueMemberN).Value; n != "-42" {
			t.Errorf("Expected -42, got %s", n)
		}
		var i Int
		if err := UnmarshalValue(av, &i); err != nil || i != -42 {
			t.Errorf("Expected -42, got %d (%v)", i, err)
		}
	})

	t.Run("Int rejects fractions", func(t *testing.T) {
		var i Int
		err := UnmarshalValue(&types.AttributeValueMemberN{Value: "1.5"}, &i)
		if !errors.Is(err, ErrInvalidValue) {
			t.Errorf("Expected invalid value, got %v", err)
		}
	})

	t.Run("Float", func(t *testing.T) {
		av, err := MarshalValue[Number](Float(3.25))
		if err != nil {
			t.Fatalf("Failed to marshal: %v", err)
		}
		var f Float
		if err := UnmarshalValue(av, &f); err != nil || f != 3.25 {
			t.Errorf("Expected 3.25, got %v (%v)", f, err)
		}
	})

	t.Run("Float rejects NaN", func(t *testing.T) {
		_, err := MarshalValue[Number](Float(math.NaN()))
		var serr *SerializeError
		if !errors.As(err, &serr) {
			t.Errorf("Expected SerializeError, got %v", err)
		}
	})

	t.Run("Bytes", func(t *testing.T) {
		av, err := MarshalValue[[]byte](Bytes("raw"))
		if err != nil {
			t.Fatalf("Failed to marshal: %v", err)
		}
		var b Bytes
		if err := UnmarshalValue(av, &b); err != nil || string(b) != "raw" {
			t.Errorf("Expected raw, got %q (%v)", b, err)
		}
	})

	t.Run("Time", func(t *testing.T) {
		now := time.Date(2024, 5, 1, 12, 30, 0, 500, time.FixedZone("X", 3600))
		av, err := MarshalValue[string](Time{now})
		if err != nil {
			t.Fatalf("Failed to marshal: %v", err)
		}
		if s := av.(*types.AttributeValueMemberS).Value; s != "2024-05-01T11:30:00.0000005Z" {
			t.Errorf("Unexpected encoding %s", s)
		}
		var got Time
		if err := UnmarshalValue(av, &got); err != nil || !got.Equal(now) {
			t.Errorf("Expected %v, got %v (%v)", now, got, err)
		}
	})

	t.Run("Time rejects garbage", func(t *testing.T) {
		var got Time
		err := UnmarshalValue(&types.AttributeValueMemberS{Value: "yesterday"}, &got)
		if !errors.Is(err, ErrInvalidValue) {
			t.Errorf("Expected invalid value, got %v", err)
		}
	})

	t.Run("Document", func(t *testing.T) {
		in := &types.AttributeValueMemberBOOL{Value: true}
		var d Document
		if err := UnmarshalValue(in, &d); err != nil || d.Value != in {
			t.Errorf("Expected the same value, got %v (%v)", d.Value, err)
		}
	})
}

func TestUnmarshalValueMismatch(t *testing.T) {
	n := &types.AttributeValueMemberN{Value: "5"}
	var s String
	err := UnmarshalValue(n, &s)

	var derr *DeserializeError
	if !errors.As(err, &derr) {
		t.Fatalf("Expected DeserializeError, got %v", err)
	}
	if derr.Kind != UnexpectedValueType || derr.Expected != "S" || derr.Actual != n {
		t.Errorf("Expected UnexpectedValueType(S, N(5)), got %v", derr)
	}
	if !errors.Is(err, ErrUnexpectedValueType) {
		t.Error("Expected error to match ErrUnexpectedValueType")
	}
}

func TestMap(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		in := Map[string, Int, *Int]{"a": 1, "b": 2}
		av, err := MarshalValue[Document](in)
		if err != nil {
			t.Fatalf("Failed to marshal: %v", err)
		}
		m, ok := av.(*types.AttributeValueMemberM)
		if !ok {
			t.Fatalf("Expected M, got %T", av)
		}
		if m.Value["a"].(*types.AttributeValueMemberN).Value != "1" {
			t.Errorf("Unexpected entry %v", m.Value["a"])
		}

		var out Map[string, Int, *Int]
		if err := UnmarshalValue(av, &out); err != nil {
			t.Fatalf("Failed to unmarshal: %v", err)
		}
		if len(out) != 2 || out["a"] != 1 || out["b"] != 2 {
			t.Errorf("Expected %v, got %v", in, out)
		}
	})

	t.Run("one bad entry fails the whole map", func(t *testing.T) {
		av := &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"a": &types.AttributeValueMemberN{Value: "1"},
			"b": &types.AttributeValueMemberS{Value: "two"},
		}}

		out := Map[string, Int, *Int]{"kept": 7}
		err := UnmarshalValue(av, &out)
		var derr *DeserializeError
		if !errors.As(err, &derr) {
			t.Fatalf("Expected DeserializeError, got %v", err)
		}
		if derr.Kind != UnexpectedValueType || derr.Field != "b" {
			t.Errorf("Expected UnexpectedValueType on b, got %v", derr)
		}
		if len(out) != 1 || out["kept"] != 7 {
			t.Errorf("Expected no partial result, got %v", out)
		}
	})

	t.Run("string entries reject N", func(t *testing.T) {
		av := &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"a": &types.AttributeValueMemberS{Value: "x"},
			"b": &types.AttributeValueMemberN{Value: "5"},
		}}

		var out Map[string, String, *String]
		err := UnmarshalValue(av, &out)
		var derr *DeserializeError
		if !errors.As(err, &derr) || derr.Kind != UnexpectedValueType || derr.Field != "b" {
			t.Fatalf("Expected UnexpectedValueType on b, got %v", err)
		}
		if derr.Expected != "S" || derr.Actual != av.Value["b"] {
			t.Errorf("Expected S with the original value, got %s and %v", derr.Expected, derr.Actual)
		}
		if out != nil {
			t.Errorf("Expected no partial result, got %v", out)
		}
	})

	t.Run("nested maps", func(t *testing.T) {
		in := Map[string, Map[string, Int, *Int], *Map[string, Int, *Int]]{
			"outer": {"inner": 3},
		}
		av, err := MarshalValue[Document](in)
		if err != nil {
			t.Fatalf("Failed to marshal: %v", err)
		}

		var out Map[string, Map[string, Int, *Int], *Map[string, Int, *Int]]
		if err := UnmarshalValue(av, &out); err != nil {
			t.Fatalf("Failed to unmarshal: %v", err)
		}
		if out["outer"]["inner"] != 3 {
			t.Errorf("Expected %v, got %v", in, out)
		}
	})

	t.Run("requires M", func(t *testing.T) {
		var out Map[string, String, *String]
		err := UnmarshalValue(&types.AttributeValueMemberS{Value: "x"}, &out)
		var derr *DeserializeError
		if !errors.As(err, &derr) || derr.Expected != "M" {
			t.Errorf("Expected UnexpectedValueType(M), got %v", err)
		}
	})
}

func TestAttributeValueBridge(t *testing.T) {
	av, err := attributevalue.Marshal(String("x"))
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if _, ok := av.(*types.AttributeValueMemberS); !ok {
		t.Errorf("Expected S, got %T", av)
	}

	var i Int
	err = attributevalue.Unmarshal(&types.AttributeValueMemberS{Value: "1"}, &i)
	if !errors.Is(err, ErrUnexpectedValueType) {
		t.Errorf("Expected the tag check to apply, got %v", err)
	}
}

func TestForeignDecodeErrorReportedOnce(t *testing.T) {
	var v failingUnmarshaler
	err := UnmarshalValue(&types.AttributeValueMemberS{Value: "x"}, &v)
	if !errors.Is(err, ErrInvalidValue) || !errors.Is(err, errBoom) {
		t.Fatalf("Expected invalid value wrapping boom, got %v", err)
	}
	if got := err.Error(); got != "deserialize: invalid value: boom" {
		t.Errorf("Unexpected message %q", got)
	}
}

type failingUnmarshaler struct{}

func (*failingUnmarshaler) UnmarshalRaw(string) error { return errBoom }
