package amo

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Index is a secondary index of a table, keyed by a hash attribute of raw
// type H and a range attribute of raw type R. Queries on an index decode
// into the table's item type, so the index must project every attribute
// the item requires.
type Index[I any, P ItemPtr[I], H, R KeyRaw] struct {
	table *Table[I, P]
	name  string
	hash  KeyDef[H]
	rng   KeyDef[R]
}

// NewIndex declares a secondary index of table and records it in the
// table's schema. Declare indexes while setting up the table, before it is
// shared.
//
//	byAccount := amo.NewIndex(tags.Table, "by-account", amo.Key("account", amo.S), amo.Key("key", amo.S))
func NewIndex[I any, P ItemPtr[I], H, R KeyRaw](table *Table[I, P], name string, hash KeyDef[H], rng KeyDef[R]) *Index[I, P, H, R] {
	table.indexes = append(table.indexes, IndexSchema{
		Name: name,
		Keys: []KeyAttribute{
			hash.attribute(types.KeyTypeHash),
			rng.attribute(types.KeyTypeRange),
		},
	})
	return &Index[I, P, H, R]{table: table, name: name, hash: hash, rng: rng}
}

// Name returns the index name.
func (x *Index[I, P, H, R]) Name() string {
	return x.name
}

// HashKey returns the declared hash key of the index.
func (x *Index[I, P, H, R]) HashKey() KeyDef[H] {
	return x.hash
}

// RangeKey returns the declared range key of the index.
func (x *Index[I, P, H, R]) RangeKey() KeyDef[R] {
	return x.rng
}

// Query reads the items of one index partition, in index range key order.
func (x *Index[I, P, H, R]) Query(hash ValueMarshaler[H]) *Query[I, P, R] {
	t := x.table
	return newQuery[I, P, R](t.operation("Query"), x.name, x.rng.Name, Attr(x.hash.Name, hash), t.opts.ReturnConsumedCapacity)
}
