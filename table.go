package amo

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Client is the subset of the DynamoDB API used by tables. *dynamodb.Client
// satisfies it; so do the decorators in the transport package and the mocks
// in dynamock. A Client is shared by every operation of a table and must be
// safe for concurrent use.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Clock is a function type that returns the current time for dependency injection.
type Clock func() time.Time

// DefaultClock returns the current UTC time.
func DefaultClock() time.Time {
	return time.Now().UTC()
}

// TableOptions configures a table.
type TableOptions struct {
	Logger                 *slog.Logger                 // Receives one debug record per request. Default discards.
	ReturnConsumedCapacity types.ReturnConsumedCapacity // Applied to every request of the table
	Tick                   Clock                        // Function to get current time
}

func newTableOptions(opts []func(*TableOptions)) TableOptions {
	options := TableOptions{
		Logger: slog.New(slog.DiscardHandler),
		Tick:   DefaultClock,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// WithLogger sets the logger of a table.
func WithLogger(logger *slog.Logger) func(*TableOptions) {
	return func(o *TableOptions) {
		o.Logger = logger
	}
}

// ItemPtr constrains P to be a pointer to I that can decode items.
type ItemPtr[I any] interface {
	*I
	ItemUnmarshaler
}

// KeyDef declares a key attribute: its name and the attribute type of the
// values stored under it.
type KeyDef[R KeyRaw] struct {
	Name string
	Type AttributeType[R]
}

// Key declares a key attribute.
//
//	amo.Key("resource", amo.S)
func Key[R KeyRaw](name string, t AttributeType[R]) KeyDef[R] {
	return KeyDef[R]{Name: name, Type: t}
}

func (k KeyDef[R]) attribute(keyType types.KeyType) KeyAttribute {
	return KeyAttribute{Name: k.Name, Type: k.Type.Name(), KeyType: keyType}
}

// KeyAttribute is the runtime description of a declared key attribute.
type KeyAttribute struct {
	Name    string        // Attribute name
	Type    string        // Attribute type name ("S", "N", "B" or "<any>")
	KeyType types.KeyType // HASH or RANGE
}

// ScalarType returns the scalar attribute type used in a key schema.
// Opaque keys have none.
func (k KeyAttribute) ScalarType() (types.ScalarAttributeType, bool) {
	return scalarType(k.Type)
}

// IndexSchema describes a secondary index registered with [NewIndex].
type IndexSchema struct {
	Name string
	Keys []KeyAttribute
}

// TableSchema describes a table's key layout.
type TableSchema struct {
	Name    string
	Keys    []KeyAttribute
	Indexes []IndexSchema
}

// Table binds a table name and a client to an item type I. Tables hold no
// mutable state once constructed and may be shared by concurrent callers.
type Table[I any, P ItemPtr[I]] struct {
	name    string
	client  Client
	keys    []KeyAttribute
	indexes []IndexSchema
	opts    TableOptions
}

// NewTable creates a Table without declared keys. Such a table can put and
// scan; use [NewHashTable] or [NewHashRangeTable] for key based operations.
func NewTable[I any, P ItemPtr[I]](name string, client Client, opts ...func(*TableOptions)) *Table[I, P] {
	return &Table[I, P]{
		name:   name,
		client: client,
		opts:   newTableOptions(opts),
	}
}

// Name returns the table name.
func (t *Table[I, P]) Name() string {
	return t.name
}

// Client returns the client shared by the table's operations.
func (t *Table[I, P]) Client() Client {
	return t.client
}

// Schema returns the declared keys and registered indexes.
func (t *Table[I, P]) Schema() TableSchema {
	schema := TableSchema{
		Name: t.name,
		Keys: append([]KeyAttribute(nil), t.keys...),
	}
	for _, idx := range t.indexes {
		schema.Indexes = append(schema.Indexes, IndexSchema{
			Name: idx.Name,
			Keys: append([]KeyAttribute(nil), idx.Keys...),
		})
	}
	return schema
}

func (t *Table[I, P]) operation(op string) operation {
	return operation{
		op:     op,
		table:  t.name,
		client: t.client,
		logger: t.opts.Logger,
	}
}

// Put stores item, replacing any item with the same key. I must implement
// [ItemMarshaler], with either receiver; otherwise Send fails.
func (t *Table[I, P]) Put(item I) *PutItem {
	m, ok := any(P(&item)).(ItemMarshaler)
	if !ok {
		return t.putItem(nil, NewSerializeError("%T does not implement ItemMarshaler", item))
	}
	return t.PutRaw(m)
}

// PutRaw stores any item, replacing any item with the same key.
func (t *Table[I, P]) PutRaw(item ItemMarshaler) *PutItem {
	encoded, err := MarshalItem(item)
	return t.putItem(encoded, err)
}

func (t *Table[I, P]) putItem(item Item, err error) *PutItem {
	var hashKey string
	if len(t.keys) > 0 {
		hashKey = t.keys[0].Name
	}
	return newPutItem(t.operation("PutItem"), item, hashKey, t.opts.ReturnConsumedCapacity, err)
}

// Scan reads every item of the table.
func (t *Table[I, P]) Scan() *Scan[I, P] {
	return newScan[I, P](t.operation("Scan"), t.opts.ReturnConsumedCapacity)
}

func (t *Table[I, P]) getItem(key Item, err error) *GetItem[I, P] {
	return newGetItem[I, P](t.operation("GetItem"), key, t.opts.ReturnConsumedCapacity, err)
}

func (t *Table[I, P]) deleteItem(key Item, err error) *DeleteItem {
	return newDeleteItem(t.operation("DeleteItem"), key, t.opts.ReturnConsumedCapacity, err)
}

// keyItem evaluates key fields into a key map.
func keyItem(fields ...Field) (Item, error) {
	key := make(Item, len(fields))
	for _, f := range fields {
		attr, err := f()
		if err != nil {
			return nil, err
		}
		key[attr.Name] = attr.Value
	}
	return key, nil
}

// HashTable is a table whose primary key is a single hash attribute of raw
// type H.
type HashTable[I any, P ItemPtr[I], H KeyRaw] struct {
	*Table[I, P]
	hash KeyDef[H]
}

// NewHashTable creates a HashTable.
//
//	users := amo.NewHashTable[User]("users", client, amo.Key("id", amo.S))
func NewHashTable[I any, P ItemPtr[I], H KeyRaw](name string, client Client, hash KeyDef[H], opts ...func(*TableOptions)) *HashTable[I, P, H] {
	table := NewTable[I, P](name, client, opts...)
	table.keys = []KeyAttribute{hash.attribute(types.KeyTypeHash)}
	return &HashTable[I, P, H]{Table: table, hash: hash}
}

// HashKey returns the declared hash key.
func (t *HashTable[I, P, H]) HashKey() KeyDef[H] {
	return t.hash
}

// Get reads the item with the given hash key. A hash value that fails to
// serialize is reported by Send.
func (t *HashTable[I, P, H]) Get(hash ValueMarshaler[H]) *GetItem[I, P] {
	return t.getItem(keyItem(Attr(t.hash.Name, hash)))
}

// Delete removes the item with the given hash key.
func (t *HashTable[I, P, H]) Delete(hash ValueMarshaler[H]) *DeleteItem {
	return t.deleteItem(keyItem(Attr(t.hash.Name, hash)))
}

// HashRangeTable is a table whose primary key is a hash attribute of raw type
// H and a range attribute of raw type R.
type HashRangeTable[I any, P ItemPtr[I], H, R KeyRaw] struct {
	*Table[I, P]
	hash KeyDef[H]
	rng  KeyDef[R]
}

// NewHashRangeTable creates a HashRangeTable.
//
//	tags := amo.NewHashRangeTable[Tag]("tags", client, amo.Key("resource", amo.S), amo.Key("key", amo.S))
func NewHashRangeTable[I any, P ItemPtr[I], H, R KeyRaw](name string, client Client, hash KeyDef[H], rng KeyDef[R], opts ...func(*TableOptions)) *HashRangeTable[I, P, H, R] {
	table := NewTable[I, P](name, client, opts...)
	table.keys = []KeyAttribute{
		hash.attribute(types.KeyTypeHash),
		rng.attribute(types.KeyTypeRange),
	}
	return &HashRangeTable[I, P, H, R]{Table: table, hash: hash, rng: rng}
}

// HashKey returns the declared hash key.
func (t *HashRangeTable[I, P, H, R]) HashKey() KeyDef[H] {
	return t.hash
}

// RangeKey returns the declared range key.
func (t *HashRangeTable[I, P, H, R]) RangeKey() KeyDef[R] {
	return t.rng
}

// Get reads the item with the given hash and range keys. If either value
// fails to serialize, the failure is reported by Send.
func (t *HashRangeTable[I, P, H, R]) Get(hash ValueMarshaler[H], rng ValueMarshaler[R]) *GetItem[I, P] {
	return t.getItem(keyItem(Attr(t.hash.Name, hash), Attr(t.rng.Name, rng)))
}

// Delete removes the item with the given hash and range keys.
func (t *HashRangeTable[I, P, H, R]) Delete(hash ValueMarshaler[H], rng ValueMarshaler[R]) *DeleteItem {
	return t.deleteItem(keyItem(Attr(t.hash.Name, hash), Attr(t.rng.Name, rng)))
}

// Query reads the items of one partition, in range key order.
func (t *HashRangeTable[I, P, H, R]) Query(hash ValueMarshaler[H]) *Query[I, P, R] {
	return newQuery[I, P, R](t.operation("Query"), "", t.rng.Name, Attr(t.hash.Name, hash), t.opts.ReturnConsumedCapacity)
}
