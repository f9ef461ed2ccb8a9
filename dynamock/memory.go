package dynamock

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"math/big"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/nisimpson/amo"
)

// MemoryClient is an in-memory amo.Client for unit tests. Each registered
// table keeps its items keyed by the table's key attributes.
//
// Queries understand the key conditions built by amo operations: partition
// equality, optionally combined with one comparison, BETWEEN or begins_with
// on the range key. Conditions on writes are limited to attribute_exists
// and attribute_not_exists. Filter expressions are not supported.
type MemoryClient struct {
	mu     sync.RWMutex
	tables map[string]*memoryTable
}

type memoryTable struct {
	schema amo.TableSchema
	items  map[string]amo.Item
}

var _ amo.Client = (*MemoryClient)(nil)

// NewMemoryClient creates a MemoryClient with the given tables.
//
//	client := dynamock.NewMemoryClient(tags.Schema())
func NewMemoryClient(schemas ...amo.TableSchema) *MemoryClient {
	m := &MemoryClient{tables: make(map[string]*memoryTable)}
	for _, schema := range schemas {
		m.CreateTable(schema)
	}
	return m
}

// CreateTable registers an empty table, replacing any table with the same name.
func (m *MemoryClient) CreateTable(schema amo.TableSchema) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[schema.Name] = &memoryTable{schema: schema, items: make(map[string]amo.Item)}
}

// Items returns a snapshot of the items of a table, ordered by key.
func (m *MemoryClient) Items(tableName string) []amo.Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	table, ok := m.tables[tableName]
	if !ok {
		return nil
	}
	return table.sorted()
}

func (m *MemoryClient) table(name *string) (*memoryTable, error) {
	table, ok := m.tables[aws.ToString(name)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found: " + aws.ToString(name))}
	}
	return table, nil
}

func validationError(format string, args ...any) error {
	return &smithy.GenericAPIError{Code: "ValidationException", Message: fmt.Sprintf(format, args...)}
}

// encodeKey renders the key attributes of item as a map key.
func encodeKey(item amo.Item, keys []amo.KeyAttribute) (string, error) {
	var b strings.Builder
	for _, k := range keys {
		av, ok := item[k.Name]
		if !ok {
			return "", validationError("missing key attribute %s", k.Name)
		}
		switch v := av.(type) {
		case *types.AttributeValueMemberS:
			b.WriteString("S:" + v.Value)
		case *types.AttributeValueMemberN:
			b.WriteString("N:" + v.Value)
		case *types.AttributeValueMemberB:
			b.WriteString("B:" + string(v.Value))
		default:
			return "", validationError("key attribute %s must be S, N or B", k.Name)
		}
		b.WriteByte(0)
	}
	return b.String(), nil
}

func (t *memoryTable) sorted() []amo.Item {
	keys := make([]string, 0, len(t.items))
	for k := range t.items {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	items := make([]amo.Item, 0, len(keys))
	for _, k := range keys {
		items = append(items, maps.Clone(t.items[k]))
	}
	return items
}

func (m *MemoryClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	table, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	key, err := encodeKey(params.Key, table.schema.Keys)
	if err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: maps.Clone(table.items[key])}, nil
}

func (m *MemoryClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	table, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	key, err := encodeKey(params.Item, table.schema.Keys)
	if err != nil {
		return nil, err
	}
	if err := checkCondition(params.ConditionExpression, params.ExpressionAttributeNames, table.items[key]); err != nil {
		return nil, err
	}
	table.items[key] = maps.Clone(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (m *MemoryClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	table, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	key, err := encodeKey(params.Key, table.schema.Keys)
	if err != nil {
		return nil, err
	}
	if err := checkCondition(params.ConditionExpression, params.ExpressionAttributeNames, table.items[key]); err != nil {
		return nil, err
	}
	delete(table.items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *MemoryClient) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	table, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	if params.FilterExpression != nil {
		return nil, validationError("filter expressions are not supported")
	}

	items, lastKey, err := page(table.sorted(), params.ExclusiveStartKey, params.Limit, table.schema.Keys, table.schema.Keys)
	if err != nil {
		return nil, err
	}
	return &dynamodb.ScanOutput{
		Items:            items,
		Count:            int32(len(items)),
		ScannedCount:     int32(len(items)),
		LastEvaluatedKey: lastKey,
	}, nil
}

func (m *MemoryClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	table, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	if params.FilterExpression != nil {
		return nil, validationError("filter expressions are not supported")
	}

	keys := table.schema.Keys
	if params.IndexName != nil {
		idx := slices.IndexFunc(table.schema.Indexes, func(i amo.IndexSchema) bool {
			return i.Name == aws.ToString(params.IndexName)
		})
		if idx < 0 {
			return nil, validationError("table %s has no index %s", table.schema.Name, aws.ToString(params.IndexName))
		}
		keys = table.schema.Indexes[idx].Keys
	}

	cond, err := parseKeyCondition(aws.ToString(params.KeyConditionExpression), params.ExpressionAttributeNames, params.ExpressionAttributeValues)
	if err != nil {
		return nil, err
	}

	var matched []amo.Item
	for _, item := range table.sorted() {
		if hasKeys(item, keys) && cond.match(item) {
			matched = append(matched, item)
		}
	}
	if len(keys) > 1 {
		rangeName := keys[1].Name
		slices.SortStableFunc(matched, func(a, b amo.Item) int {
			c, _ := compareValues(a[rangeName], b[rangeName])
			return c
		})
	}
	if params.ScanIndexForward != nil && !*params.ScanIndexForward {
		slices.Reverse(matched)
	}

	items, lastKey, err := page(matched, params.ExclusiveStartKey, params.Limit, table.schema.Keys, keys)
	if err != nil {
		return nil, err
	}
	return &dynamodb.QueryOutput{
		Items:            items,
		Count:            int32(len(items)),
		ScannedCount:     int32(len(items)),
		LastEvaluatedKey: lastKey,
	}, nil
}

// hasKeys reports whether item carries every key attribute. Items missing
// an index key are not part of the index.
func hasKeys(item amo.Item, keys []amo.KeyAttribute) bool {
	for _, k := range keys {
		if _, ok := item[k.Name]; !ok {
			return false
		}
	}
	return true
}

// page applies a start key and a limit to ordered items.
func page(items []amo.Item, startKey amo.Item, limit *int32, tableKeys, readKeys []amo.KeyAttribute) ([]amo.Item, amo.Item, error) {
	if len(startKey) > 0 {
		start, err := encodeKey(startKey, tableKeys)
		if err != nil {
			return nil, nil, err
		}
		for i, item := range items {
			if key, _ := encodeKey(item, tableKeys); key == start {
				items = items[i+1:]
				break
			}
		}
	}

	n := int(aws.ToInt32(limit))
	if n <= 0 || len(items) <= n {
		return items, nil, nil
	}

	items = items[:n]
	last := items[n-1]
	lastKey := make(amo.Item)
	for _, k := range append(slices.Clone(tableKeys), readKeys...) {
		if av, ok := last[k.Name]; ok {
			lastKey[k.Name] = av
		}
	}
	return items, lastKey, nil
}

var existsCondition = regexp.MustCompile(`^attribute_(not_)?exists \((#\w+)\)$`)

func checkCondition(expr *string, names map[string]string, existing amo.Item) error {
	if expr == nil {
		return nil
	}
	m := existsCondition.FindStringSubmatch(*expr)
	if m == nil {
		return fmt.Errorf("dynamock: unsupported condition %q", *expr)
	}
	_, exists := existing[names[m[2]]]
	if (m[1] == "not_" && exists) || (m[1] == "" && !exists) {
		return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	return nil
}

var (
	keyCondAnd     = regexp.MustCompile(`^\((.+?)\) AND \((.+)\)$`)
	keyCondCompare = regexp.MustCompile(`^(#\w+) (=|<|<=|>|>=) (:\w+)$`)
	keyCondBetween = regexp.MustCompile(`^(#\w+) BETWEEN (:\w+) AND (:\w+)$`)
	keyCondBegins  = regexp.MustCompile(`^begins_with \((#\w+), (:\w+)\)$`)
)

type keyCondition struct {
	hashName  string
	hash      types.AttributeValue
	rangeName string
	op        string
	values    []types.AttributeValue
}

func parseKeyCondition(expr string, names map[string]string, values map[string]types.AttributeValue) (keyCondition, error) {
	var c keyCondition
	hashExpr, rangeExpr := expr, ""
	if m := keyCondAnd.FindStringSubmatch(expr); m != nil {
		hashExpr, rangeExpr = m[1], m[2]
	}

	m := keyCondCompare.FindStringSubmatch(hashExpr)
	if m == nil || m[2] != "=" {
		return c, fmt.Errorf("dynamock: unsupported key condition %q", expr)
	}
	c.hashName, c.hash = names[m[1]], values[m[3]]

	if rangeExpr == "" {
		return c, nil
	}
	if m := keyCondCompare.FindStringSubmatch(rangeExpr); m != nil {
		c.rangeName, c.op, c.values = names[m[1]], m[2], []types.AttributeValue{values[m[3]]}
		return c, nil
	}
	if m := keyCondBetween.FindStringSubmatch(rangeExpr); m != nil {
		c.rangeName, c.op, c.values = names[m[1]], "BETWEEN", []types.AttributeValue{values[m[2]], values[m[3]]}
		return c, nil
	}
	if m := keyCondBegins.FindStringSubmatch(rangeExpr); m != nil {
		c.rangeName, c.op, c.values = names[m[1]], "begins_with", []types.AttributeValue{values[m[2]]}
		return c, nil
	}
	return c, fmt.Errorf("dynamock: unsupported key condition %q", expr)
}

func (c keyCondition) match(item amo.Item) bool {
	if cmp, ok := compareValues(item[c.hashName], c.hash); !ok || cmp != 0 {
		return false
	}
	if c.op == "" {
		return true
	}

	v, ok := item[c.rangeName]
	if !ok {
		return false
	}
	switch c.op {
	case "begins_with":
		switch v := v.(type) {
		case *types.AttributeValueMemberS:
			p, ok := c.values[0].(*types.AttributeValueMemberS)
			return ok && strings.HasPrefix(v.Value, p.Value)
		case *types.AttributeValueMemberB:
			p, ok := c.values[0].(*types.AttributeValueMemberB)
			return ok && bytes.HasPrefix(v.Value, p.Value)
		}
		return false
	case "BETWEEN":
		lo, ok1 := compareValues(v, c.values[0])
		hi, ok2 := compareValues(v, c.values[1])
		return ok1 && ok2 && lo >= 0 && hi <= 0
	}

	cmp, ok := compareValues(v, c.values[0])
	if !ok {
		return false
	}
	switch c.op {
	case "=":
		return cmp == 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	}
	return false
}

// compareValues orders two scalar values of the same type.
func compareValues(a, b types.AttributeValue) (int, bool) {
	switch a := a.(type) {
	case *types.AttributeValueMemberS:
		if b, ok := b.(*types.AttributeValueMemberS); ok {
			return strings.Compare(a.Value, b.Value), true
		}
	case *types.AttributeValueMemberN:
		if b, ok := b.(*types.AttributeValueMemberN); ok {
			x, okx := new(big.Float).SetString(a.Value)
			y, oky := new(big.Float).SetString(b.Value)
			if okx && oky {
				return x.Cmp(y), true
			}
		}
	case *types.AttributeValueMemberB:
		if b, ok := b.(*types.AttributeValueMemberB); ok {
			return bytes.Compare(a.Value, b.Value), true
		}
	}
	return 0, false
}
