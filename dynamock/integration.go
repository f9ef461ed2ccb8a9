package dynamock

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/nisimpson/amo"
)

// TableManager creates tables on a DynamoDB instance and remembers them so
// they can be deleted together.
type TableManager struct {
	local  *LocalDynamoDB
	tables []string
}

// NewTableManager creates a TableManager for client.
func NewTableManager(client *dynamodb.Client) *TableManager {
	return &TableManager{local: &LocalDynamoDB{Client: client}}
}

// CreateTestTable creates the table described by schema and tracks it.
func (tm *TableManager) CreateTestTable(ctx context.Context, schema amo.TableSchema) error {
	if err := tm.local.CreateTable(ctx, schema); err != nil {
		return err
	}
	tm.tables = append(tm.tables, schema.Name)
	return nil
}

// Cleanup deletes every tracked table. Tables deleted before a failure are
// forgotten.
func (tm *TableManager) Cleanup(ctx context.Context) error {
	for len(tm.tables) > 0 {
		name := tm.tables[0]
		if err := tm.local.DeleteTable(ctx, name); err != nil {
			return err
		}
		tm.tables = tm.tables[1:]
	}
	return nil
}

// Tables returns the names of the tracked tables.
func (tm *TableManager) Tables() []string {
	return slices.Clone(tm.tables)
}

// NewTestTable returns prefix with a unique suffix.
func NewTestTable(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// sanitizeTableName keeps the characters DynamoDB allows in table names.
func sanitizeTableName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			return r
		}
		return '-'
	}, name)
}

// WithLocalDynamoDB runs fn against DynamoDB Local on port. The test is
// skipped in short mode or when nothing answers on the port.
func WithLocalDynamoDB(t *testing.T, port int, fn func(local *LocalDynamoDB)) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	local := NewLocalDynamoDB(port)
	if !local.IsAvailable(context.Background()) {
		t.Skipf("DynamoDB Local not available on port %d", port)
	}
	fn(local)
}

// WithIsolatedTable creates a copy of the table described by schema under
// a name unique to the test, runs fn, and deletes the copy when fn returns.
func WithIsolatedTable(t *testing.T, client *dynamodb.Client, schema amo.TableSchema, fn func(tableName string)) {
	t.Helper()
	ctx := context.Background()
	schema.Name = NewTestTable(schema.Name + "-" + sanitizeTableName(t.Name()))

	tm := NewTableManager(client)
	if err := tm.CreateTestTable(ctx, schema); err != nil {
		t.Fatalf("Failed to create test table %s: %v", schema.Name, err)
	}
	defer func() {
		if err := tm.Cleanup(ctx); err != nil {
			t.Errorf("Failed to clean up table %s: %v", schema.Name, err)
		}
	}()

	fn(schema.Name)
}

// RunIntegrationTest runs fn against an isolated copy of the table described
// by schema on DynamoDB Local at DefaultLocalPort.
func RunIntegrationTest(t *testing.T, schema amo.TableSchema, fn func(local *LocalDynamoDB, tableName string)) {
	t.Helper()
	WithLocalDynamoDB(t, DefaultLocalPort, func(local *LocalDynamoDB) {
		WithIsolatedTable(t, local.Client, schema, func(tableName string) {
			fn(local, tableName)
		})
	})
}

// SeedTestData puts items into one table.
type SeedTestData struct {
	table *amo.Table[TestItem, *TestItem]
}

// NewSeedTestData creates a seeder for tableName.
func NewSeedTestData(client amo.Client, tableName string) *SeedTestData {
	return &SeedTestData{table: amo.NewTable[TestItem](tableName, client)}
}

// SeedItem puts one item.
func (s *SeedTestData) SeedItem(ctx context.Context, item amo.ItemMarshaler) error {
	if _, err := s.table.PutRaw(item).Send(ctx); err != nil {
		return fmt.Errorf("failed to put item: %w", err)
	}
	return nil
}

// SeedItems puts items in order and stops at the first failure.
func (s *SeedTestData) SeedItems(ctx context.Context, items ...amo.ItemMarshaler) error {
	for _, item := range items {
		if err := s.SeedItem(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// AssertTableExists fails the test unless DescribeTable finds tableName.
func AssertTableExists(t testing.TB, client *dynamodb.Client, tableName string) {
	t.Helper()
	if err := describeTable(client, tableName); err != nil {
		t.Errorf("Table %s does not exist: %v", tableName, err)
	}
}

// AssertTableNotExists fails the test if DescribeTable finds tableName.
func AssertTableNotExists(t testing.TB, client *dynamodb.Client, tableName string) {
	t.Helper()
	if describeTable(client, tableName) == nil {
		t.Errorf("Table %s should not exist but it does", tableName)
	}
}

func describeTable(client *dynamodb.Client, tableName string) error {
	_, err := client.DescribeTable(context.Background(), &dynamodb.DescribeTableInput{TableName: aws.String(tableName)})
	return err
}
