package dynamock

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/amo"
)

// DefaultLocalPort is the port DynamoDB Local listens on unless told otherwise.
const DefaultLocalPort = 8000

// tableWait bounds table creation and deletion. DynamoDB Local finishes
// both almost immediately.
const tableWait = 30 * time.Second

// LocalDynamoDB is a DynamoDB Local instance on localhost.
type LocalDynamoDB struct {
	Client   *dynamodb.Client
	Endpoint string
	Port     int
}

// NewLocalClient returns a client for DynamoDB Local on port. DynamoDB Local
// ignores the region and accepts anonymous requests.
//
//	tags := amo.NewHashTable[Tag]("tags", dynamock.NewLocalClient(8000), amo.Key("resource", amo.S))
func NewLocalClient(port int) *dynamodb.Client {
	return dynamodb.New(dynamodb.Options{
		Region:       "us-east-1",
		Credentials:  aws.AnonymousCredentials{},
		BaseEndpoint: aws.String(localEndpoint(port)),
	})
}

// NewLocalDynamoDB returns a LocalDynamoDB for port.
func NewLocalDynamoDB(port int) *LocalDynamoDB {
	return &LocalDynamoDB{
		Client:   NewLocalClient(port),
		Endpoint: localEndpoint(port),
		Port:     port,
	}
}

func localEndpoint(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}

// IsAvailable reports whether something answering ListTables listens on the
// port.
func (l *LocalDynamoDB) IsAvailable(ctx context.Context) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("localhost:%d", l.Port), 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()

	_, err = l.Client.ListTables(ctx, &dynamodb.ListTablesInput{})
	return err == nil
}

// WaitForAvailable polls IsAvailable until it succeeds or timeout elapses.
func (l *LocalDynamoDB) WaitForAvailable(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tick := time.NewTicker(500 * time.Millisecond)
	defer tick.Stop()
	for !l.IsAvailable(ctx) {
		select {
		case <-ctx.Done():
			return fmt.Errorf("DynamoDB Local not available at %s after %v", l.Endpoint, timeout)
		case <-tick.C:
		}
	}
	return nil
}

// CreateTable creates a table, and its global secondary indexes, from an
// amo table schema, then waits for it to become active.
//
//	err := local.CreateTable(ctx, tags.Schema())
func (l *LocalDynamoDB) CreateTable(ctx context.Context, schema amo.TableSchema) error {
	input, err := CreateTableInput(schema)
	if err != nil {
		return err
	}
	if _, err := l.Client.CreateTable(ctx, input); err != nil {
		return fmt.Errorf("failed to create table %s: %w", schema.Name, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(l.Client, func(o *dynamodb.TableExistsWaiterOptions) {
		o.MinDelay, o.MaxDelay = time.Second, 5*time.Second
	})
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: input.TableName}, tableWait); err != nil {
		return fmt.Errorf("table %s did not become active: %w", schema.Name, err)
	}
	return nil
}

// CreateTableInput converts an amo table schema into an on-demand
// CreateTable request. Opaque key attributes cannot be declared and are
// rejected.
func CreateTableInput(schema amo.TableSchema) (*dynamodb.CreateTableInput, error) {
	if len(schema.Keys) == 0 {
		return nil, fmt.Errorf("table %s declares no key", schema.Name)
	}

	input := &dynamodb.CreateTableInput{
		TableName:   aws.String(schema.Name),
		BillingMode: types.BillingModePayPerRequest,
	}

	// Attributes shared by the table and its indexes are defined once.
	defined := make(map[string]bool)
	keySchema := func(keys []amo.KeyAttribute) ([]types.KeySchemaElement, error) {
		elements := make([]types.KeySchemaElement, 0, len(keys))
		for _, k := range keys {
			scalar, ok := k.ScalarType()
			if !ok {
				return nil, fmt.Errorf("key attribute %s of type %s cannot be declared", k.Name, k.Type)
			}
			if !defined[k.Name] {
				defined[k.Name] = true
				input.AttributeDefinitions = append(input.AttributeDefinitions, types.AttributeDefinition{
					AttributeName: aws.String(k.Name),
					AttributeType: scalar,
				})
			}
			elements = append(elements, types.KeySchemaElement{
				AttributeName: aws.String(k.Name),
				KeyType:       k.KeyType,
			})
		}
		return elements, nil
	}

	var err error
	if input.KeySchema, err = keySchema(schema.Keys); err != nil {
		return nil, fmt.Errorf("table %s: %w", schema.Name, err)
	}
	for _, index := range schema.Indexes {
		indexKeys, err := keySchema(index.Keys)
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", index.Name, err)
		}
		input.GlobalSecondaryIndexes = append(input.GlobalSecondaryIndexes, types.GlobalSecondaryIndex{
			IndexName:  aws.String(index.Name),
			KeySchema:  indexKeys,
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		})
	}
	return input, nil
}

// EnableTimeToLive makes DynamoDB expire items by the named N attribute,
// such as the "expires" attribute of a pagination cursor table.
func (l *LocalDynamoDB) EnableTimeToLive(ctx context.Context, tableName, attribute string) error {
	_, err := l.Client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			AttributeName: aws.String(attribute),
			Enabled:       aws.Bool(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to enable ttl on %s: %w", tableName, err)
	}
	return nil
}

// DeleteTable deletes a table and waits until DescribeTable no longer
// finds it.
func (l *LocalDynamoDB) DeleteTable(ctx context.Context, tableName string) error {
	if _, err := l.Client.DeleteTable(ctx, &dynamodb.DeleteTableInput{TableName: aws.String(tableName)}); err != nil {
		return fmt.Errorf("failed to delete table %s: %w", tableName, err)
	}

	waiter := dynamodb.NewTableNotExistsWaiter(l.Client, func(o *dynamodb.TableNotExistsWaiterOptions) {
		o.MinDelay, o.MaxDelay = time.Second, 5*time.Second
	})
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(tableName)}, tableWait); err != nil {
		return fmt.Errorf("table %s was not deleted: %w", tableName, err)
	}
	return nil
}

// ListTables returns the names of the tables of the instance.
func (l *LocalDynamoDB) ListTables(ctx context.Context) ([]string, error) {
	var names []string
	pages := dynamodb.NewListTablesPaginator(l.Client, &dynamodb.ListTablesInput{})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list tables: %w", err)
		}
		names = append(names, page.TableNames...)
	}
	return names, nil
}
