// Package dynamock provides testing utilities for the amo library.
//
// This package includes:
//   - Expectation-based mock DynamoDB client for unit testing
//   - An in-memory client that stores items per table
//   - Local DynamoDB integration utilities
//   - Raw item builders with functional options
//   - Test data seeding helpers, including JSON fixtures
//   - Integration test utilities with automatic cleanup
//
// # Mock Client
//
// The MockClient provides an expectation-based mock implementation where you set
// expectations for specific operations. Operations without an expectation fail
// the test:
//
//	mock := dynamock.NewMockClient(t)
//
//	// Set expectation for PutItem
//	mock.PutFunc = func(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
//		// Verify the operation parameters
//		return &dynamodb.PutItemOutput{}, nil
//	}
//
//	tags := amo.NewHashRangeTable[Tag]("tags", mock, amo.Key("resource", amo.S), amo.Key("key", amo.S))
//	_, err := tags.Put(tag).Send(ctx)
//
// # Memory Client
//
// The MemoryClient keeps items in memory, keyed by the schema of each table.
// It understands the key conditions amo builds, so typed queries behave as
// they would against DynamoDB:
//
//	client := dynamock.NewMemoryClient(tags.Schema())
//	_, err := tags.Put(tag).Send(ctx)
//	out, err := tags.Query(arn).BeginsWith(amo.String("team")).Send(ctx)
//
// # Item Builders
//
// Raw items are built with functional options. The resulting TestItem
// implements the amo item interfaces, so it can be written with PutRaw or
// read back untyped:
//
//	item := dynamock.NewItem(
//		dynamock.WithString("resource", "arn:aws:s3:::bucket"),
//		dynamock.WithString("key", "env"),
//		dynamock.WithValue[amo.Number]("version", amo.Int(3)),
//	).Build()
//
//	raw := amo.NewTable[dynamock.TestItem]("tags", client)
//	_, err := raw.PutRaw(item).Send(ctx)
//
// # Local DynamoDB
//
// For integration testing, the package provides utilities to work with
// local DynamoDB instances:
//
//	// Simple client creation
//	client := dynamock.NewLocalClient(8000)
//
//	// Full local DynamoDB instance with utilities
//	local := dynamock.NewLocalDynamoDB(8000)
//	if local.IsAvailable(ctx) {
//		err := local.CreateTable(ctx, tags.Schema())
//		// ... run tests
//		err = local.DeleteTable(ctx, "tags")
//	}
//
// # Integration Test Helpers
//
// The package provides several helpers for integration testing:
//
//	// Isolated table that's automatically cleaned up
//	dynamock.WithIsolatedTable(t, client, tags.Schema(), func(tableName string) {
//		// Your test code here
//	})
//
//	// Skips without DynamoDB Local, then runs against an isolated copy
//	dynamock.RunIntegrationTest(t, tags.Schema(), func(local *dynamock.LocalDynamoDB, tableName string) {
//		// Your integration test code here
//	})
//
// # Test Data Seeding
//
// Easily seed test data into tables:
//
//	seeder := dynamock.NewSeedTestData(client, tableName)
//
//	// Seed a single item
//	err := seeder.SeedItem(ctx, tag)
//
//	// Seed multiple items
//	err := seeder.SeedItems(ctx, tag1, tag2, tag3)
//
//	// Seed a JSON array of objects
//	n, err := seeder.SeedFromJSON(ctx, file)
//
// # Table Management
//
// Automatic table lifecycle management for tests:
//
//	tm := dynamock.NewTableManager(client)
//
//	// Create tables (automatically tracked)
//	err := tm.CreateTestTable(ctx, tags.Schema())
//	err := tm.CreateTestTable(ctx, cursors.Table().Schema())
//
//	// Cleanup all created tables
//	defer tm.Cleanup(ctx)
package dynamock
