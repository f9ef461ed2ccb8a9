package amo

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/gob"
	"fmt"
	"iter"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func init() {
	// Register DynamoDB types with gob
	gob.Register(map[string]types.AttributeValue{})
	gob.Register(&types.AttributeValueMemberS{})
	gob.Register(&types.AttributeValueMemberN{})
	gob.Register(&types.AttributeValueMemberB{})
	gob.Register(&types.AttributeValueMemberSS{})
	gob.Register(&types.AttributeValueMemberNS{})
	gob.Register(&types.AttributeValueMemberBS{})
	gob.Register(&types.AttributeValueMemberM{})
	gob.Register(&types.AttributeValueMemberL{})
	gob.Register(&types.AttributeValueMemberNULL{})
	gob.Register(&types.AttributeValueMemberBOOL{})
}

// Attribute names of the cursor table.
const (
	AttributeNameCursor  = "cursor"
	AttributeNameKey     = "key"
	AttributeNameExpires = "expires"
)

// DefaultCursorTTL is how long a stored cursor stays valid.
const DefaultCursorTTL = 24 * time.Hour

// Paginator handles pagination by converting last evaluated keys into string
// cursors for clients, and in turn converting client cursors into start keys
// to continue paging of query results.
type Paginator interface {
	// PageCursor generates a string token from the provided start key. Implementors
	// should return an empty token if the start key is nil or empty.
	PageCursor(ctx context.Context, lastkey Item) (string, error)
	// StartKey generates a dynamodb start key from the provided cursor. Implementors
	// should return a nil item if the cursor is an empty string.
	StartKey(ctx context.Context, cursor string) (Item, error)
}

// PageCursor is a stored start key. Key is the gob encoded last evaluated
// key; Expires feeds the table's time-to-live attribute.
type PageCursor struct {
	Cursor  string
	Key     []byte
	Expires time.Time
}

func (p PageCursor) MarshalItem() iter.Seq2[Attribute, error] {
	return Fields(
		Attr[string](AttributeNameCursor, String(p.Cursor)),
		Attr[[]byte](AttributeNameKey, Bytes(p.Key)),
		OmitEmpty(p.Expires.IsZero(), Attr[Number](AttributeNameExpires, Int(p.Expires.Unix()))),
	)
}

func (p *PageCursor) UnmarshalItem(item Item) error {
	var (
		d       = NewItemDecoder("PageCursor", item)
		cursor  String
		key     Bytes
		expires Int
	)
	Require[string](d, AttributeNameCursor, &cursor)
	Require[[]byte](d, AttributeNameKey, &key)
	hasExpiry := Optional[Number](d, AttributeNameExpires, &expires)
	if err := d.Err(); err != nil {
		return err
	}

	*p = PageCursor{Cursor: string(cursor), Key: key}
	if hasExpiry {
		p.Expires = time.Unix(int64(expires), 0).UTC()
	}
	return nil
}

// TablePaginator implements Paginator by storing start keys in a table
// whose hash key is the S attribute "cursor". Configure "expires" as the
// table's time-to-live attribute to have DynamoDB purge old cursors.
type TablePaginator struct {
	table *HashTable[PageCursor, *PageCursor, string]
	ttl   time.Duration
	tick  Clock
}

// NewTablePaginator creates a TablePaginator over the named cursor table.
func NewTablePaginator(tableName string, client Client, opts ...func(*TableOptions)) *TablePaginator {
	table := NewHashTable[PageCursor](tableName, client, Key(AttributeNameCursor, S), opts...)
	return &TablePaginator{
		table: table,
		ttl:   DefaultCursorTTL,
		tick:  table.opts.Tick,
	}
}

// WithTTL sets how long new cursors stay valid.
func (t *TablePaginator) WithTTL(ttl time.Duration) *TablePaginator {
	t.ttl = ttl
	return t
}

// Table returns the cursor table.
func (t *TablePaginator) Table() *HashTable[PageCursor, *PageCursor, string] {
	return t.table
}

// PageCursor implements Paginator by storing the last evaluated key in the
// cursor table. If lastkey is empty, an empty string is returned.
func (t *TablePaginator) PageCursor(ctx context.Context, lastkey Item) (string, error) {
	if len(lastkey) == 0 {
		return "", nil
	}

	// Generate a unique cursor ID
	cursor, err := generateCursor()
	if err != nil {
		return "", fmt.Errorf("failed to generate cursor: %w", err)
	}

	// Encode as gob
	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)
	if err := encoder.Encode(lastkey); err != nil {
		return "", fmt.Errorf("failed to encode last key: %w", err)
	}

	pageCursor := PageCursor{
		Cursor:  cursor,
		Key:     buf.Bytes(),
		Expires: t.tick().Add(t.ttl),
	}

	if _, err := t.table.Put(pageCursor).Send(ctx); err != nil {
		return "", fmt.Errorf("failed to store page cursor: %w", err)
	}

	return cursor, nil
}

// StartKey implements Paginator by reading the cursor back. Unknown and
// expired cursors yield a nil key.
func (t *TablePaginator) StartKey(ctx context.Context, cursor string) (Item, error) {
	if cursor == "" {
		return nil, nil
	}

	out, err := t.table.Get(String(cursor)).Consistency(Strong).Send(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get page cursor: %w", err)
	}

	pageCursor := out.Item
	if pageCursor == nil {
		// Cursor not found or expired
		return nil, nil
	}
	if !pageCursor.Expires.IsZero() && !t.tick().Before(pageCursor.Expires) {
		return nil, nil
	}
	if len(pageCursor.Key) == 0 {
		return nil, nil
	}

	decoder := gob.NewDecoder(bytes.NewReader(pageCursor.Key))

	var keyData map[string]types.AttributeValue
	if err := decoder.Decode(&keyData); err != nil {
		return nil, fmt.Errorf("failed to decode last key: %w", err)
	}

	return keyData, nil
}

// MarshalStartKey marshals a page key into a page cursor to return to clients.
func MarshalStartKey(ctx context.Context, p Paginator, lastkey Item) (string, error) {
	return p.PageCursor(ctx, lastkey)
}

// UnmarshalStartKey unmarshals a page key from the provided cursor.
func UnmarshalStartKey(ctx context.Context, p Paginator, cursor string) (Item, error) {
	return p.StartKey(ctx, cursor)
}

// generateCursor creates a unique cursor string using current time and random bytes
func generateCursor() (string, error) {
	timestamp := time.Now().UnixNano()

	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}

	combined := fmt.Sprintf("%d_%s", timestamp, base64.URLEncoding.EncodeToString(randomBytes))

	// Encode as base64 for URL safety
	return base64.URLEncoding.EncodeToString([]byte(combined)), nil
}
