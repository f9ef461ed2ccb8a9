package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/nisimpson/amo"
)

// Arn is an Amazon Resource Name, stored as S.
type Arn string

func (a Arn) MarshalRaw() (string, error) {
	if !strings.HasPrefix(string(a), "arn:") {
		return "", amo.NewSerializeError("%q is not an ARN", string(a))
	}
	return string(a), nil
}

func (a *Arn) UnmarshalRaw(raw string) error {
	if !strings.HasPrefix(raw, "arn:") {
		return amo.InvalidValueError("%q is not an ARN", raw)
	}
	*a = Arn(raw)
	return nil
}

// Account returns the account ID field of the ARN. It is empty for
// resources that have none, such as S3 buckets.
func (a Arn) Account() string {
	parts := strings.SplitN(string(a), ":", 6)
	if len(parts) < 6 {
		return ""
	}
	return parts[4]
}

// Tag is one key/value tag attached to a resource.
type Tag struct {
	Resource Arn
	Key      string
	Value    string
	Account  string // Indexed by by-account; omitted when empty
}

func (t Tag) MarshalItem() iter.Seq2[amo.Attribute, error] {
	return amo.Fields(
		amo.Attr[string]("resource", t.Resource),
		amo.Attr[string]("key", amo.String(t.Key)),
		amo.Attr[string]("value", amo.String(t.Value)),
		amo.OmitEmpty(t.Account == "", amo.Attr[string]("account", amo.String(t.Account))),
	)
}

func (t *Tag) UnmarshalItem(item amo.Item) error {
	var (
		d                   = amo.NewItemDecoder("Tag", item)
		resource            Arn
		key, value, account amo.String
	)
	amo.Require[string](d, "resource", &resource)
	amo.Require[string](d, "key", &key)
	amo.Require[string](d, "value", &value)
	amo.Optional[string](d, "account", &account)
	if err := d.Err(); err != nil {
		return err
	}
	*t = Tag{Resource: resource, Key: string(key), Value: string(value), Account: string(account)}
	return nil
}

func (t Tag) String() string {
	return fmt.Sprintf("%s %s=%s", t.Resource, t.Key, t.Value)
}

var (
	errUsage    = errors.New("usage")
	errNotFound = errors.New("tag not found")
	errExists   = errors.New("tag already exists")
)

// tagStore runs the tag commands against a tag table.
type tagStore struct {
	tags      *amo.HashRangeTable[Tag, *Tag, string, string]
	byAccount *amo.Index[Tag, *Tag, string, string]
	pager     amo.Paginator // nil disables page cursors

	strong      bool
	limit       int
	cursor      string
	noOverwrite bool
}

func newTagStore(name string, client amo.Client, opts ...func(*amo.TableOptions)) *tagStore {
	tags := amo.NewHashRangeTable[Tag](name, client, amo.Key("resource", amo.S), amo.Key("key", amo.S), opts...)
	return &tagStore{
		tags:      tags,
		byAccount: amo.NewIndex(tags.Table, "by-account", amo.Key("account", amo.S), amo.Key("key", amo.S)),
	}
}

func (s *tagStore) consistency() amo.Consistency {
	if s.strong {
		return amo.Strong
	}
	return amo.Eventual
}

func (s *tagStore) run(ctx context.Context, w io.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: amo-tags [flags] get|put|delete|list|account ...", errUsage)
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "get":
		if len(args) != 2 {
			return fmt.Errorf("%w: get <arn> <key>", errUsage)
		}
		return s.get(ctx, w, Arn(args[0]), args[1])
	case "put":
		if len(args) != 3 && len(args) != 4 {
			return fmt.Errorf("%w: put <arn> <key> <value> [account]", errUsage)
		}
		tag := Tag{Resource: Arn(args[0]), Key: args[1], Value: args[2]}
		if len(args) == 4 {
			tag.Account = args[3]
		} else {
			tag.Account = tag.Resource.Account()
		}
		return s.put(ctx, tag)
	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("%w: delete <arn> <key>", errUsage)
		}
		return s.delete(ctx, Arn(args[0]), args[1])
	case "list":
		if len(args) != 1 && len(args) != 2 {
			return fmt.Errorf("%w: list <arn> [key-prefix]", errUsage)
		}
		q := s.tags.Query(Arn(args[0])).Consistency(s.consistency())
		if len(args) == 2 {
			q = q.BeginsWith(amo.String(args[1]))
		}
		return s.list(ctx, w, q)
	case "account":
		if len(args) != 1 && len(args) != 2 {
			return fmt.Errorf("%w: account <account-id> [key]", errUsage)
		}
		// Global secondary indexes only serve eventually consistent reads.
		q := s.byAccount.Query(amo.String(args[0]))
		if len(args) == 2 {
			q = q.Equal(amo.String(args[1]))
		}
		return s.list(ctx, w, q)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func (s *tagStore) get(ctx context.Context, w io.Writer, resource Arn, key string) error {
	out, err := s.tags.Get(resource, amo.String(key)).Consistency(s.consistency()).Send(ctx)
	if err != nil {
		return err
	}
	if out.Item == nil {
		return fmt.Errorf("%w: %s on %s", errNotFound, key, resource)
	}
	_, err = fmt.Fprintln(w, out.Item)
	return err
}

func (s *tagStore) put(ctx context.Context, tag Tag) error {
	op := s.tags.Put(tag)
	if s.noOverwrite {
		op = op.IfNotExists()
	}
	if _, err := op.Send(ctx); err != nil {
		if amo.IsConditionFailed(err) {
			return fmt.Errorf("%w: %s on %s", errExists, tag.Key, tag.Resource)
		}
		return err
	}
	return nil
}

func (s *tagStore) delete(ctx context.Context, resource Arn, key string) error {
	_, err := s.tags.Delete(resource, amo.String(key)).Send(ctx)
	return err
}

// list prints one page of q. When more results remain, the cursor for the
// next page is printed last.
func (s *tagStore) list(ctx context.Context, w io.Writer, q *amo.Query[Tag, *Tag, string]) error {
	if s.limit > 0 {
		q = q.Limit(s.limit)
	}
	if s.cursor != "" {
		if s.pager == nil {
			return fmt.Errorf("%w: -cursor requires -cursor-table", errUsage)
		}
		startKey, err := amo.UnmarshalStartKey(ctx, s.pager, s.cursor)
		if err != nil {
			return err
		}
		if startKey == nil {
			return fmt.Errorf("cursor %q is unknown or expired", s.cursor)
		}
		q = q.StartKey(startKey)
	}

	out, err := q.Send(ctx)
	if err != nil {
		return err
	}
	for _, tag := range out.Items {
		if _, err := fmt.Fprintln(w, tag); err != nil {
			return err
		}
	}

	if len(out.LastEvaluatedKey) == 0 {
		return nil
	}
	if s.pager == nil {
		_, err := fmt.Fprintln(w, "# more results; set -cursor-table to page through them")
		return err
	}
	next, err := amo.MarshalStartKey(ctx, s.pager, out.LastEvaluatedKey)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "# next cursor: %s\n", next)
	return err
}
