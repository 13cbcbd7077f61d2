package cache

import (
	"context"
	"time"

	valkey "github.com/valkey-io/valkey-go"
)

// ValkeyClient implements Cache using Valkey.
type ValkeyClient struct {
	c valkey.Client
}

func NewValkey(addr, password string) (*ValkeyClient, error) {
	opts := valkey.ClientOption{
		InitAddress: []string{addr},
	}
	if password != "" {
		opts.Username = "default"
		opts.Password = password
	}
	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return &ValkeyClient{c: client}, nil
}

func (v *ValkeyClient) Get(ctx context.Context, key string) (string, bool) {
	str, err := v.c.Do(ctx, v.c.B().Get().Key(key).Build()).ToString()
	if err != nil {
		return "", false
	}
	return str, true
}

func (v *ValkeyClient) Set(ctx context.Context, key string, val string, ttl time.Duration) error {
	if ttl > 0 {
		res := v.c.Do(ctx, v.c.B().Set().Key(key).Value(val).ExSeconds(int64(ttl/time.Second)).Build())
		return res.Error()
	}
	res := v.c.Do(ctx, v.c.B().Set().Key(key).Value(val).Build())
	return res.Error()
}

func (v *ValkeyClient) Delete(ctx context.Context, key string) error {
	res := v.c.Do(ctx, v.c.B().Del().Key(key).Build())
	return res.Error()
}

// DeletePrefix removes every key starting with prefix, walking the keyspace with SCAN.
func (v *ValkeyClient) DeletePrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		res := v.c.Do(ctx, v.c.B().Scan().Cursor(cursor).Match(prefix+"*").Count(100).Build())
		entry, err := res.AsScanEntry()
		if err != nil {
			return err
		}
		if len(entry.Elements) > 0 {
			if err := v.c.Do(ctx, v.c.B().Del().Key(entry.Elements...).Build()).Error(); err != nil {
				return err
			}
		}
		if entry.Cursor == 0 {
			return nil
		}
		cursor = entry.Cursor
	}
}

func (v *ValkeyClient) Publish(ctx context.Context, channel, message string) error {
	return v.c.Do(ctx, v.c.B().Publish().Channel(channel).Message(message).Build()).Error()
}

func (v *ValkeyClient) Close() { v.c.Close() }
