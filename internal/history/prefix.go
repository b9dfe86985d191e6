package history

import "context"

// Prefixed scopes kv under prefix, so one backing store can hold a cache
// slot per user.
func Prefixed(kv KV, prefix string) KV {
	return prefixedKV{kv: kv, prefix: prefix}
}

type prefixedKV struct {
	kv     KV
	prefix string
}

func (p prefixedKV) Get(ctx context.Context, key string) (string, bool, error) {
	return p.kv.Get(ctx, p.prefix+key)
}

func (p prefixedKV) Set(ctx context.Context, key, value string) error {
	return p.kv.Set(ctx, p.prefix+key, value)
}
