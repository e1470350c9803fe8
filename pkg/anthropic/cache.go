package anthropic

// DefaultCacheTTL is the cache lifetime applied to reusable system prompts.
const DefaultCacheTTL = "1h"

// BuildCachedSystemBlocks constructs system content blocks with a cache
// breakpoint. Committee roles reuse the same system prompt across all three
// rounds, so rounds two and three read it from the warm cache. An empty ttl
// uses DefaultCacheTTL.
func BuildCachedSystemBlocks(text, ttl string) []SystemBlock {
	if ttl == "" {
		ttl = DefaultCacheTTL
	}
	return []SystemBlock{
		{
			Text: text,
			CacheControl: &CacheControl{
				TTL: ttl,
			},
		},
	}
}
