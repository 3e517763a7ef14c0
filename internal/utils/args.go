package utils

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// MergeArguments merges multiple argument maps with later maps having higher precedence
func MergeArguments(pp ...map[string]string) map[string]string {
	m := map[string]string{}
	for _, p := range pp {
		maps.Copy(m, p)
	}
	return m
}

// PrefixKeys returns a copy of m with every key prefixed, e.g. "--" for Glue job arguments
func PrefixKeys(prefix string, m map[string]string) map[string]string {
	results := make(map[string]string, len(m))
	for k, v := range m {
		results[prefix+k] = v
	}
	return results
}

// EnvWithPrefix collects KEY=VALUE entries whose key starts with prefix.
// Keys are returned verbatim, prefix included.
func EnvWithPrefix(environ []string, prefix string) map[string]string {
	results := map[string]string{}
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, prefix) {
			continue
		}
		results[k] = v
	}
	return results
}

// ParseKeyValues parses key=value pairs as given on the command line
func ParseKeyValues(pairs []string) (map[string]string, error) {
	results := map[string]string{}
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid key=value pair: %q", pair)
		}
		results[k] = v
	}
	return results, nil
}

// SortedKeys returns the keys of m in ascending order
func SortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
