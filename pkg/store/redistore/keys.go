package redistore

import (
	"net/url"
	"strings"
)

// Record keys are <prefix>:<securable>:<id>. The securable segment is
// query-escaped so values containing ':' or glob characters cannot break
// the layout or leak into SCAN patterns. A wildcard securable escapes to
// the empty segment.
func recordKey(prefix, securable, id string) string {
	return prefix + ":" + url.QueryEscape(securable) + ":" + id
}

// scopePattern matches every key in one securable bucket.
func scopePattern(prefix, securable string) string {
	return prefix + ":" + url.QueryEscape(securable) + ":*"
}

// allPattern matches every record key under the prefix.
func allPattern(prefix string) string {
	return prefix + ":*"
}

// idPattern matches the key holding the record with the given ID,
// whichever bucket it lives in.
func idPattern(prefix, id string) string {
	return prefix + ":*:" + id
}

// keyID extracts the record ID from a key.
func keyID(key string) string {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return ""
	}
	return key[i+1:]
}
