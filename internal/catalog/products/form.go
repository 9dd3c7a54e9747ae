package products

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// attributeKey matches attributes[<id>] form keys.
var attributeKey = regexp.MustCompile(`^attributes\[([^\[\]]+)\]$`)

// ParseAttributes extracts attributes[<id>]=<value> fields into inputs
// ordered by attribute id. Keys whose id is not a positive integer, keys that
// repeat an id already seen, and blank values are not errors; they are
// returned in skipped.
func ParseAttributes(values url.Values) (attrs []AttributeInput, skipped []string) {
	keys := make([]string, 0, len(values))
	for key := range values {
		if attributeKey.MatchString(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	seen := make(map[int64]bool, len(keys))
	for _, key := range keys {
		raw := attributeKey.FindStringSubmatch(key)[1]
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || id <= 0 || seen[id] {
			skipped = append(skipped, key)
			continue
		}
		value := strings.TrimSpace(values.Get(key))
		if value == "" {
			skipped = append(skipped, key)
			continue
		}
		seen[id] = true
		attrs = append(attrs, AttributeInput{AttributeID: id, Value: value})
	}

	sort.Slice(attrs, func(i, j int) bool { return attrs[i].AttributeID < attrs[j].AttributeID })
	return attrs, skipped
}
