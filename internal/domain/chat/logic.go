package chat

import (
	"sort"
	"strings"
)

// DirectKey identifies the single direct conversation between two users
// regardless of who opened it.
func DirectKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return pair[0] + ":" + pair[1]
}

// otherMembers trims, de-duplicates and drops the creator from ids.
func otherMembers(creator string, ids []string) []string {
	seen := map[string]bool{creator: true}
	var out []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// normalizeCreate validates a create request and returns the members to add
// besides the creator.
func normalizeCreate(creator string, in CreateInput) (CreateInput, []string, error) {
	in.Kind = strings.ToLower(strings.TrimSpace(in.Kind))
	in.Name = strings.TrimSpace(in.Name)
	others := otherMembers(creator, in.MemberIDs)
	switch in.Kind {
	case KindDirect:
		if len(others) != 1 {
			return in, nil, ErrDirectMembers
		}
		in.Name = ""
	case KindGroup:
		if in.Name == "" {
			return in, nil, ErrGroupName
		}
		if len(others) == 0 {
			return in, nil, ErrNoMembers
		}
	default:
		return in, nil, ErrInvalidKind
	}
	return in, others, nil
}
