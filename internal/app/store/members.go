package store

// appendMember returns the member set with id added, reporting whether the
// set changed. Adding an existing member is a no-op so joins stay idempotent.
func appendMember(members []string, id string) ([]string, bool) {
	for _, m := range members {
		if m == id {
			return members, false
		}
	}
	return append(members, id), true
}

// removeMember returns the member set with id removed, reporting whether the
// set changed.
func removeMember(members []string, id string) ([]string, bool) {
	for i, m := range members {
		if m == id {
			out := make([]string, 0, len(members)-1)
			out = append(out, members[:i]...)
			out = append(out, members[i+1:]...)
			return out, true
		}
	}
	return members, false
}
