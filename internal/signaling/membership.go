package signaling

import "sort"

// membership maps a room id to the ids of the sessions currently in it.
// Empty rooms are dropped. Callers hold Router.mu.
type membership map[string]map[string]struct{}

func (m membership) add(room, sid string) {
	members, ok := m[room]
	if !ok {
		members = make(map[string]struct{})
		m[room] = members
	}
	members[sid] = struct{}{}
}

// remove reports whether sid was a member of room
func (m membership) remove(room, sid string) bool {
	members, ok := m[room]
	if !ok {
		return false
	}
	if _, ok := members[sid]; !ok {
		return false
	}
	delete(members, sid)
	if len(members) == 0 {
		delete(m, room)
	}
	return true
}

// list returns a sorted snapshot of room, never nil
func (m membership) list(room string) []string {
	members := m[room]
	out := make([]string, 0, len(members))
	for sid := range members {
		out = append(out, sid)
	}
	sort.Strings(out)
	return out
}
