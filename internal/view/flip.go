package view

import (
	"sort"
	"strings"
)

// FlipSet は裏返して表示しているカードIDの集合。
// ゼロ値は空集合として使える。
type FlipSet struct {
	ids map[string]struct{}
}

// NewFlipSet は指定したIDを含むFlipSetを生成する。
func NewFlipSet(ids ...string) FlipSet {
	var s FlipSet
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// ParseFlipSet はカンマ区切りのIDリストをFlipSetに変換する。
// knownがnilでなければ、knownがfalseを返すIDは捨てる。空要素と重複は無視する。
func ParseFlipSet(raw string, known func(id string) bool) FlipSet {
	var s FlipSet
	for _, part := range strings.Split(raw, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if known != nil && !known(id) {
			continue
		}
		s.Add(id)
	}
	return s
}

// Add はIDを追加する。既に含まれていれば何もしない。
func (s *FlipSet) Add(id string) {
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	s.ids[id] = struct{}{}
}

// Remove はIDを取り除く。含まれていなければ何もしない。
func (s *FlipSet) Remove(id string) {
	delete(s.ids, id)
}

// Contains はIDが含まれているかどうかを返す。
func (s FlipSet) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Toggle はIDが含まれていれば取り除き、含まれていなければ追加する。
// 追加した場合はtrueを返す。
func (s *FlipSet) Toggle(id string) bool {
	if s.Contains(id) {
		s.Remove(id)
		return false
	}
	s.Add(id)
	return true
}

// Len は要素数を返す。
func (s FlipSet) Len() int {
	return len(s.ids)
}

// IDs はIDを昇順で返す。
func (s FlipSet) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// String はクエリに載せるカンマ区切りの表現を返す。
func (s FlipSet) String() string {
	return strings.Join(s.IDs(), ",")
}

// Clone は独立したコピーを返す。
func (s FlipSet) Clone() FlipSet {
	return NewFlipSet(s.IDs()...)
}
