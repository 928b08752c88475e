package snapshot

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// ==== Типы сортировки и параметров листинга ====

type SortKey struct {
	Field string
	Desc  bool
}

// ListParams параметры листинга; Q ищет подстроку в заголовке.
type ListParams struct {
	Limit  int
	Offset int
	Sort   []SortKey
	Q      string
}

// поля, по которым разрешена сортировка
var sortable = map[string]struct{}{"created_at": {}, "title": {}, "id": {}}

// DefaultListParams: новые сверху, по 50.
func DefaultListParams() ListParams {
	return ListParams{Limit: 50, Sort: []SortKey{{Field: "created_at", Desc: true}}}
}

// ==== Парсинг query-параметров ====

func ParseListParams(q url.Values) ListParams {
	p := DefaultListParams()

	// limit
	lv := q.Get("_limit")
	if lv == "" {
		lv = q.Get("limit")
	}
	if lv != "" {
		if n, err := strconv.Atoi(lv); err == nil && n >= 0 && n <= 1000 {
			p.Limit = n
		}
	}

	// offset
	ov := q.Get("_offset")
	if ov == "" {
		ov = q.Get("offset")
	}
	if ov != "" {
		if n, err := strconv.Atoi(ov); err == nil && n >= 0 {
			p.Offset = n
		}
	}

	// sort
	sv := strings.TrimSpace(q.Get("_sort"))
	if sv == "" {
		sv = strings.TrimSpace(q.Get("sort"))
	}
	if sv != "" {
		var keys []SortKey
		for _, part := range strings.Split(sv, ",") {
			part = strings.TrimSpace(part)
			desc := false
			if strings.HasPrefix(part, "-") {
				desc = true
				part = strings.TrimPrefix(part, "-")
			} else {
				part = strings.TrimPrefix(part, "+")
			}
			if _, ok := sortable[part]; ok {
				keys = append(keys, SortKey{Field: part, Desc: desc})
			}
		}
		if len(keys) > 0 {
			p.Sort = keys
		}
	}

	p.Q = strings.TrimSpace(q.Get("q"))
	return p
}

// OrderBy рендерит Sort в ORDER BY для SQL хранилищ (поля уже проверены).
func (p ListParams) OrderBy() string {
	if len(p.Sort) == 0 {
		return "created_at desc, id desc"
	}
	parts := make([]string, 0, len(p.Sort)+1)
	byID := false
	for _, k := range p.Sort {
		if _, ok := sortable[k.Field]; !ok {
			continue
		}
		dir := "asc"
		if k.Desc {
			dir = "desc"
		}
		parts = append(parts, k.Field+" "+dir)
		byID = byID || k.Field == "id"
	}
	if !byID {
		parts = append(parts, "id asc")
	}
	return strings.Join(parts, ", ")
}

// ==== Сортировка и пагинация в памяти ====

func cmpByKey(a, b *Snapshot, key string, desc bool) int {
	rel := 0
	switch key {
	case "created_at":
		rel = a.CreatedAt.Compare(b.CreatedAt)
	case "title":
		rel = strings.Compare(a.Title, b.Title)
	case "id":
		rel = strings.Compare(a.ID, b.ID)
	}
	if desc {
		rel = -rel
	}
	return rel
}

func sortSnapshots(items []*Snapshot, keys []SortKey) {
	sort.SliceStable(items, func(i, j int) bool {
		for _, k := range keys {
			if c := cmpByKey(items[i], items[j], k.Field, k.Desc); c != 0 {
				return c < 0
			}
		}
		return items[i].ID < items[j].ID
	})
}

// page применяет offset/limit; limit 0 = без ограничения.
func page(items []*Snapshot, p ListParams) []*Snapshot {
	if p.Offset >= len(items) {
		return []*Snapshot{}
	}
	items = items[p.Offset:]
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}
