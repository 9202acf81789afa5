package objstream

import (
	"github.com/lk2023060901/scratchfile-go/pkg/util/merr"
)

// Table 是一次解码会话的对象表：按解码顺序追加的顶层记录。
//
// 解码阶段只追加不修改；修正阶段（Fixup）是唯一会把引用槽位替换为对象的地方，
// 已经是对象的槽位永远不会被改写。
type Table struct {
	entries []Record
}

// NewTable 创建一个预留 capacity 个槽位的对象表。
func NewTable(capacity int) *Table {
	if capacity < 0 {
		capacity = 0
	}
	return &Table{entries: make([]Record, 0, capacity)}
}

// Append 追加一条记录并返回其下标（从 1 开始，与线上引用下标一致）。
func (t *Table) Append(rec Record) uint32 {
	t.entries = append(t.entries, rec)
	return uint32(len(t.entries))
}

// Len 返回对象表中的记录数。
func (t *Table) Len() int {
	return len(t.entries)
}

// At 返回第 i 个槽位（从 0 开始）的记录。
func (t *Table) At(i int) Record {
	return t.entries[i]
}

// Root 返回对象表的第一个对象，即流的根对象。
func (t *Table) Root() (Object, error) {
	if len(t.entries) == 0 {
		return nil, merr.WrapErrInvalidReference(1, 0, "empty object table")
	}
	return t.Resolve(t.entries[0])
}

// Objects 返回所有槽位的对象；仍是引用的槽位对应 nil。
func (t *Table) Objects() []Object {
	out := make([]Object, len(t.entries))
	for i, rec := range t.entries {
		out[i] = rec.Object()
	}
	return out
}
