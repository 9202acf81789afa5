package objstream

import (
	"github.com/lk2023060901/scratchfile-go/pkg/util/merr"
)

// Resolve 把 rec 解析为对象。
//
// 对象形态直接返回；引用形态按 1 起始的下标在表中查找：
//   - 下标 0 或超出表长度：merr.ErrInvalidReference；
//   - 目标槽位本身仍是引用时继续跟随，纯引用构成的环同样视为非法。
//
// 零值 Record 解析为 nil 对象且不报错，表示字段未被赋值。
func (t *Table) Resolve(rec Record) (Object, error) {
	for hops := 0; ; hops++ {
		if !rec.IsReference() {
			return rec.Object(), nil
		}
		if hops > len(t.entries) {
			return nil, merr.WrapErrInvalidReference(rec.Index(), len(t.entries), "reference cycle")
		}
		index := rec.Index()
		if index == 0 || int(index) > len(t.entries) {
			return nil, merr.WrapErrInvalidReference(index, len(t.entries))
		}
		rec = t.entries[index-1]
	}
}

// ResolveRecord 与 Resolve 相同，但返回对象形态的 Record，便于变体原地替换字段。
func (t *Table) ResolveRecord(rec Record) (Record, error) {
	if !rec.IsReference() {
		return rec, nil
	}
	obj, err := t.Resolve(rec)
	if err != nil {
		return Record{}, err
	}
	return resolvedRecord(obj, rec.Index()), nil
}

// ResolveAll 原地解析 recs 中的每一条记录。
//
// 引用替换为表中的对象；内联的子对象（不在对象表中）若实现了 Resolver 则递归解析。
// 内联对象只能构成树，由引用解析而来的对象不再递归，因此不会因环而无限进行。
func (t *Table) ResolveAll(recs []Record) error {
	for i := range recs {
		if recs[i].Resolved() {
			continue
		}
		if !recs[i].IsReference() {
			if r, ok := recs[i].Object().(Resolver); ok {
				if err := r.Resolve(t); err != nil {
					return err
				}
			}
			continue
		}
		rec, err := t.ResolveRecord(recs[i])
		if err != nil {
			return err
		}
		recs[i] = rec
	}
	return nil
}

// Fixup 是解码结束后的修正阶段：
//   1. 把对象表中仍为引用的顶层槽位替换为其指向的对象；
//   2. 对每个实现了 Resolver 的对象调用 Resolve，解析其字段中的引用。
//
// 必须在整条流读取完毕后调用，因此前向引用（下标大于解码时表长度）也能被解析。
func Fixup(t *Table) error {
	for i, rec := range t.entries {
		if !rec.IsReference() {
			continue
		}
		resolved, err := t.ResolveRecord(rec)
		if err != nil {
			return err
		}
		t.entries[i] = resolved
	}
	for _, rec := range t.entries {
		if rec.Resolved() {
			continue
		}
		if r, ok := rec.Object().(Resolver); ok {
			if err := r.Resolve(t); err != nil {
				return err
			}
		}
	}
	return nil
}
