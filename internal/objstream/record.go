package objstream

import "fmt"

// MaxReferenceIndex 是 24 位引用下标能表示的最大值。
const MaxReferenceIndex = 1<<24 - 1

// Record 是单条记录的解码结果，只有两种形态：
//   - 对象：一个已经完成 Populate 的变体实例；
//   - 引用：指向调用方对象表中某个位置的 24 位下标。
//
// 零值既不是对象也不是引用，仅作为“尚未赋值的字段”使用。
//
// 修正阶段把引用替换为对象后，Record 仍记得原引用下标（Resolved 为 true）。
type Record struct {
	obj      Object
	index    uint32
	ref      bool
	resolved bool
}

// ObjectRecord 构造一个对象形态的 Record。
func ObjectRecord(o Object) Record {
	return Record{obj: o}
}

// ReferenceRecord 构造一个引用形态的 Record，index 只保留低 24 位。
func ReferenceRecord(index uint32) Record {
	return Record{index: index & MaxReferenceIndex, ref: true}
}

// resolvedRecord 构造一条由引用解析而来的对象记录。
func resolvedRecord(o Object, index uint32) Record {
	return Record{obj: o, index: index, resolved: true}
}

// Resolved 判断该对象记录是否由修正阶段从引用解析而来。
func (r Record) Resolved() bool {
	return r.resolved
}

// IsReference 判断 Record 是否为引用。
func (r Record) IsReference() bool {
	return r.ref
}

// IsZero 判断 Record 是否为零值。
func (r Record) IsZero() bool {
	return !r.ref && r.obj == nil
}

// Object 返回对象形态下的实例；引用形态返回 nil。
func (r Record) Object() Object {
	return r.obj
}

// Index 返回引用下标；由引用解析而来的对象返回原下标，其余对象形态返回 0。
func (r Record) Index() uint32 {
	return r.index
}

func (r Record) String() string {
	switch {
	case r.ref:
		return fmt.Sprintf("Reference(%d)", r.index)
	case r.obj == nil:
		return "Record(<zero>)"
	default:
		return fmt.Sprintf("Object(%T)", r.obj)
	}
}
