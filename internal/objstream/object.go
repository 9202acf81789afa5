package objstream

// Object 是所有可解码变体的统一抽象。
//
// Populate 在工厂刚创建出的空白实例上被调用且仅调用一次：
//   - tag：产生该实例的类标签（同一族变体可据此区分兄弟标签）；
//   - cur：位于该记录负载起始处的游标，实现必须恰好消费属于本记录的字节；
//   - s  ：当前解码会话，子字段通过 s.DecodeOne() 递归解码。
type Object interface {
	Populate(tag ClassTag, cur *Cursor, s *Session) error
}

// Resolver 由字段中持有 Record 的变体实现（集合、复合结构等）。
//
// 修正阶段会在整张对象表读取完毕后调用 Resolve，
// 实现应通过 t.Resolve 把每个引用字段替换为表中的对象。
type Resolver interface {
	Resolve(t *Table) error
}

// Tagged 由需要对外暴露自身类标签的变体实现。
type Tagged interface {
	ClassTag() ClassTag
}
