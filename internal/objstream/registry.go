package objstream

import (
	"go.uber.org/atomic"

	"github.com/lk2023060901/scratchfile-go/pkg/util/merr"
)

// ClassTag 是记录首字节，决定其余字节如何解释以及构造哪一种变体。
type ClassTag uint8

// ReferenceTag 是保留标签：该记录是对已解码对象的回引，而非新对象。
// 任何变体都不允许绑定到该标签上。
const ReferenceTag ClassTag = 99

// Factory 创建某个变体的空白实例，尚未 Populate。
type Factory func() Object

// Registry 维护类标签到工厂的映射。
//
// 生命周期：
//   - 初始化阶段通过 Register 逐个绑定，重复绑定视为配置错误；
//   - 调用 Seal 后进入只读阶段，此后 Lookup 可被多个会话并发调用，无需加锁；
//   - Seal 之后的 Register 一律失败。
//
// 初始化必须在第一次 Lookup 之前完成，且由宿主保证 happens-before 关系。
type Registry struct {
	factories [256]Factory
	count     int
	sealed    atomic.Bool
}

// NewRegistry 创建一个空的 Registry。
func NewRegistry() *Registry {
	return &Registry{}
}

// Register 将 factory 绑定到 tag 上。
//
// 失败时原有绑定保持不变：
//   - tag 为 0 或 ReferenceTag：merr.ErrReservedTag；
//   - factory 为 nil：merr.ErrParameterInvalid；
//   - tag 已被绑定：merr.ErrDuplicateTag；
//   - 已 Seal：merr.ErrRegistrySealed。
func (r *Registry) Register(tag ClassTag, factory Factory) error {
	if r.sealed.Load() {
		return merr.WrapErrRegistrySealed(uint8(tag))
	}
	if tag == 0 || tag == ReferenceTag {
		return merr.WrapErrReservedTag(uint8(tag))
	}
	if factory == nil {
		return merr.WrapErrParameterInvalidMsg("factory is nil for tag=%d", tag)
	}
	if r.factories[tag] != nil {
		return merr.WrapErrDuplicateTag(uint8(tag))
	}
	r.factories[tag] = factory
	r.count++
	return nil
}

// MustRegister 与 Register 相同，但失败时直接 panic。
// 仅用于进程启动时的静态绑定：两个变体在线格式上冲突是必须立即暴露的缺陷。
func (r *Registry) MustRegister(tag ClassTag, factory Factory) {
	if err := r.Register(tag, factory); err != nil {
		panic(err)
	}
}

// Seal 结束初始化阶段，之后 Registry 只读。重复调用无副作用。
func (r *Registry) Seal() {
	r.sealed.Store(true)
}

// Sealed 判断 Registry 是否已经结束初始化。
func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}

// Lookup 返回 tag 绑定的工厂。未绑定（包括 ReferenceTag）时 ok 为 false。
func (r *Registry) Lookup(tag ClassTag) (factory Factory, ok bool) {
	factory = r.factories[tag]
	return factory, factory != nil
}

// Len 返回已绑定的标签数。
func (r *Registry) Len() int {
	return r.count
}

// Tags 返回所有已绑定标签，升序。
func (r *Registry) Tags() []ClassTag {
	tags := make([]ClassTag, 0, r.count)
	for i, f := range r.factories {
		if f != nil {
			tags = append(tags, ClassTag(i))
		}
	}
	return tags
}
