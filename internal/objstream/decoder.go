package objstream

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/scratchfile-go/pkg/metrics"
	"github.com/lk2023060901/scratchfile-go/pkg/util/merr"
)

// RecordError 描述单条记录解码失败的位置。
//
// Err 为底层的 merr 错误（ErrTruncatedStream、ErrUnknownClassTag、ErrVariantDecode 等），
// errors.Is 穿透 RecordError 对其生效；调用方可通过 errors.As 取出 Tag 与 Offset。
type RecordError struct {
	// Tag 为出错记录的类标签；标签字节本身读取失败时 HasTag 为 false。
	Tag    ClassTag
	HasTag bool
	// Offset 为出错记录起始（标签字节）的偏移量。
	Offset int
	Err    error
}

func (e *RecordError) Error() string {
	if !e.HasTag {
		return fmt.Sprintf("record at offset %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("record tag=%d at offset %d: %v", e.Tag, e.Offset, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Decoder 负责单条记录的解码：读取标签，区分“引用”与“新对象”，
// 并把新对象的字段解码委托给变体自身的 Populate。
//
// Decoder 不持有任何可变状态，可在多个独立会话间共享。
type Decoder struct {
	registry *Registry
}

// NewDecoder 基于给定 Registry 创建 Decoder。registry 不能为空。
func NewDecoder(registry *Registry) (*Decoder, error) {
	if registry == nil {
		return nil, merr.WrapErrParameterInvalidMsg("decoder: registry is nil")
	}
	return &Decoder{registry: registry}, nil
}

// Registry 返回 Decoder 使用的 Registry。
func (d *Decoder) Registry() *Registry {
	return d.registry
}

// DecodeOne 从 cur 的当前位置解码一条记录。
//
// 流程：
//   1. 读取 1 字节标签；
//   2. 标签为 ReferenceTag 时读取 3 字节大端下标，返回引用；
//   3. 否则在 Registry 中查找工厂，未绑定时返回 ErrUnknownClassTag，且不再消费后续字节；
//   4. 创建空白实例并调用 Populate，失败时附加标签上下文后向上传递；
//   5. 返回对象。
//
// 引用标签必须先于 Registry 查找判断，它永远不是可绑定的标签。
// 复合变体通过 s 递归解码子记录，因此 cur 与 s 都不能为 nil。
func (d *Decoder) DecodeOne(cur *Cursor, s *Session) (Record, error) {
	if cur == nil || s == nil {
		return Record{}, merr.WrapErrParameterInvalidMsg("decode record: cursor and session are required")
	}
	start := cur.Offset()

	b, err := cur.ReadByte()
	if err != nil {
		return Record{}, d.fail(&RecordError{Offset: start, Err: err})
	}
	tag := ClassTag(b)

	if tag == ReferenceTag {
		index, err := cur.ReadUint24()
		if err != nil {
			return Record{}, d.fail(&RecordError{Tag: tag, HasTag: true, Offset: start, Err: err})
		}
		metrics.ReferencesDecoded.Inc()
		return ReferenceRecord(index), nil
	}

	factory, ok := d.registry.Lookup(tag)
	if !ok {
		return Record{}, d.fail(&RecordError{
			Tag:    tag,
			HasTag: true,
			Offset: start,
			Err:    merr.WrapErrUnknownClassTag(uint8(tag), start),
		})
	}

	obj := factory()
	if obj == nil {
		return Record{}, d.fail(&RecordError{
			Tag:    tag,
			HasTag: true,
			Offset: start,
			Err:    merr.WrapErrVariantDecode(uint8(tag), start, errors.New("factory returned nil")),
		})
	}
	if err := obj.Populate(tag, cur, s); err != nil {
		recErr := &RecordError{
			Tag:    tag,
			HasTag: true,
			Offset: start,
			Err:    merr.WrapErrVariantDecode(uint8(tag), start, err),
		}
		var inner *RecordError
		if errors.As(err, &inner) {
			return Record{}, recErr
		}
		return Record{}, d.fail(recErr)
	}

	metrics.RecordsDecoded.WithLabelValues(metrics.TagLabel(uint8(tag))).Inc()
	return ObjectRecord(obj), nil
}

// fail 统计失败次数。嵌套记录的失败会逐层包装，只在最内层计数一次。
func (d *Decoder) fail(err *RecordError) error {
	metrics.DecodeErrors.WithLabelValues(metrics.CodeLabel(merr.Code(err.Err))).Inc()
	return err
}
