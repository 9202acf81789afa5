package objstream

import (
	"context"

	"go.uber.org/zap"

	"github.com/lk2023060901/scratchfile-go/pkg/log"
	"github.com/lk2023060901/scratchfile-go/pkg/util/merr"
)

// DefaultMaxDepth 是默认允许的记录嵌套深度。
const DefaultMaxDepth = 4096

// Session 表示一次解码会话：一个游标、一张对象表，以及共享的 Decoder。
//
// 会话严格单线程：DecodeOne 会移动共享游标，嵌套变体也在同一个游标上递归，
// 因此同一会话内的解码步骤不能并发执行。不同会话各自持有游标与对象表，可以并行。
type Session struct {
	ctx      context.Context
	decoder  *Decoder
	cur      *Cursor
	table    *Table
	depth    int
	maxDepth int
}

// SessionOption 用于配置 Session。
type SessionOption func(s *Session)

// WithMaxDepth 设置允许的最大嵌套深度，n <= 0 时使用 DefaultMaxDepth。
func WithMaxDepth(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.maxDepth = n
		}
	}
}

// WithTable 让会话把顶层记录追加到调用方提供的对象表。
func WithTable(t *Table) SessionOption {
	return func(s *Session) {
		if t != nil {
			s.table = t
		}
	}
}

// NewSession 创建一个从 data 起始处读取的会话。
func NewSession(ctx context.Context, decoder *Decoder, data []byte, opts ...SessionOption) *Session {
	if ctx == nil {
		ctx = context.Background()
	}
	s := &Session{
		ctx:      ctx,
		decoder:  decoder,
		cur:      NewCursor(data),
		table:    NewTable(0),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Context 返回会话关联的上下文。
func (s *Session) Context() context.Context {
	return s.ctx
}

// Cursor 返回会话的共享游标。
func (s *Session) Cursor() *Cursor {
	return s.cur
}

// Table 返回会话的对象表。
func (s *Session) Table() *Table {
	return s.table
}

// DecodeOne 在会话游标上解码一条记录。变体在 Populate 中通过它解码子字段。
func (s *Session) DecodeOne() (Record, error) {
	if s.depth >= s.maxDepth {
		return Record{}, &RecordError{
			Offset: s.cur.Offset(),
			Err:    merr.WrapErrNestingTooDeep(s.depth+1, s.maxDepth),
		}
	}
	s.depth++
	defer func() { s.depth-- }()
	return s.decoder.DecodeOne(s.cur, s)
}

// ReadTopLevel 依次解码 count 条顶层记录并追加到对象表。
// 任何一条失败都会终止读取，整个会话应视为失败。
func (s *Session) ReadTopLevel(count int) error {
	logger := log.Ctx(s.ctx)
	for i := 0; i < count; i++ {
		if err := s.ctx.Err(); err != nil {
			return err
		}
		rec, err := s.DecodeOne()
		if err != nil {
			logger.Debug("decode top-level record failed",
				zap.Int("index", i),
				zap.Int("count", count),
				zap.Int("offset", s.cur.Offset()),
				zap.Error(err))
			return err
		}
		s.table.Append(rec)
	}
	return nil
}
