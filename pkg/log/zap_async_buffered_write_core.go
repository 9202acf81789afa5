// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"time"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"

	"github.com/lk2023060901/scratchfile-go/pkg/metrics"
)

var _ zapcore.Core = (*asyncTextIOCore)(nil)

// NewAsyncTextIOCore 创建一个异步写入的 Core，后台协程把编码后的日志写入带缓冲的 ws。
// 使用完毕后需要调用 Stop 刷新剩余日志。
func NewAsyncTextIOCore(cfg *Config, ws zapcore.WriteSyncer, enab zapcore.LevelEnabler) *asyncTextIOCore {
	cfg.initialize()
	bws := &zapcore.BufferedWriteSyncer{
		WS:            ws,
		Size:          cfg.AsyncWriteBufferSize,
		FlushInterval: cfg.AsyncWriteFlushInterval,
	}
	nonDroppableLevel, _ := zapcore.ParseLevel(cfg.AsyncWriteNonDroppableLevel)
	ctx, cancel := context.WithCancel(context.Background())
	core := &asyncTextIOCore{
		LevelEnabler:        enab,
		lifetime:            &asyncLifetime{ctx: ctx, cancel: cancel, done: make(chan struct{})},
		enc:                 newZapEncoder(cfg),
		bws:                 bws,
		pending:             make(chan *entryItem, cfg.AsyncWritePendingLength),
		writeDroppedTimeout: cfg.AsyncWriteDroppedTimeout,
		nonDroppableLevel:   nonDroppableLevel,
		stopTimeout:         cfg.AsyncWriteStopTimeout,
		maxBytesPerLog:      max(cfg.AsyncWriteMaxBytesPerLog, 1),
	}
	go core.background()
	return core
}

// asyncLifetime 由同一个 Core 派生出的所有副本共享。
type asyncLifetime struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// asyncTextIOCore 通过带缓冲的 WriteSyncer 异步写入日志。
type asyncTextIOCore struct {
	zapcore.LevelEnabler

	lifetime            *asyncLifetime
	enc                 zapcore.Encoder
	bws                 *zapcore.BufferedWriteSyncer
	pending             chan *entryItem // 等待后台协程写入的日志
	writeDroppedTimeout time.Duration
	nonDroppableLevel   zapcore.Level
	stopTimeout         time.Duration
	maxBytesPerLog      int
}

// entryItem 表示待写入底层缓冲 WriteSyncer 的日志条目。
type entryItem struct {
	buf   *buffer.Buffer
	level zapcore.Level
}

func (s *asyncTextIOCore) With(fields []zapcore.Field) zapcore.Core {
	enc := s.enc.Clone()
	addFields(enc, fields)
	clone := *s
	clone.enc = enc
	return &clone
}

func (s *asyncTextIOCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if s.Enabled(ent.Level) {
		return ce.AddCore(ent, s)
	}
	return ce
}

// Write 编码日志并放入待写队列。队列已满时，低于 nonDroppableLevel 的日志在等待
// writeDroppedTimeout 后被丢弃；Stop 之后的日志全部丢弃。
func (s *asyncTextIOCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := s.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	length := buf.Len()
	if length == 0 {
		buf.Free()
		return nil
	}

	var writeDroppedTimeout <-chan time.Time
	if ent.Level < s.nonDroppableLevel {
		writeDroppedTimeout = time.After(s.writeDroppedTimeout)
	}
	select {
	case <-s.lifetime.ctx.Done():
		metrics.LoggingDroppedWrites.Inc()
		buf.Free()
	default:
		select {
		case s.pending <- &entryItem{buf: buf, level: ent.Level}:
			metrics.LoggingPendingWriteLength.Inc()
			metrics.LoggingPendingWriteBytes.Add(float64(length))
		case <-writeDroppedTimeout:
			metrics.LoggingDroppedWrites.Inc()
			buf.Free()
		case <-s.lifetime.ctx.Done():
			metrics.LoggingDroppedWrites.Inc()
			buf.Free()
		}
	}
	return nil
}

// Sync 不等待待写队列，由后台协程与 Stop 负责刷新。
func (s *asyncTextIOCore) Sync() error {
	return nil
}

func (s *asyncTextIOCore) background() {
	defer func() {
		s.flushPendingWriteWithTimeout()
		close(s.lifetime.done)
	}()

	for {
		select {
		case <-s.lifetime.ctx.Done():
			return
		case ent := <-s.pending:
			s.consumeEntry(ent)
		}
	}
}

func (s *asyncTextIOCore) consumeEntry(ent *entryItem) {
	length := ent.buf.Len()
	metrics.LoggingPendingWriteLength.Dec()
	metrics.LoggingPendingWriteBytes.Sub(float64(length))
	if _, err := s.bws.Write(s.getWriteBytes(ent)); err != nil {
		metrics.LoggingIOFailure.Inc()
	}
	ent.buf.Free()
	if ent.level > zapcore.ErrorLevel {
		_ = s.bws.Sync()
	}
}

// getWriteBytes 返回写入底层的字节，超过 maxBytesPerLog 时截断并保留结尾的换行。
func (s *asyncTextIOCore) getWriteBytes(ent *entryItem) []byte {
	length := ent.buf.Len()
	writes := ent.buf.Bytes()

	if length > s.maxBytesPerLog {
		metrics.LoggingTruncatedWrites.Inc()
		metrics.LoggingTruncatedWriteBytes.Add(float64(length - s.maxBytesPerLog))

		end := writes[length-1]
		writes = writes[:s.maxBytesPerLog]
		writes[len(writes)-1] = end
	}
	return writes
}

func (s *asyncTextIOCore) flushPendingWriteWithTimeout() {
	done := make(chan struct{})
	go s.flushAllPendingWrites(done)

	select {
	case <-time.After(s.stopTimeout):
	case <-done:
	}
}

func (s *asyncTextIOCore) flushAllPendingWrites(done chan struct{}) {
	defer func() {
		if err := s.bws.Stop(); err != nil {
			metrics.LoggingIOFailure.Inc()
		}
		close(done)
	}()

	for {
		select {
		case ent := <-s.pending:
			s.consumeEntry(ent)
		default:
			return
		}
	}
}

// Stop 停止后台协程并在 stopTimeout 内刷新剩余日志，可重复调用。
func (s *asyncTextIOCore) Stop() {
	s.lifetime.cancel()
	<-s.lifetime.done
}
