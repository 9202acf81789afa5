// Copyright 2021 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Copyright (c) 2017 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// 说明：本文件中的部分代码基于 go.uber.org/zap 中的实现，遵循 MIT 许可。
//
// https://github.com/uber-go/zap/blob/0c427222737cbbbdc53ebdf852c511f7aca0818b/zaptest/logger.go

package log

import (
	"bytes"
	"context"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// testingWriter 把每条日志转发到 t.Log，并统计写入的条数。
type testingWriter struct {
	t          zaptest.TestingT
	markFailed bool
	lines      *atomic.Int64
}

func newTestingWriter(t zaptest.TestingT) testingWriter {
	return testingWriter{t: t, lines: atomic.NewInt64(0)}
}

// WithMarkFailed 返回一个新的 testingWriter 副本，写入时把测试标记为失败。
func (w testingWriter) WithMarkFailed(v bool) testingWriter {
	w.markFailed = v
	return w
}

func (w testingWriter) Write(p []byte) (n int, err error) {
	n = len(p)

	// t.Log 会自动追加换行。
	for _, line := range bytes.Split(bytes.TrimRight(p, "\n"), []byte("\n")) {
		w.t.Logf("%s", line)
		w.lines.Inc()
	}
	if w.markFailed {
		w.t.Fail()
	}
	return n, nil
}

func (w testingWriter) Sync() error {
	return nil
}

// TestLogger 是写入 t.Log 的 MLogger，Lines 返回已输出的日志行数。
type TestLogger struct {
	*MLogger
	writer testingWriter
}

// Lines 返回已写入 t.Log 的行数。
func (l *TestLogger) Lines() int64 {
	return l.writer.lines.Load()
}

// InitTestLogger initializes a logger for unit tests
func InitTestLogger(t zaptest.TestingT, cfg *Config, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	return initTestLogger(newTestingWriter(t), cfg, opts...)
}

func initTestLogger(writer testingWriter, cfg *Config, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	// zap 内部错误写入同一个 writer 并使测试失败。
	opts = append([]zap.Option{zap.ErrorOutput(writer.WithMarkFailed(true))}, opts...)
	return InitLoggerWithWriteSyncer(cfg, writer, opts...)
}

// NewTestLogger 创建写入 t.Log 的 Logger，level 为空时使用 debug。
func NewTestLogger(t zaptest.TestingT, level string) *TestLogger {
	if level == "" {
		level = "debug"
	}
	writer := newTestingWriter(t)
	lg, _, err := initTestLogger(writer, &Config{Level: level, Format: "console", DisableStacktrace: true})
	if err != nil {
		t.Errorf("init test logger: %v", err)
		t.FailNow()
	}
	return &TestLogger{MLogger: &MLogger{Logger: lg}, writer: writer}
}

// WithTestLogger 把测试 Logger 挂到 ctx 上，之后经 Ctx(ctx) 的日志都写入 t.Log。
func WithTestLogger(ctx context.Context, t zaptest.TestingT) (context.Context, *TestLogger) {
	tl := NewTestLogger(t, "")
	return context.WithValue(ctx, CtxLogKey, tl.MLogger), tl
}
