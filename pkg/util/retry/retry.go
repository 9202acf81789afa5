// Copyright (C) 2019-2020 Zilliz. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License
// is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express
// or implied. See the License for the specific language governing permissions and limitations under the License.

package retry

import (
	"context"
	"runtime"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/scratchfile-go/pkg/log"
	"github.com/lk2023060901/scratchfile-go/pkg/util/merr"
)

type config struct {
	attempts     uint
	sleep        time.Duration
	maxSleepTime time.Duration
	isRetryErr   func(err error) bool
}

func newDefaultConfig() *config {
	return &config{
		attempts:     3,
		sleep:        10 * time.Millisecond,
		maxSleepTime: time.Second,
	}
}

// Option 调整重试行为。
type Option func(*config)

// Attempts 设置最大尝试次数，0 表示不限次数。
func Attempts(attempts uint) Option {
	return func(c *config) {
		c.attempts = attempts
	}
}

// Sleep 设置首次重试前的等待时间，之后按指数增长。
func Sleep(sleep time.Duration) Option {
	return func(c *config) {
		c.sleep = sleep
		if c.maxSleepTime < sleep {
			c.maxSleepTime = sleep
		}
	}
}

// MaxSleepTime 设置单次等待的上限。
func MaxSleepTime(d time.Duration) Option {
	return func(c *config) {
		c.maxSleepTime = d
	}
}

// RetryErr 只有 fn 返回 true 的错误才会重试。
func RetryErr(fn func(err error) bool) Option {
	return func(c *config) {
		c.isRetryErr = fn
	}
}

func getCaller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return file + ":" + strconv.Itoa(line)
}

func (c *config) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.sleep
	b.MaxInterval = c.maxSleepTime
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	b.Reset()

	var bo backoff.BackOff = b
	if c.attempts > 0 {
		bo = backoff.WithMaxRetries(bo, uint64(c.attempts-1))
	}
	return backoff.WithContext(bo, ctx)
}

// Do 使用重试机制执行指定函数。
// fn 为待执行的函数。
// opts 用于控制最大重试次数、初始休眠时间等行为。
func Do(ctx context.Context, fn func() error, opts ...Option) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	log := log.Ctx(ctx)
	c := newDefaultConfig()
	for _, opt := range opts {
		opt(c)
	}

	var (
		retried uint
		lastErr error
	)
	operation := func() error {
		err := fn()
		if err == nil {
			return nil
		}
		defer func() { retried++ }()

		if retried%4 == 0 {
			log.Warn("retry func failed",
				zap.Uint("retried", retried),
				zap.Error(err),
				zap.String("caller", getCaller(4)))
		}
		if !IsRecoverable(err) || (c.isRetryErr != nil && !c.isRetryErr(err)) {
			log.Warn("retry func failed, not be retryable",
				zap.Uint("retried", retried),
				zap.Uint("attempt", c.attempts),
				zap.Bool("isContextErr", merr.IsCanceledOrTimeout(err)))
			if merr.IsCanceledOrTimeout(err) && lastErr != nil {
				return backoff.Permanent(lastErr)
			}
			return backoff.Permanent(err)
		}
		lastErr = err
		return err
	}

	err := backoff.Retry(operation, c.backOff(ctx))
	if err == nil {
		return nil
	}
	if ctx.Err() != nil && lastErr != nil {
		log.Warn("retry func failed, ctx done", zap.Uint("retried", retried))
		return lastErr
	}
	if err == lastErr {
		log.Warn("retry func failed, reach max retry", zap.Uint("attempt", c.attempts))
	}
	return err
}

// errUnrecoverable 表示不可恢复错误的标记实例。
var errUnrecoverable = errors.New("unrecoverable error")

// Unrecoverable 将错误包装为不可恢复错误，使重试逻辑能够快速返回。
func Unrecoverable(err error) error {
	return merr.Combine(err, errUnrecoverable)
}

// IsRecoverable 判断给定错误是否为“可恢复”错误。
func IsRecoverable(err error) bool {
	return !errors.Is(err, errUnrecoverable)
}
