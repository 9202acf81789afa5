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
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestDoSucceedsAfterFailures(t *testing.T) {
	n := 0
	err := Do(context.Background(), func() error {
		n++
		if n < 3 {
			return errors.New("transient")
		}
		return nil
	}, Attempts(5), Sleep(time.Millisecond))
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestDoExhaustsAttempts(t *testing.T) {
	n := 0
	errBusy := errors.New("busy")
	err := Do(context.Background(), func() error {
		n++
		return errBusy
	}, Attempts(3), Sleep(time.Millisecond))
	assert.ErrorIs(t, err, errBusy)
	assert.Equal(t, 3, n)
}

func TestDoUnrecoverable(t *testing.T) {
	n := 0
	errGone := errors.New("gone")
	err := Do(context.Background(), func() error {
		n++
		return Unrecoverable(errGone)
	}, Attempts(5), Sleep(time.Millisecond))
	assert.ErrorIs(t, err, errGone)
	assert.False(t, IsRecoverable(err))
	assert.Equal(t, 1, n)
}

func TestDoRetryErrFilter(t *testing.T) {
	n := 0
	errFatal := errors.New("fatal")
	err := Do(context.Background(), func() error {
		n++
		return errFatal
	}, Attempts(5), Sleep(time.Millisecond), RetryErr(func(err error) bool {
		return !errors.Is(err, errFatal)
	}))
	assert.ErrorIs(t, err, errFatal)
	assert.Equal(t, 1, n)
}

func TestDoCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := Do(ctx, func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestDoStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	errBusy := errors.New("busy")
	err := Do(ctx, func() error {
		return errBusy
	}, Attempts(0), Sleep(5*time.Millisecond))
	assert.ErrorIs(t, err, errBusy)
}
