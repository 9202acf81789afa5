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

package merr

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	CanceledCode int32 = 10000
	TimeoutCode  int32 = 10001
)

// Code 返回给定错误对应的错误码。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	cause := errors.Cause(err)
	switch specificErr := cause.(type) {
	case scratchError:
		return specificErr.code()

	default:
		if errors.Is(specificErr, context.Canceled) {
			return CanceledCode
		} else if errors.Is(specificErr, context.DeadlineExceeded) {
			return TimeoutCode
		} else {
			return errUnexpected.code()
		}
	}
}

func IsRetryableErr(err error) bool {
	if err, ok := err.(scratchError); ok {
		return err.retriable
	}

	return false
}

func IsCanceledOrTimeout(err error) bool {
	return errors.IsAny(err, context.Canceled, context.DeadlineExceeded)
}

func WrapErrAsInputError(err error) error {
	if merr, ok := err.(scratchError); ok {
		WithErrorType(InputError)(&merr)
		return merr
	}
	return err
}

func GetErrorType(err error) ErrorType {
	if merr, ok := err.(scratchError); ok {
		return merr.errType
	}

	return SystemError
}

// IO 相关错误封装。
func WrapErrIoFailed(key string, err error) error {
	if err == nil {
		return nil
	}
	return wrapFieldsWithDesc(ErrIoFailed, err.Error(), value("key", key))
}

// WrapErrTruncatedStream 记录读取失败时的偏移量以及期望/剩余的字节数。
func WrapErrTruncatedStream(offset, want, have int, msg ...string) error {
	err := wrapFields(ErrTruncatedStream,
		value("offset", offset),
		value("want", want),
		value("have", have),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Parameter 相关错误封装。
func WrapErrParameterInvalid[T any](expected, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		value("expected", expected),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalidRange[T any](lower, upper, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		bound("value", actual, lower, upper),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalidMsg(fmt string, args ...any) error {
	return errors.Wrapf(ErrParameterInvalid, fmt, args...)
}

// Registry 相关错误封装。
func WrapErrDuplicateTag(tag uint8, msg ...string) error {
	err := wrapFields(ErrDuplicateTag, value("tag", tag))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrReservedTag(tag uint8, msg ...string) error {
	err := wrapFields(ErrReservedTag, value("tag", tag))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrRegistrySealed(tag uint8) error {
	return wrapFields(ErrRegistrySealed, value("tag", tag))
}

// Record 相关错误封装。
func WrapErrUnknownClassTag(tag uint8, offset int) error {
	return wrapFields(ErrUnknownClassTag,
		value("tag", tag),
		value("offset", offset),
	)
}

// WrapErrVariantDecode 在保留原始错误的前提下附加 tag 与偏移量信息，
// errors.Is 对原始错误与 ErrVariantDecode 均成立。
func WrapErrVariantDecode(tag uint8, offset int, cause error) error {
	if cause == nil {
		return nil
	}
	return Combine(
		wrapFields(ErrVariantDecode, value("tag", tag), value("offset", offset)),
		cause,
	)
}

func WrapErrInvalidReference(index uint32, tableLen int, msg ...string) error {
	err := wrapFields(ErrInvalidReference,
		bound("index", index, 1, tableLen),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrUnexpectedVariant(expected string, actual any, msg ...string) error {
	err := wrapFields(ErrUnexpectedVariant,
		value("expected", expected),
		value("actual", fmt.Sprintf("%T", actual)),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrNestingTooDeep(depth, limit int) error {
	return wrapFields(ErrNestingTooDeep, value("depth", depth), value("limit", limit))
}

// Container 相关错误封装。
func WrapErrUnknownVersion(header string) error {
	return wrapFields(ErrUnknownVersion, value("header", fmt.Sprintf("%q", header)))
}

func WrapErrInvalidHeader(section string, msg ...string) error {
	err := wrapFields(ErrInvalidHeader, value("section", section))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func wrapFields(err scratchError, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.detail = err.msg
	return err
}

func wrapFieldsWithDesc(err scratchError, desc string, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.msg += ": " + desc
	err.detail = err.msg
	return err
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func value(name string, value any) valueField {
	return valueField{
		name,
		value,
	}
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}

type boundField struct {
	name  string
	value any
	lower any
	upper any
}

func bound(name string, value, lower, upper any) boundField {
	return boundField{
		name,
		value,
		lower,
		upper,
	}
}

func (f boundField) String() string {
	return fmt.Sprintf("%v out of range %v <= %s <= %v", f.value, f.lower, f.name, f.upper)
}
