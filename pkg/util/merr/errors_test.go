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
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrUnknownClassTag(42, 7)
	errors.Wrap(err, "failed to decode record")
	s.ErrorIs(err, ErrUnknownClassTag)
	s.Equal(Code(ErrUnknownClassTag), Code(err))
	s.Equal(TimeoutCode, Code(context.DeadlineExceeded))
	s.Equal(CanceledCode, Code(context.Canceled))
	s.Equal(errUnexpected.errCode, Code(errUnexpected))
	s.Equal(errUnexpected.errCode, Code(errors.New("plain")))
	s.Equal(int32(0), Code(nil))

	sameCodeErr := newScratchError("new error", ErrUnknownClassTag.errCode, false)
	s.True(sameCodeErr.Is(ErrUnknownClassTag))
}

func (s *ErrSuite) TestWrap() {
	// IO 相关错误。
	s.ErrorIs(WrapErrIoFailed("a.sb", errors.New("disk")), ErrIoFailed)
	s.NoError(WrapErrIoFailed("a.sb", nil))
	s.ErrorIs(WrapErrTruncatedStream(3, 4, 1), ErrTruncatedStream)
	s.ErrorIs(WrapErrTruncatedStream(3, 4, 1, "reference index"), ErrTruncatedStream)

	// Parameter 相关错误。
	s.ErrorIs(WrapErrParameterInvalid("factory", "nil"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidRange(1, 255, 0), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidMsg("bad %s", "value"), ErrParameterInvalid)

	// Registry 相关错误。
	s.ErrorIs(WrapErrDuplicateTag(4), ErrDuplicateTag)
	s.ErrorIs(WrapErrReservedTag(99, "reference sentinel"), ErrReservedTag)
	s.ErrorIs(WrapErrRegistrySealed(4), ErrRegistrySealed)

	// Record 相关错误。
	s.ErrorIs(WrapErrUnknownClassTag(200, 0), ErrUnknownClassTag)
	s.ErrorIs(WrapErrInvalidReference(9, 3), ErrInvalidReference)
	s.ErrorIs(WrapErrUnexpectedVariant("dictionary", 1), ErrUnexpectedVariant)
	s.ErrorIs(WrapErrNestingTooDeep(10, 8), ErrNestingTooDeep)

	// Container 相关错误。
	s.ErrorIs(WrapErrUnknownVersion("UnknownHdr"), ErrUnknownVersion)
	s.ErrorIs(WrapErrInvalidHeader("info"), ErrInvalidHeader)
}

func (s *ErrSuite) TestWrapFieldsMessage() {
	err := WrapErrUnknownClassTag(200, 12)
	s.Equal("unknown class tag[tag=200][offset=12]", err.Error())

	err = WrapErrInvalidReference(9, 3)
	s.Contains(err.Error(), "9 out of range 1 <= index <= 3")
}

func (s *ErrSuite) TestVariantDecodeKeepsCause() {
	cause := WrapErrTruncatedStream(5, 4, 2)
	err := WrapErrVariantDecode(4, 0, cause)

	s.ErrorIs(err, ErrVariantDecode)
	s.ErrorIs(err, ErrTruncatedStream)
	s.Equal(Code(ErrTruncatedStream), Code(err))
	s.Contains(err.Error(), "tag=4")
	s.Contains(err.Error(), "want=4")

	s.NoError(WrapErrVariantDecode(4, 0, nil))
}

func (s *ErrSuite) TestCombine() {
	errFirst := errors.New("first")
	errSecond := errors.New("second")
	errThird := errors.New("third")

	err := Combine(errFirst, errSecond)
	s.True(errors.Is(err, errFirst))
	s.True(errors.Is(err, errSecond))
	s.False(errors.Is(err, errThird))

	err = Combine(errFirst, nil, errSecond, errThird)
	s.True(errors.Is(err, errFirst))
	s.True(errors.Is(err, errSecond))
	s.True(errors.Is(err, errThird))
	s.Equal("first: second: third", err.Error())

	s.NoError(Combine(nil, nil))
	s.Equal(errFirst, Combine(nil, errFirst))
}

func (s *ErrSuite) TestErrorType() {
	err := WrapErrAsInputError(ErrUnknownVersion)
	s.Equal(InputError, GetErrorType(err))
	s.Equal(SystemError, GetErrorType(ErrIoFailed))
	s.Equal("input_error", InputError.String())
	s.False(IsRetryableErr(ErrTruncatedStream))
	s.True(IsCanceledOrTimeout(errors.Wrap(context.Canceled, "load")))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
