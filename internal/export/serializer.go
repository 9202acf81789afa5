package export

import (
	"reflect"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/lk2023060901/scratchfile-go/internal/json"
	"github.com/lk2023060901/scratchfile-go/pkg/util/merr"
)

// Serializer 把导出树编码为字节序列。
type Serializer interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// Name 返回格式名，同时用作输出文件扩展名。
	Name() string
}

// JSONSerializer 使用 internal/json（基于 bytedance/sonic）编码。
type JSONSerializer struct {
	Indent string
}

var _ Serializer = (*JSONSerializer)(nil)

func (s JSONSerializer) Marshal(v any) ([]byte, error) {
	if s.Indent != "" {
		return json.MarshalIndent(v, "", s.Indent)
	}
	return json.Marshal(v)
}

func (JSONSerializer) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (JSONSerializer) Name() string {
	return "json"
}

// CBORSerializer 使用 fxamacker/cbor 编码，map 键按规范顺序排列。
type CBORSerializer struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Serializer = (*CBORSerializer)(nil)

// NewCBORSerializer 创建一个输出确定性字节序列的 CBORSerializer。
func NewCBORSerializer() (*CBORSerializer, error) {
	enc, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	// 解码时嵌套 map 使用字符串键，与 JSON 的结果形状一致。
	dec, err := cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any(nil))}.DecMode()
	if err != nil {
		return nil, err
	}
	return &CBORSerializer{enc: enc, dec: dec}, nil
}

func (s *CBORSerializer) Marshal(v any) ([]byte, error) {
	return s.enc.Marshal(v)
}

func (s *CBORSerializer) Unmarshal(data []byte, v any) error {
	return s.dec.Unmarshal(data, v)
}

func (*CBORSerializer) Name() string {
	return "cbor"
}

// NewSerializer 按格式名创建 Serializer，支持 json 与 cbor。
func NewSerializer(format string) (Serializer, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return JSONSerializer{Indent: "  "}, nil
	case "cbor":
		return NewCBORSerializer()
	default:
		return nil, merr.WrapErrParameterInvalid("json|cbor", format, "export format")
	}
}
