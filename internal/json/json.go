package json

import (
	"github.com/bytedance/sonic"
)

var json = sonic.ConfigStd

// Marshal 使用与标准库兼容的 sonic 配置编码 v。
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(v, prefix, indent)
}

func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func Valid(data []byte) bool {
	return json.Valid(data)
}
