package log

import (
	"go.uber.org/zap"
)

const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"
	FieldNamePath      = "path"
	FieldNameVersion   = "version"
	FieldNameDigest    = "digest"
	FieldNameTag       = "tag"
	FieldNameOffset    = "offset"
)

// FieldModule 返回一个包含模块名的 zap 字段。
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldComponent 返回一个包含组件名的 zap 字段。
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

func FieldPath(path string) zap.Field {
	return zap.String(FieldNamePath, path)
}

// FieldVersion 记录工程文件的格式版本，如 "1.4.0"。
func FieldVersion(version string) zap.Field {
	return zap.String(FieldNameVersion, version)
}

// FieldDigest 记录文件内容摘要（十六进制）。
func FieldDigest(digest string) zap.Field {
	return zap.String(FieldNameDigest, digest)
}

func FieldTag(tag uint8) zap.Field {
	return zap.Uint8(FieldNameTag, tag)
}

func FieldOffset(offset int) zap.Field {
	return zap.Int(FieldNameOffset, offset)
}
