package project

import (
	"github.com/blang/semver/v4"
)

// HeaderLen 是容器开头版本头的字节数。
const HeaderLen = 10

// Version 描述一种工程文件格式。
type Version struct {
	Name   string
	Header string
	Semver semver.Version
}

func (v *Version) String() string {
	return v.Name + " " + v.Semver.String()
}

var (
	// SCRATCH14 是 Scratch 1.4 的 .sb 格式。
	SCRATCH14 = &Version{Name: "Scratch", Header: "ScratchV02", Semver: semver.MustParse("1.4.0")}
	// BYOB311 是 BYOB 3.1.1 的 .ypr 格式。
	BYOB311 = &Version{Name: "BYOB", Header: "BloxExpV01", Semver: semver.MustParse("3.1.1")}

	versions = []*Version{SCRATCH14, BYOB311}
)

// LookupHeader 按 10 字节版本头查找格式。
func LookupHeader(header string) (*Version, bool) {
	for _, v := range versions {
		if v.Header == header {
			return v, true
		}
	}
	return nil, false
}

// Versions 返回所有已知格式。
func Versions() []*Version {
	return append([]*Version(nil), versions...)
}

// IsBYOB 判断格式是否来自 BYOB，BYOB 工程可能包含 Scratch 不认识的用户类。
func (v *Version) IsBYOB() bool {
	return v == BYOB311
}

// AtLeast 判断格式版本是否不低于给定的语义化版本。
func (v *Version) AtLeast(min string) (bool, error) {
	m, err := semver.ParseTolerant(min)
	if err != nil {
		return false, err
	}
	return v.Semver.GTE(m), nil
}
