package project

import (
	"bytes"
	"context"

	"go.uber.org/zap"

	"github.com/lk2023060901/scratchfile-go/internal/objects"
	"github.com/lk2023060901/scratchfile-go/internal/objstream"
	"github.com/lk2023060901/scratchfile-go/pkg/log"
	"github.com/lk2023060901/scratchfile-go/pkg/util/merr"
)

// StreamMagic 是每个对象流开头的 10 字节标识："ObjS" 1 "Stch" 1。
var StreamMagic = []byte{'O', 'b', 'j', 'S', 0x01, 'S', 't', 'c', 'h', 0x01}

const (
	sectionHeader   = "header"
	sectionInfo     = "info"
	sectionContents = "contents"
)

// Project 是一个解码并完成修正的工程文件。
type Project struct {
	Version *Version
	// Info 是信息流的根字典（作者、注释、缩略图等）。
	Info *objects.Dictionary
	// Stage 是内容流的根对象，通常是 ScratchStageMorph。
	Stage objstream.Object

	InfoTable     *objstream.Table
	ContentsTable *objstream.Table

	// Path、Digest 与 Size 由 Loader 填写。
	Path   string
	Digest string
	Size   int
}

// StageMorph 返回舞台对象，根对象不是用户类时 ok 为 false。
func (p *Project) StageMorph() (*objects.UserObject, bool) {
	u, ok := p.Stage.(*objects.UserObject)
	return u, ok
}

// InfoString 返回信息字典中字符串类型的条目。
func (p *Project) InfoString(key string) (string, bool) {
	if p.Info == nil {
		return "", false
	}
	rec, ok := p.Info.Get(key)
	if !ok {
		return "", false
	}
	return objects.StringValue(rec.Object())
}

// Reader 把完整的容器字节解码为 Project。Reader 不持有可变状态，可并发使用。
type Reader struct {
	decoder  *objstream.Decoder
	maxDepth int
}

// ReaderOption 用于配置 Reader。
type ReaderOption func(r *Reader)

// WithMaxDepth 限制单条记录的嵌套深度。
func WithMaxDepth(n int) ReaderOption {
	return func(r *Reader) {
		r.maxDepth = n
	}
}

// NewReader 基于 registry 创建 Reader，registry 为 nil 时使用 objects.Default()。
func NewReader(registry *objstream.Registry, opts ...ReaderOption) (*Reader, error) {
	if registry == nil {
		registry = objects.Default()
	}
	decoder, err := objstream.NewDecoder(registry)
	if err != nil {
		return nil, err
	}
	r := &Reader{decoder: decoder, maxDepth: objstream.DefaultMaxDepth}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Read 解码容器：
//
//	[10 字节版本头][u32 信息流长度][信息流][内容流]
//
// 信息流的根必须是字典；内容流的根是舞台。
func (r *Reader) Read(ctx context.Context, data []byte) (*Project, error) {
	if len(data) < HeaderLen {
		return nil, merr.WrapErrInvalidHeader(sectionHeader, "container shorter than version header")
	}
	version, ok := LookupHeader(string(data[:HeaderLen]))
	if !ok {
		return nil, merr.WrapErrUnknownVersion(string(data[:HeaderLen]))
	}

	cur := objstream.NewCursor(data[HeaderLen:])
	infoSize, err := cur.ReadUint32()
	if err != nil {
		return nil, err
	}
	infoData, err := cur.ReadBytes(int(infoSize))
	if err != nil {
		return nil, err
	}
	contentsData := data[HeaderLen+4+int(infoSize):]

	logger := log.Ctx(ctx).With(log.FieldVersion(version.Semver.String()))
	logger.Debug("read project container",
		zap.Int("infoSize", int(infoSize)),
		zap.Int("contentsSize", len(contentsData)))

	infoTable, err := r.ReadStream(ctx, sectionInfo, infoData)
	if err != nil {
		return nil, err
	}
	infoRoot, err := infoTable.Root()
	if err != nil {
		return nil, err
	}
	info, ok := infoRoot.(*objects.Dictionary)
	if !ok {
		return nil, merr.WrapErrUnexpectedVariant("Dictionary", infoRoot, sectionInfo)
	}

	contentsTable, err := r.ReadStream(ctx, sectionContents, contentsData)
	if err != nil {
		return nil, err
	}
	stage, err := contentsTable.Root()
	if err != nil {
		return nil, err
	}

	return &Project{
		Version:       version,
		Info:          info,
		Stage:         stage,
		InfoTable:     infoTable,
		ContentsTable: contentsTable,
		Size:          len(data),
	}, nil
}

// ReadStream 解码一个对象流："ObjS" 1 "Stch" 1、u32 对象数、之后是顶层记录，最后执行修正。
func (r *Reader) ReadStream(ctx context.Context, section string, data []byte) (*objstream.Table, error) {
	if !bytes.HasPrefix(data, StreamMagic) {
		return nil, merr.WrapErrInvalidHeader(section, "missing ObjS/Stch stream header")
	}
	cur := objstream.NewCursor(data[len(StreamMagic):])
	count, err := cur.ReadUint32()
	if err != nil {
		return nil, err
	}
	body := data[len(StreamMagic)+4:]
	if int(count) > len(body) {
		return nil, merr.WrapErrTruncatedStream(len(StreamMagic)+4, int(count), len(body), section, "object count")
	}

	table := objstream.NewTable(int(count))
	s := objstream.NewSession(ctx, r.decoder, body,
		objstream.WithTable(table),
		objstream.WithMaxDepth(r.maxDepth))
	if err := s.ReadTopLevel(int(count)); err != nil {
		return nil, err
	}
	if err := objstream.Fixup(table); err != nil {
		return nil, err
	}
	log.Ctx(ctx).Debug("object stream decoded",
		zap.String("section", section),
		zap.Uint32("objects", count),
		zap.Int("trailing", s.Cursor().Remaining()))
	return table, nil
}
