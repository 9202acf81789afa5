package project

import (
	"context"
	"encoding/hex"
	"io/fs"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zeebo/blake3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/lk2023060901/scratchfile-go/internal/compressor"
	"github.com/lk2023060901/scratchfile-go/pkg/log"
	"github.com/lk2023060901/scratchfile-go/pkg/metrics"
	"github.com/lk2023060901/scratchfile-go/pkg/util/conc"
	"github.com/lk2023060901/scratchfile-go/pkg/util/merr"
	"github.com/lk2023060901/scratchfile-go/pkg/util/retry"
	"github.com/lk2023060901/scratchfile-go/pkg/util/typeutil"
)

const tracerName = "scratchfile/project"

// Loader 从文件系统读取工程文件，负责解压、摘要、追踪与指标。
// 每个文件使用独立的解码会话，同一个 Loader 可以并发使用。
type Loader struct {
	log.Binder

	reader  *Reader
	zstd    *compressor.ZstdCompressor
	workers int
	// 读取文件的最大尝试次数
	readAttempts uint

	loaded atomic.Int64
	failed atomic.Int64
}

// LoaderOption 用于配置 Loader。
type LoaderOption func(l *Loader)

// WithWorkers 设置 LoadAll 的并发度，n <= 0 时使用 GOMAXPROCS。
func WithWorkers(n int) LoaderOption {
	return func(l *Loader) {
		l.workers = n
	}
}

// WithReadAttempts 设置读取单个文件的最大尝试次数，n 为 0 时按 1 处理。
func WithReadAttempts(n uint) LoaderOption {
	return func(l *Loader) {
		l.readAttempts = max(n, 1)
	}
}

// WithLogger 为 Loader 绑定模块 Logger。
func WithLogger(logger *log.MLogger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.SetLogger(logger)
		}
	}
}

// NewLoader 创建 Loader，使用完毕后应调用 Close。
func NewLoader(reader *Reader, opts ...LoaderOption) (*Loader, error) {
	if reader == nil {
		return nil, merr.WrapErrParameterInvalidMsg("loader: reader is nil")
	}
	z, err := compressor.NewZstdCompressor()
	if err != nil {
		return nil, err
	}
	l := &Loader{reader: reader, zstd: z, readAttempts: 3}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Close 释放解压器。
func (l *Loader) Close() {
	l.zstd.Close()
}

// Loaded 返回成功加载的文件数。
func (l *Loader) Loaded() int64 {
	return l.loaded.Load()
}

// Failed 返回加载失败的文件数。
func (l *Loader) Failed() int64 {
	return l.failed.Load()
}

// Load 读取并解码 path 指向的工程文件。
func (l *Loader) Load(ctx context.Context, path string) (*Project, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "project.Load",
		trace.WithAttributes(attribute.String("path", path)))
	defer span.End()
	ctx = log.WithProject(ctx, path)

	raw, err := l.readFile(ctx, path)
	if err != nil {
		l.finish(span, path, nil, time.Now(), err)
		return nil, err
	}

	start := time.Now()
	p, err := l.Decode(ctx, raw)
	if p != nil {
		p.Path = path
	}
	l.finish(span, path, p, start, err)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// readFile 读取整个文件。文件不存在、无权限或是目录时不重试。
func (l *Loader) readFile(ctx context.Context, path string) ([]byte, error) {
	var raw []byte
	err := retry.Do(ctx, func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.IsAny(err, fs.ErrNotExist, fs.ErrPermission) {
				return retry.Unrecoverable(err)
			}
			var pathErr *fs.PathError
			if errors.As(err, &pathErr) && pathErr.Op == "read" {
				if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
					return retry.Unrecoverable(err)
				}
			}
			return err
		}
		raw = data
		return nil
	}, retry.Attempts(l.readAttempts))
	if err != nil {
		return nil, merr.WrapErrIoFailed(path, err)
	}
	return raw, nil
}

// Decode 解码内存中的容器字节，zstd 压缩的输入会先被解压。
// 摘要基于原始输入计算，因此同一文件压缩前后的摘要不同。
func (l *Loader) Decode(ctx context.Context, raw []byte) (*Project, error) {
	sum := blake3.Sum256(raw)
	digest := hex.EncodeToString(sum[:])

	c := compressor.Select(raw, l.zstd)
	data, err := c.Decompress(nil, raw)
	if err != nil {
		return nil, merr.WrapErrIoFailed("zstd", err)
	}
	if _, plain := c.(compressor.NopCompressor); !plain {
		log.Ctx(ctx).Debug("decompressed project",
			zap.Int("compressed", len(raw)),
			zap.Int("plain", len(data)))
	}

	p, err := l.reader.Read(ctx, data)
	if err != nil {
		return nil, err
	}
	p.Digest = digest
	metrics.ProjectBytes.Observe(float64(len(data)))
	return p, nil
}

func (l *Loader) finish(span trace.Span, path string, p *Project, start time.Time, err error) {
	version := "unknown"
	if p != nil {
		version = p.Version.Semver.String()
	}
	elapsed := time.Since(start)
	logger := l.Logger().With(log.FieldPath(path))

	if err != nil {
		l.failed.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.ProjectLoadLatency.WithLabelValues(version, metrics.FailLabel).Observe(float64(elapsed.Milliseconds()))
		logger.Warn("load project failed", zap.Int32("code", merr.Code(err)), zap.Error(err))
		return
	}

	l.loaded.Inc()
	span.SetAttributes(
		attribute.String("version", version),
		attribute.String("digest", p.Digest),
		attribute.Int("objects", p.ContentsTable.Len()))
	metrics.ProjectLoadLatency.WithLabelValues(version, metrics.SuccessLabel).Observe(float64(elapsed.Milliseconds()))
	logger.Info("project loaded",
		log.FieldVersion(version),
		log.FieldDigest(p.Digest),
		zap.Int("objects", p.ContentsTable.Len()),
		zap.Duration("elapsed", elapsed))
}

// LoadAll 在协程池上并行加载多个文件，结果与 paths 顺序一致。
// 失败的文件对应位置为 nil，所有错误合并后返回。
func (l *Loader) LoadAll(ctx context.Context, paths []string) ([]*Project, error) {
	pool, err := conc.NewPool[*Project](l.workers)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	futures := make([]*conc.Future[*Project], len(paths))
	for i, path := range paths {
		futures[i] = pool.Submit(func() (*Project, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return l.Load(ctx, path)
		})
	}

	seen := typeutil.NewConcurrentSet[string]()
	results := make([]*Project, len(paths))
	errs := make([]error, 0)
	for i, f := range futures {
		p, err := f.Await()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !seen.Insert(p.Digest) {
			l.Logger().RatedWarn(1, "duplicate project content", log.FieldPath(p.Path), log.FieldDigest(p.Digest))
		}
		results[i] = p
	}
	return results, merr.Combine(errs...)
}
