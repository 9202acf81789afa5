package main

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/lk2023060901/scratchfile-go/application"
	"github.com/lk2023060901/scratchfile-go/internal/export"
	"github.com/lk2023060901/scratchfile-go/internal/objects"
	"github.com/lk2023060901/scratchfile-go/internal/objstream"
	"github.com/lk2023060901/scratchfile-go/internal/project"
	"github.com/lk2023060901/scratchfile-go/pkg/log"
	"github.com/lk2023060901/scratchfile-go/pkg/metrics"
	"github.com/lk2023060901/scratchfile-go/pkg/util/merr"
)

// 配置项，同时可由 --<flag> 或 SCRATCHFILE_DUMP_<KEY> 覆盖。
const (
	keyFormat       = "dump.format"
	keyDepth        = "dump.depth"
	keyWorkers      = "dump.workers"
	keyMaxNesting   = "dump.max-nesting"
	keyMetricsFile  = "dump.metrics-file"
	keyReadAttempts = "dump.read-attempts"
)

type dumpOptions struct {
	format      string
	depth       int
	workers     int
	maxNesting  int
	metricsFile string
	attempts    uint
	paths       []string
}

// document 是单个工程文件的导出结构。
type document struct {
	Path    string `json:"path" cbor:"path"`
	Version string `json:"version" cbor:"version"`
	Digest  string `json:"digest" cbor:"digest"`
	Objects int    `json:"objects" cbor:"objects"`
	Info    any    `json:"info" cbor:"info"`
	Stage   any    `json:"stage" cbor:"stage"`
}

func newFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("scratchdump", pflag.ContinueOnError)
	flags.String("config", "", "config file (yaml, json or toml)")
	flags.String("format", "json", "output format: json or cbor")
	flags.Int("depth", 0, "maximum export depth, 0 means unlimited")
	flags.Int("workers", 0, "number of files decoded in parallel, 0 means GOMAXPROCS")
	flags.Int("max-nesting", objstream.DefaultMaxDepth, "maximum record nesting accepted by the decoder")
	flags.Uint("read-attempts", 3, "attempts per file on transient read errors")
	flags.String("metrics-file", "", "write prometheus metrics in text format to this file")
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "usage: scratchdump [flags] file.sb [file.ypr ...]\n")
		flags.PrintDefaults()
	}
	return flags
}

func parseOptions(args []string) (*application.Application, *dumpOptions, error) {
	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		return nil, nil, err
	}
	configPath, _ := flags.GetString("config")

	app := application.New()
	err := app.Init(configPath, map[string]*pflag.Flag{
		keyFormat:       flags.Lookup("format"),
		keyDepth:        flags.Lookup("depth"),
		keyWorkers:      flags.Lookup("workers"),
		keyMaxNesting:   flags.Lookup("max-nesting"),
		keyMetricsFile:  flags.Lookup("metrics-file"),
		keyReadAttempts: flags.Lookup("read-attempts"),
	})
	if err != nil {
		return nil, nil, err
	}

	cfg := app.Config()
	opts := &dumpOptions{
		format:      cfg.GetString(keyFormat),
		depth:       cfg.GetInt(keyDepth),
		workers:     cfg.GetInt(keyWorkers),
		maxNesting:  cfg.GetInt(keyMaxNesting),
		metricsFile: cfg.GetString(keyMetricsFile),
		attempts:    uint(max(cfg.GetInt(keyReadAttempts), 1)),
		paths:       flags.Args(),
	}
	if len(opts.paths) == 0 {
		return nil, nil, merr.WrapErrParameterInvalidMsg("no input files")
	}
	return app, opts, nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	app, opts, err := parseOptions(args)
	if err != nil {
		return err
	}

	metrics.Register(prometheus.DefaultRegisterer)

	serializer, err := export.NewSerializer(opts.format)
	if err != nil {
		return err
	}

	reader, err := project.NewReader(objects.Default(), project.WithMaxDepth(opts.maxNesting))
	if err != nil {
		return err
	}
	loader, err := project.NewLoader(reader,
		project.WithWorkers(opts.workers),
		project.WithReadAttempts(opts.attempts),
		project.WithLogger(app.Logger("project")))
	if err != nil {
		return err
	}
	defer loader.Close()

	ctx, span := log.NewIntentContextFrom(ctx, "scratchdump", "dump")
	defer span.End()

	projects, loadErr := loader.LoadAll(ctx, opts.paths)
	for _, p := range projects {
		if p == nil {
			continue
		}
		if err := write(out, serializer, p, opts.depth); err != nil {
			return err
		}
	}
	log.Ctx(ctx).Info("dump finished",
		zap.Int64("loaded", loader.Loaded()),
		zap.Int64("failed", loader.Failed()))

	if opts.metricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.metricsFile, prometheus.DefaultGatherer); err != nil {
			return merr.WrapErrIoFailed(opts.metricsFile, err)
		}
	}
	return loadErr
}

func write(out io.Writer, serializer export.Serializer, p *project.Project, depth int) error {
	doc := document{
		Path:    p.Path,
		Version: p.Version.String(),
		Digest:  p.Digest,
		Objects: p.ContentsTable.Len(),
		Info:    export.Tree(p.Info, depth),
		Stage:   export.Tree(p.Stage, depth),
	}
	data, err := serializer.Marshal(doc)
	if err != nil {
		return err
	}
	if serializer.Name() == "json" {
		data = append(data, '\n')
	}
	_, err = out.Write(data)
	return merr.WrapErrIoFailed("output", err)
}
