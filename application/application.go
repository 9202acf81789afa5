package application

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	zlog "github.com/lk2023060901/scratchfile-go/pkg/log"
	zviper "github.com/lk2023060901/scratchfile-go/pkg/util/viper"
)

const (
	// EnvPrefix 是所有环境变量覆盖项的前缀，例如 SCRATCHFILE_DUMP_FORMAT。
	EnvPrefix = "SCRATCHFILE"
	// DefaultConfigPath 是未显式指定时尝试加载的配置文件。
	DefaultConfigPath = "./scratchdump.yaml"
	// ConfigPathEnv 指定配置文件路径的环境变量。
	ConfigPathEnv = "SCRATCHFILE_CONFIG_FILE_PATH"
)

// Application 持有进程级配置与按模块命名的 Logger。
type Application struct {
	cfg     *zviper.Config
	loggers map[string]*zlog.MLogger
}

// New creates a new Application instance.
func New() *Application {
	return &Application{}
}

// Init 加载配置并初始化日志。配置文件路径的优先级：
//  1. 参数 configPath（通常来自 --config）
//  2. 环境变量 SCRATCHFILE_CONFIG_FILE_PATH
//  3. 默认 ./scratchdump.yaml，文件不存在时忽略
//
// bindings 把配置项绑定到命令行参数，显式设置的参数优先于配置文件。
func (a *Application) Init(configPath string, bindings map[string]*pflag.Flag) error {
	cfg, err := a.loadConfig(configPath)
	if err != nil {
		return err
	}
	for key, flag := range bindings {
		if flag == nil {
			continue
		}
		if err := cfg.BindFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %q: %w", key, err)
		}
	}
	a.cfg = cfg

	return a.initLogging()
}

// Config returns the loaded configuration.
func (a *Application) Config() *zviper.Config {
	return a.cfg
}

// Logger 返回配置中 logging.<name> 对应的 Logger，未配置时退回全局 Logger。
func (a *Application) Logger(name string) *zlog.MLogger {
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return zlog.With(zlog.FieldModule(name))
}

func (a *Application) loadConfig(configPath string) (*zviper.Config, error) {
	cfg := zviper.New(EnvPrefix)

	explicit := true
	if configPath == "" {
		configPath = os.Getenv(ConfigPathEnv)
	}
	if configPath == "" {
		configPath = DefaultConfigPath
		explicit = false
	}

	if _, err := os.Stat(configPath); err != nil && !explicit {
		return cfg, nil
	}
	if err := cfg.LoadFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file %q: %w", configPath, err)
	}
	return cfg, nil
}

func (a *Application) initLogging() error {
	if err := a.initGlobalLogger(); err != nil {
		return err
	}
	return a.initModuleLoggersFromConfig()
}

// initGlobalLogger 配置进程级 Logger。配置文件中的 log 段为基础，SCRATCHFILE_LOG_* 环境变量覆盖：
//   - SCRATCHFILE_LOG_ENABLE: 为假时丢弃所有日志，默认仅在配置了 log 段时开启
//   - SCRATCHFILE_LOG_LEVEL: 日志级别（默认 info）
//   - SCRATCHFILE_LOG_FORMAT: console 或 json（默认 console）
//   - SCRATCHFILE_LOG_FILE_DIR / SCRATCHFILE_LOG_FILE: 文件日志目录与文件名
//
// 命令行工具的标准输出留给导出数据，因此日志默认写到标准错误。
func (a *Application) initGlobalLogger() error {
	cfg := zlog.Config{Level: "info", Format: "console", Stderr: true}
	if a.cfg != nil && a.cfg.IsSet("log") {
		if err := a.cfg.UnmarshalKey("log", &cfg); err != nil {
			return fmt.Errorf("parse log config: %w", err)
		}
	}
	cfg.Level = zlog.GetenvDefault("SCRATCHFILE_LOG_LEVEL", cfg.Level)
	cfg.Format = zlog.GetenvDefault("SCRATCHFILE_LOG_FORMAT", cfg.Format)
	cfg.File.RootPath = zlog.GetenvDefault("SCRATCHFILE_LOG_FILE_DIR", cfg.File.RootPath)
	cfg.File.Filename = zlog.GetenvDefault("SCRATCHFILE_LOG_FILE", cfg.File.Filename)

	enabled := zlog.GetenvBool("SCRATCHFILE_LOG_ENABLE", a.cfg != nil && a.cfg.IsSet("log"))
	if !enabled {
		cfg.Stdout = false
		cfg.Stderr = false
		cfg.File.Filename = ""
	}

	logger, props, err := zlog.InitLogger(&cfg)
	if err != nil {
		return fmt.Errorf("init global logger: %w", err)
	}
	zlog.ReplaceGlobals(logger, props)
	return nil
}

// initModuleLoggersFromConfig 按 logging 段创建模块 Logger，例如：
//
//	logging:
//	  project:
//	    level: debug
//	    stderr: true
func (a *Application) initModuleLoggersFromConfig() error {
	if a.cfg == nil || !a.cfg.IsSet("logging") {
		return nil
	}

	raw := make(map[string]zlog.Config)
	if err := a.cfg.UnmarshalKey("logging", &raw); err != nil {
		return err
	}

	a.loggers = make(map[string]*zlog.MLogger, len(raw))
	for name, lc := range raw {
		cfgCopy := lc
		logger, _, err := zlog.InitLogger(&cfgCopy)
		if err != nil {
			return fmt.Errorf("init module logger %q: %w", name, err)
		}
		a.loggers[name] = &zlog.MLogger{Logger: logger.With(zlog.FieldModule(name))}
	}
	return nil
}
