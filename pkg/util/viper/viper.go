package viper

import (
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	spfviper "github.com/spf13/viper"
)

// Config 封装 spf13/viper 实例，提供配置文件、环境变量与命令行参数三层合并后的读取接口。
//
// 优先级从高到低：显式设置的命令行参数、环境变量、配置文件、默认值。
type Config struct {
	v *spfviper.Viper
}

// New 创建一个 Config。envPrefix 非空时自动绑定 <PREFIX>_<KEY> 形式的环境变量，
// key 中的 "." 与 "-" 会被替换为 "_"。
func New(envPrefix string) *Config {
	v := spfviper.New()
	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		v.AutomaticEnv()
	}
	return &Config{v: v}
}

// LoadFile 加载 YAML、JSON 或 TOML 配置文件，类型由扩展名推断。
func (c *Config) LoadFile(path string) error {
	c.v.SetConfigFile(path)

	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		c.v.SetConfigType("yaml")
	case ".json":
		c.v.SetConfigType("json")
	case ".toml":
		c.v.SetConfigType("toml")
	}

	return c.v.ReadInConfig()
}

// SetDefault 设置 key 的默认值。
func (c *Config) SetDefault(key string, value any) {
	c.v.SetDefault(key, value)
}

// BindFlags 把命令行参数绑定到同名 key，只有用户显式设置过的参数才会覆盖配置文件。
func (c *Config) BindFlags(flags *pflag.FlagSet) error {
	return c.v.BindPFlags(flags)
}

// BindFlag 把单个命令行参数绑定到 key。
func (c *Config) BindFlag(key string, flag *pflag.Flag) error {
	return c.v.BindPFlag(key, flag)
}

func (c *Config) IsSet(key string) bool {
	return c.v.IsSet(key)
}

func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// ConfigFileUsed 返回实际加载的配置文件路径，未加载时为空。
func (c *Config) ConfigFileUsed() string {
	return c.v.ConfigFileUsed()
}

// Unmarshal 将完整配置反序列化到 dst，dst 应为结构体或 map 的指针。
func (c *Config) Unmarshal(dst interface{}) error {
	return c.v.Unmarshal(dst)
}

// UnmarshalKey 将 key 对应的子配置反序列化到 dst。
func (c *Config) UnmarshalKey(key string, dst interface{}) error {
	return c.v.UnmarshalKey(key, dst)
}
