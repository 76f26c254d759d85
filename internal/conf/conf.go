package conf

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，如 PARALLEL_SERVER_PORT 覆盖 server.port
const EnvPrefix = "PARALLEL"

// Load 加载配置文件，参数是配置文件的路径
func Load(confPath string) *viper.Viper {
	conf := New()
	conf.SetConfigFile(confPath)

	err := conf.ReadInConfig() // 读取配置信息
	if err != nil {
		panic(err) // 读取配置信息失败时，返回并退出程序
	}
	return conf
}

// LoadOptional 加载配置文件，文件不存在时只使用默认值和环境变量（命令行工具使用）
func LoadOptional(confPath string) (*viper.Viper, error) {
	conf := New()
	if confPath == "" {
		return conf, nil
	}
	conf.SetConfigFile(confPath)
	if err := conf.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return conf, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return conf, nil
		}
		return nil, err
	}
	return conf, nil
}

// New 创建带默认值和环境变量绑定的配置实例
func New() *viper.Viper {
	conf := viper.New()
	conf.SetEnvPrefix(EnvPrefix)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	conf.AutomaticEnv()
	SetDefaultValues(conf)
	return conf
}
