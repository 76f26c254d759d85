package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/shroukgbr89/parallel/internal/conf"
	"github.com/shroukgbr89/parallel/pkg/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// cli 全局参数和加载后的配置
type cli struct {
	confPath string
	envPath  string
	output   string

	cfg    *viper.Viper
	logger *zap.Logger
}

func main() {
	c := &cli{}
	if err := c.rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func (c *cli) rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "parallel",
		Short: "串行/并行代码执行与性能对比服务",
		Long: `parallel 编译并运行 Python (mpiexec) 和 C++ (OpenMP) 代码，
采样子进程树的 CPU 和内存，对比串行与并行两个版本的执行时间、峰值资源和输出。`,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.confPath, "conf", "./config/config.yaml", "配置文件路径")
	rootCmd.PersistentFlags().StringVar(&c.envPath, "env", ".env", "环境变量文件路径")
	rootCmd.PersistentFlags().StringVarP(&c.output, "output", "o", "json", "结果输出格式 (json|yaml)")

	rootCmd.AddCommand(
		c.serveCommand(),
		c.runCommand(),
		c.compareCommand(),
		c.detectCommand(),
		c.tokenCommand(),
	)
	return rootCmd
}

// setup 加载 .env、配置文件并初始化日志
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if c.envPath != "" {
		if err := godotenv.Load(c.envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file failed, err:%w", err)
		}
	}

	cfg, err := conf.LoadOptional(c.confPath)
	if err != nil {
		return fmt.Errorf("load config failed, err:%w", err)
	}
	if err := conf.ValidateConfig(cfg); err != nil {
		return err
	}
	c.cfg = cfg

	logger, err := logging.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger failed, err:%w", err)
	}
	c.logger = logger
	return nil
}
