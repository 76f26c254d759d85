package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	v1 "github.com/shroukgbr89/parallel/api/bench/v1"
	"github.com/shroukgbr89/parallel/internal/constants"
	"github.com/shroukgbr89/parallel/internal/service"
	"github.com/shroukgbr89/parallel/internal/task/language"
	file_util "github.com/shroukgbr89/parallel/internal/util/file"
	"github.com/shroukgbr89/parallel/pkg/jwt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// execFlags run/compare 共用参数
type execFlags struct {
	lang    string
	cores   int
	timeout time.Duration
}

func (f *execFlags) register(cmd *cobra.Command, defaultCores int) {
	cmd.Flags().StringVarP(&f.lang, "lang", "l", "", "语言 (python|cpp)，为空时按文件识别")
	cmd.Flags().IntVarP(&f.cores, "cores", "n", defaultCores, "并行度（进程数/线程数）")
	cmd.Flags().DurationVarP(&f.timeout, "timeout", "t", 0, "执行超时，0 表示使用配置的默认值")
}

// language 未指定语言时按文件名和内容识别
func (f *execFlags) language(filename, code string) (string, error) {
	if f.lang != "" {
		return f.lang, nil
	}
	lang, ok := language.Detect(filename, code)
	if !ok {
		return "", fmt.Errorf("无法识别 %s 的语言，请使用 --lang 指定", filename)
	}
	return lang.String(), nil
}

func (c *cli) runCommand() *cobra.Command {
	flags := &execFlags{}
	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "运行单个源文件并输出执行时间和峰值资源",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := readSource(args[0])
			if err != nil {
				return err
			}
			lang, err := flags.language(args[0], code)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			res, err := a.bench.Run(cmd.Context(), &v1.RunReq{
				Code:      code,
				Language:  lang,
				Cores:     flags.cores,
				TimeoutMs: flags.timeout.Milliseconds(),
			})
			if err != nil {
				return err
			}
			res.Samples = nil
			return c.print(cmd.OutOrStdout(), res)
		},
	}
	flags.register(cmd, 1)
	return cmd
}

func (c *cli) compareCommand() *cobra.Command {
	flags := &execFlags{}
	cmd := &cobra.Command{
		Use:   "compare SERIAL_FILE PARALLEL_FILE",
		Short: "同时运行串行和并行版本并输出对比结果",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			serialCode, err := readSource(args[0])
			if err != nil {
				return err
			}
			parallelCode, err := readSource(args[1])
			if err != nil {
				return err
			}
			lang, err := flags.language(args[0], serialCode)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			res, err := a.bench.Compare(cmd.Context(), &v1.CompareReq{
				SerialCode:   serialCode,
				ParallelCode: parallelCode,
				Language:     lang,
				Cores:        flags.cores,
				TimeoutMs:    flags.timeout.Milliseconds(),
			}, nil)
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), v1.NewCompareResp(res))
		},
	}
	flags.register(cmd, 0)
	return cmd
}

func (c *cli) detectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "detect FILE",
		Short: "识别源文件的语言",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := readSource(args[0])
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), service.Detect(&v1.DetectReq{Code: code, Filename: args[0]}))
		},
	}
}

func (c *cli) tokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token CLIENT",
		Short: "使用 auth.secret 为调用方签发访问令牌",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := jwt.NewJWT(c.cfg.GetString("auth.secret"), authExpire(c.cfg))
			if err != nil {
				return err
			}
			token, err := j.GenToken(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
}

func readSource(path string) (string, error) {
	code, err := file_util.ReadFileToString(path, constants.MaxCodeSize)
	if err != nil {
		return "", fmt.Errorf("读取源文件失败: %w", err)
	}
	return code, nil
}

// print 按 --output 输出结果，yaml 与 json 使用相同的字段名
func (c *cli) print(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	switch c.output {
	case "json", "":
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return err
		}
		blockStyle(&node)
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("不支持的输出格式: %s", c.output)
	}
}


// blockStyle 去掉从 JSON 继承的 flow 风格和引号
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		blockStyle(child)
	}
}
