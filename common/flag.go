package common

import (
	"flag"
	"fmt"
	"io"
)

// ParseFlags 解析命令行参数，返回的 Info 之后不再修改
func ParseFlags(args []string, out io.Writer) (Info, error) {
	var info Info

	fs := flag.NewFlagSet("fingerenum", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.IntVar(&info.Threads, "m", DefaultThreads, "最大并发数（默认 5）")
	fs.StringVar(&info.Username, "u", "", "检查单个用户名是否存在")
	fs.StringVar(&info.UserFile, "U", "", "用户名字典文件，每行一个")
	fs.StringVar(&info.TargetAddr, "t", "", "目标主机，支持 IP、CIDR、IP 段、域名，逗号分隔")
	fs.StringVar(&info.TargetFile, "T", "", "目标列表文件，每行一个")
	fs.StringVar(&info.Relay, "r", "", "中继服务器，由其转发 finger 请求")
	fs.IntVar(&info.Port, "p", DefaultPort, "finger 服务端口（默认 79）")
	fs.IntVar(&info.Timeout, "s", DefaultTimeout, "单次查询超时时间，单位秒（默认 5）")
	fs.BoolVar(&info.Debug, "d", false, "调试输出")
	fs.BoolVar(&info.Verbose, "v", false, "详细输出")
	fs.StringVar(&info.OutputFile, "o", "", "结果输出文件路径")
	fs.BoolVar(&info.NoColor, "nc", false, "禁用彩色输出")

	fs.Usage = func() {
		fmt.Fprintln(out, "用法:")
		fmt.Fprintln(out, "  - 单个用户单个主机: ./fingerenum -u root -t 192.168.1.10")
		fmt.Fprintln(out, "  - 字典批量枚举:     ./fingerenum -U users.txt -T hosts.txt")
		fmt.Fprintln(out, "  - 通过中继查询:     ./fingerenum -U users.txt -t 10.0.0.5 -r relay.example.com")
		fmt.Fprintln(out, "参数:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return Info{}, err
	}

	if err := info.Validate(); err != nil {
		fs.Usage()
		return Info{}, err
	}
	return info, nil
}

// Validate 参数校验
func (i Info) Validate() error {
	if i.Threads < 1 {
		return fmt.Errorf("无效的并发数: %d", i.Threads)
	}
	if i.Port < 1 || i.Port > 65535 {
		return fmt.Errorf("端口超出范围: %d", i.Port)
	}
	if i.Timeout < 1 {
		return fmt.Errorf("无效的超时时间: %d", i.Timeout)
	}
	return nil
}

// HasInput 是否同时给出了用户名来源和主机来源
func (i Info) HasInput() bool {
	return (i.Username != "" || i.UserFile != "") && (i.TargetAddr != "" || i.TargetFile != "")
}
