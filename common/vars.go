package common

import "time"

const Version = "1.0"

var (
	DefaultThreads = 5
	DefaultPort    = 79
	DefaultTimeout = 5

	DnsServers = []string{
		"8.8.8.8",         // Google DNS
		"9.9.9.9",         // Quad9 DNS
		"114.114.114.114", // 114DNS
		"223.5.5.5",       // 阿里云 DNS
		"180.76.76.76",    // 百度 DNS
		"1.1.1.1",         // Cloudflare DNS (国际备选)
	}
)

// Info 运行配置，ParseFlags 之后只读
type Info struct {
	Username   string // -u 单个用户名
	UserFile   string // -U 用户名字典
	TargetAddr string // -t 目标主机
	TargetFile string // -T 目标列表文件
	Relay      string // -r 中继服务器
	Port       int    // -p finger 端口
	Threads    int    // -m 并发数
	Timeout    int    // -s 超时时间（秒）
	OutputFile string // -o 输出结果文件
	Debug      bool   // -d
	Verbose    bool   // -v
	NoColor    bool   // -nc
}

func (i Info) QueryTimeout() time.Duration {
	return time.Duration(i.Timeout) * time.Second
}

func (i Info) Relaying() bool {
	return i.Relay != ""
}
