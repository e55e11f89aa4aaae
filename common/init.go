package common

import (
	"fmt"
	"io"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/formatter"
	"github.com/projectdiscovery/gologger/levels"
)

// ConfigureLogger 根据 -d / -v / -nc 设置日志级别和格式
func ConfigureLogger(info Info) {
	switch {
	case info.Verbose:
		gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	case info.Debug:
		gologger.DefaultLogger.SetMaxLevel(levels.LevelDebug)
	default:
		// Warning 排在 Info 之后，默认也要输出告警
		gologger.DefaultLogger.SetMaxLevel(levels.LevelWarning)
	}
	gologger.DefaultLogger.SetFormatter(formatter.NewCLI(info.NoColor))
}

// PrintBanner 输出扫描配置
func PrintBanner(w io.Writer, info Info, targets Targets) {
	fmt.Fprintf(w, "Starting fingerenum v%s\n", Version)
	fmt.Fprintln(w)
	fmt.Fprintln(w, " ----------------------------------------------------------")
	fmt.Fprintln(w, "|                   Scan Information                       |")
	fmt.Fprintln(w, " ----------------------------------------------------------")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Worker Processes ......... %d\n", info.Threads)
	if info.TargetFile != "" {
		fmt.Fprintf(w, "Targets file ............. %s\n", info.TargetFile)
	}
	if info.UserFile != "" {
		fmt.Fprintf(w, "Usernames file ........... %s\n", info.UserFile)
	}
	if len(targets.Hosts) > 0 {
		fmt.Fprintf(w, "Target count ............. %d\n", len(targets.Hosts))
	}
	if len(targets.Usernames) > 0 {
		fmt.Fprintf(w, "Username count ........... %d\n", len(targets.Usernames))
	}
	fmt.Fprintf(w, "Target TCP port .......... %d\n", info.Port)
	fmt.Fprintf(w, "Query timeout ............ %d secs\n", info.Timeout)
	if info.Relaying() {
		fmt.Fprintf(w, "Relay Server ............. %s\n", info.Relay)
	} else {
		fmt.Fprintln(w, "Relay Server ............. Not used")
	}
	if info.OutputFile != "" {
		fmt.Fprintf(w, "Output file .............. %s\n", info.OutputFile)
	}
	fmt.Fprintln(w)
}
