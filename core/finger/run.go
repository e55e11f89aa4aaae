package finger

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/projectdiscovery/gologger"

	"fingerenum/common"
)

// Run 输出扫描信息、执行全部查询并输出汇总
func Run(ctx context.Context, info common.Info, targets common.Targets, client Querier, out io.Writer) (*Summary, error) {
	printer, err := NewPrinter(out, info.OutputFile, !info.NoColor)
	if err != nil {
		return nil, err
	}
	defer closePrinter(printer)

	gen := NewGenerator(targets.Usernames, targets.Hosts)
	common.PrintBanner(out, info, targets)

	start := time.Now()
	fmt.Fprintf(out, "######## Scan started at %s #########\n", start.Format(time.ANSIC))

	summary := NewSummary(gen.Total(), start)
	RunTask(ctx, gen, info.Threads, NewQueryFunc(client), func(r Result) {
		if err := printer.PrintResult(r); err != nil {
			gologger.Error().Msgf("%v", err)
		}
		summary.Add(r)
	})

	if summary.Completed < summary.Total {
		gologger.Warning().Msgf("扫描被中断，已完成 %d/%d 个查询", summary.Completed, summary.Total)
	}
	summary.Report(out, time.Now(), info.Verbose)
	return summary, nil
}

func closePrinter(p *Printer) {
	if err := p.Close(); err != nil {
		gologger.Warning().Msgf("关闭输出文件失败: %v", err)
	}
}
