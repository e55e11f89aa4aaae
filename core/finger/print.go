package finger

import (
	"fmt"
	"io"
	"os"

	"github.com/logrusorgru/aurora"
)

const noSuchUser = "<no such user>"

// Printer 结果只由一个协程写出，不需要加锁
type Printer struct {
	out  io.Writer
	file *os.File
	au   aurora.Aurora
}

// NewPrinter outputFile 非空时同时把纯文本结果追加到文件
func NewPrinter(out io.Writer, outputFile string, color bool) (*Printer, error) {
	p := &Printer{out: out, au: aurora.NewAurora(color)}
	if outputFile != "" {
		f, err := os.OpenFile(outputFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("无法打开输出文件: %w", err)
		}
		p.file = f
	}
	return p, nil
}

func (p *Printer) PrintResult(r Result) error {
	prefix := fmt.Sprintf("[Worker %d] %s@%s: ", r.Worker, r.Username, r.Host)
	body := resultBody(r)

	var colored string
	switch r.Status {
	case StatusFound:
		colored = p.au.Green(body).String()
	case StatusNotFound:
		colored = p.au.Gray(12, body).String()
	case StatusTimeout:
		colored = p.au.Yellow(body).String()
	default:
		colored = p.au.Red(body).String()
	}
	if _, err := fmt.Fprintln(p.out, prefix+colored); err != nil {
		return err
	}

	// 保存纯文本结果
	if p.file != nil {
		if _, err := p.file.WriteString(prefix + body + "\n"); err != nil {
			return fmt.Errorf("无法写入输出文件: %w", err)
		}
	}
	return nil
}

func (p *Printer) Close() error {
	if p.file == nil {
		return nil
	}
	return p.file.Close()
}

// FormatResult 不带颜色的结果行
func FormatResult(r Result) string {
	return fmt.Sprintf("[Worker %d] %s@%s: %s", r.Worker, r.Username, r.Host, resultBody(r))
}

func resultBody(r Result) string {
	switch r.Status {
	case StatusFound:
		return r.Line
	case StatusNotFound:
		return noSuchUser
	case StatusTimeout:
		return fmt.Sprintf("timeout for username %s on host %s", r.Username, r.Host)
	}

	switch r.Kind {
	case KindResolve:
		return fmt.Sprintf("cannot resolve %s: %v", r.Endpoint, r.Err)
	case KindInternal:
		return fmt.Sprintf("internal error: %v", r.Err)
	}
	return fmt.Sprintf("error connecting to %s: %v", r.Endpoint, r.Err)
}
