package finger

import (
	"bufio"
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/levels"
	"github.com/projectdiscovery/gologger/writer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fingerenum/common"
	"fingerenum/core/network"
)

// fakeFingerd 按请求行返回响应，"slow" 用户不响应也不关闭连接
type fakeFingerd struct {
	ln net.Listener

	mu    sync.Mutex
	lines []string
}

func startFakeFingerd(t *testing.T) *fakeFingerd {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f := &fakeFingerd{ln: ln}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go f.handle(conn)
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return f
}

func (f *fakeFingerd) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	line, err := r.ReadString('\n')
	if err != nil {
		return
	}
	f.mu.Lock()
	f.lines = append(f.lines, line)
	f.mu.Unlock()

	user, _, _ := strings.Cut(strings.TrimSpace(line), "@")
	switch user {
	case "slow":
		r.ReadString('\n')
	case "root":
		conn.Write([]byte("Login: root\t\t\tName: Super User\r\nDirectory: /root\r\n"))
	case "alice", "bob":
		conn.Write([]byte("Login       Name       TTY\r\nalice      Alice A    console\r\n"))
	default:
		conn.Write([]byte("f\r\n"))
	}
}

func (f *fakeFingerd) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.lines...)
	sort.Strings(out)
	return out
}

func testInfo(f *fakeFingerd) common.Info {
	return common.Info{
		Threads: 3,
		Port:    f.ln.Addr().(*net.TCPAddr).Port,
		Timeout: 1,
		NoColor: true,
	}
}

func newClient(info common.Info, timeout time.Duration) *network.FingerClient {
	return &network.FingerClient{Port: info.Port, Timeout: timeout, Relay: info.Relay}
}

func TestRunDirect(t *testing.T) {
	srv := startFakeFingerd(t)
	info := testInfo(srv)
	targets := common.Targets{Usernames: []string{"root", "alice", "bob", "nobody"}, Hosts: []string{"127.0.0.1"}}

	var out bytes.Buffer
	summary, err := Run(context.Background(), info, targets, newClient(info, 2*time.Second), &out)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Completed)
	assert.Equal(t, 2, summary.Found)
	assert.Equal(t, 2, summary.NotFound)

	text := out.String()
	assert.Contains(t, text, "Starting fingerenum v"+common.Version)
	assert.Contains(t, text, "Relay Server ............. Not used")
	assert.Contains(t, text, "######## Scan started at ")
	assert.Contains(t, text, "root@127.0.0.1: Login: root\t\t\tName: Super UserDirectory: /root\n")
	assert.Contains(t, text, "alice@127.0.0.1: alice      Alice A    console\n")
	assert.Contains(t, text, "bob@127.0.0.1: <no such user>\n")
	assert.Contains(t, text, "nobody@127.0.0.1: <no such user>\n")
	assert.Contains(t, text, "4 queries in ")

	assert.Equal(t, []string{"alice\r\n", "bob\r\n", "nobody\r\n", "root\r\n"}, srv.received())
}

func TestRunRelay(t *testing.T) {
	srv := startFakeFingerd(t)
	info := testInfo(srv)
	info.Relay = "127.0.0.1"
	targets := common.Targets{Usernames: []string{"root", "nobody"}, Hosts: []string{"inner-a.example", "inner-b.example"}}

	var out bytes.Buffer
	summary, err := Run(context.Background(), info, targets, newClient(info, 2*time.Second), &out)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Completed)

	// 所有查询都发往中继，请求行都带目标主机
	assert.Equal(t, []string{
		"nobody@inner-a.example\r\n",
		"nobody@inner-b.example\r\n",
		"root@inner-a.example\r\n",
		"root@inner-b.example\r\n",
	}, srv.received())
	assert.Contains(t, out.String(), "Relay Server ............. 127.0.0.1")
	assert.Contains(t, out.String(), "root@inner-b.example: Login: root")
}

func TestRunTimeoutDoesNotBlockOthers(t *testing.T) {
	srv := startFakeFingerd(t)
	info := testInfo(srv)
	info.Threads = 2
	targets := common.Targets{Usernames: []string{"slow", "root", "nobody"}, Hosts: []string{"127.0.0.1"}}

	var out bytes.Buffer
	summary, err := Run(context.Background(), info, targets, newClient(info, 500*time.Millisecond), &out)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Completed)
	assert.Equal(t, 1, summary.Timeouts)

	lines := strings.Split(out.String(), "\n")
	var results []string
	for _, l := range lines {
		if strings.HasPrefix(l, "[Worker ") {
			results = append(results, l)
		}
	}
	require.Len(t, results, 3)
	assert.Contains(t, results[2], "slow@127.0.0.1: timeout for username slow on host 127.0.0.1")
	assert.Equal(t, 1, strings.Count(out.String(), "timeout for username"))
}

// 192.0.2.1 不可达：连接阶段超时
func TestRunConnectTimeout(t *testing.T) {
	srv := startFakeFingerd(t)
	info := testInfo(srv)
	info.Threads = 2
	targets := common.Targets{Usernames: []string{"root"}, Hosts: []string{"192.0.2.1", "127.0.0.1"}}

	client := newClient(info, 300*time.Millisecond)
	client.DialContext = func(ctx context.Context, network, address string) (net.Conn, error) {
		if strings.HasPrefix(address, "192.0.2.1:") {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return (&net.Dialer{}).DialContext(ctx, network, address)
	}

	var out bytes.Buffer
	summary, err := Run(context.Background(), info, targets, client, &out)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Completed)
	assert.Equal(t, 1, summary.Timeouts)
	assert.Equal(t, 1, summary.Found)
	assert.Equal(t, 1, strings.Count(out.String(), "timeout for username"))
	assert.Contains(t, out.String(), "root@192.0.2.1: timeout for username root on host 192.0.2.1\n")
}

func TestRunConnectionError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	info := common.Info{Threads: 1, Port: port, Timeout: 1, NoColor: true}
	targets := common.Targets{Usernames: []string{"root"}, Hosts: []string{"127.0.0.1"}}

	var out bytes.Buffer
	summary, err := Run(context.Background(), info, targets, newClient(info, time.Second), &out)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Errors)
	assert.Contains(t, out.String(), "root@127.0.0.1: error connecting to 127.0.0.1:")
}

func TestRunOutputFile(t *testing.T) {
	srv := startFakeFingerd(t)
	info := testInfo(srv)
	info.Threads = 1
	info.OutputFile = filepath.Join(t.TempDir(), "result.txt")
	targets := common.Targets{Usernames: []string{"root"}, Hosts: []string{"127.0.0.1"}}

	_, err := Run(context.Background(), info, targets, newClient(info, 2*time.Second), &bytes.Buffer{})
	require.NoError(t, err)

	data, err := os.ReadFile(info.OutputFile)
	require.NoError(t, err)
	assert.Equal(t, "[Worker 1] root@127.0.0.1: Login: root\t\t\tName: Super UserDirectory: /root\n", string(data))
}

// captureWriter 收集 gologger 输出
type captureWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (c *captureWriter) Write(data []byte, level levels.Level) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf.Write(data)
	c.buf.WriteByte('\n')
}

func (c *captureWriter) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

func TestClosePrinterLogsError(t *testing.T) {
	capture := &captureWriter{}
	gologger.DefaultLogger.SetWriter(capture)
	gologger.DefaultLogger.SetMaxLevel(levels.LevelWarning)
	t.Cleanup(func() {
		gologger.DefaultLogger.SetWriter(writer.NewCLI())
		gologger.DefaultLogger.SetMaxLevel(levels.LevelInfo)
	})

	p, err := NewPrinter(&bytes.Buffer{}, filepath.Join(t.TempDir(), "result.txt"), false)
	require.NoError(t, err)
	require.NoError(t, p.file.Close())

	closePrinter(p)
	assert.Contains(t, capture.String(), "关闭输出文件失败")
}
