package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/projectdiscovery/gologger"
)

// MaxResponseSize 单次响应最多读取的字节数
const MaxResponseSize = 10000

// ErrTimeout 连接或读取超时；读取中途超时与连接超时不做区分
var ErrTimeout = errors.New("finger query timed out")

// ResolveError 主机名解析失败
type ResolveError struct {
	Host string
	Err  error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %s: %v", e.Host, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Resolver 由 DNS.DNSResolver 实现
type Resolver interface {
	LookupIP(ctx context.Context, host string) ([]net.IP, error)
}

// FingerClient 用于定义 finger 客户端的可配置选项
type FingerClient struct {
	Port     int           // finger 端口
	Timeout  time.Duration // 连接、读写超时时间
	Relay    string        // 中继服务器，为空则直连目标
	Resolver Resolver      // 为空时由系统拨号器解析

	// DialContext 为空时使用 net.Dialer
	DialContext func(ctx context.Context, network, address string) (net.Conn, error)
}

func NewDefaultFingerClient() *FingerClient {
	return &FingerClient{
		Port:    79,
		Timeout: 5 * time.Second,
	}
}

// Endpoint 实际连接的地址：配置了中继时总是中继
func (c *FingerClient) Endpoint(host string) string {
	if c.Relay != "" {
		host = c.Relay
	}
	return net.JoinHostPort(host, strconv.Itoa(c.Port))
}

// RequestLine 发送的请求行，中继模式为 user@host
func (c *FingerClient) RequestLine(host, username string) string {
	if c.Relay != "" {
		return username + "@" + host + "\r\n"
	}
	return username + "\r\n"
}

// Query 完成一次 finger 查询：连接、发送一行、读到对端关闭、关闭连接
func (c *FingerClient) Query(ctx context.Context, host, username string) (string, error) {
	connectHost := host
	if c.Relay != "" {
		connectHost = c.Relay
	}

	addr, err := c.resolve(ctx, connectHost)
	if err != nil {
		return "", err
	}

	conn, err := c.dial(ctx, net.JoinHostPort(addr, strconv.Itoa(c.Port)))
	if err != nil {
		return "", wrapNetError(connectHost, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(c.Timeout)); err != nil {
		return "", err
	}

	line := c.RequestLine(host, username)
	gologger.Verbose().Msgf("%s <- %q", conn.RemoteAddr(), line)
	if _, err := io.WriteString(conn, line); err != nil {
		return "", wrapNetError(connectHost, err)
	}

	data, err := io.ReadAll(io.LimitReader(conn, MaxResponseSize))
	if err != nil {
		return "", wrapNetError(connectHost, err)
	}
	gologger.Debug().Msgf("%s@%s 响应 (%d bytes): %q", username, host, len(data), data)
	return string(data), nil
}

// dial 连接阶段单独受 Timeout 限制
func (c *FingerClient) dial(ctx context.Context, address string) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	if c.DialContext != nil {
		return c.DialContext(ctx, "tcp", address)
	}
	dialer := &net.Dialer{Timeout: c.Timeout}
	return dialer.DialContext(ctx, "tcp", address)
}

// resolve 解析阶段单独受 Timeout 限制
func (c *FingerClient) resolve(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil || c.Resolver == nil {
		return host, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	ips, err := c.Resolver.LookupIP(ctx, host)
	if err != nil {
		return "", &ResolveError{Host: host, Err: err}
	}
	if len(ips) == 0 {
		return "", &ResolveError{Host: host, Err: errors.New("no addresses")}
	}
	// 优先 IPv4
	for _, ip := range ips {
		if ip.To4() != nil {
			return ip.String(), nil
		}
	}
	return ips[0].String(), nil
}

func wrapNetError(host string, err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && !dnsErr.IsTimeout {
		return &ResolveError{Host: host, Err: err}
	}
	var netErr net.Error
	if (errors.As(err, &netErr) && netErr.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
