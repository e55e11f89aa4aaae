package DNS

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/miekg/dns"
	"github.com/patrickmn/go-cache"
	"github.com/projectdiscovery/gologger"
)

//1. 检查缓存（包括解析失败的结果）：
//- 如果域名有缓存，直接返回缓存内容。
//2. 使用系统解析器尝试解析（内网主机名只有系统解析器认识）：
//- 如果解析成功：
//- 将结果存入缓存，返回结果。
//3. 随机选择一个自定义的 DNS 服务器，使用 `miekg/dns` 查询 A / AAAA：
//- 如果解析成功：
//- 将结果存入缓存，返回结果。
//- 如果解析失败：
//- 短期缓存错误，避免同一主机被每个用户名重复解析。
//整个过程共用一个 Timeout 截止时间。

const (
	DefaultExpiration  = 5 * time.Minute
	NegativeExpiration = 30 * time.Second
)

type entry struct {
	ips []net.IP
	err error
}

type DNSResolver struct {
	Servers []string // host 或 host:port，默认端口 53
	Timeout time.Duration

	cache        *cache.Cache
	lookupSystem func(ctx context.Context, host string) ([]net.IP, error)
}

func NewDNSResolver(servers []string, timeout time.Duration) *DNSResolver {
	if len(servers) == 0 {
		servers = []string{"8.8.8.8"}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &DNSResolver{
		Servers:      servers,
		Timeout:      timeout,
		cache:        cache.New(DefaultExpiration, 10*time.Minute),
		lookupSystem: systemLookup,
	}
}

func systemLookup(ctx context.Context, host string) ([]net.IP, error) {
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	ips := make([]net.IP, 0, len(addrs))
	for _, a := range addrs {
		ips = append(ips, a.IP)
	}
	return ips, nil
}

func (r *DNSResolver) LookupIP(ctx context.Context, domain string) ([]net.IP, error) {
	if ip := net.ParseIP(domain); ip != nil {
		return []net.IP{ip}, nil
	}

	if cached, found := r.cache.Get(domain); found {
		e := cached.(entry)
		return e.ips, e.err
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	ips, err := r.lookupSystem(ctx, domain)
	if err == nil && len(ips) > 0 {
		r.cache.Set(domain, entry{ips: ips}, cache.DefaultExpiration)
		return ips, nil
	}
	gologger.Debug().Msgf("系统解析 %s 失败: %v，改用自定义 DNS", domain, err)

	ips, err = r.lookupIPWithCustomDNS(ctx, domain)
	if err == nil {
		r.cache.Set(domain, entry{ips: ips}, cache.DefaultExpiration)
		return ips, nil
	}

	err = fmt.Errorf("DNS解析失败: %w", err)
	r.cache.Set(domain, entry{err: err}, NegativeExpiration)
	return nil, err
}

func (r *DNSResolver) lookupIPWithCustomDNS(ctx context.Context, domain string) ([]net.IP, error) {
	server := r.getRandomServer()
	client := &dns.Client{Timeout: r.Timeout}

	var ips []net.IP
	var lastErr error
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("DNS 查询失败 (%s): %w", server, err)
		}

		message := new(dns.Msg)
		message.SetQuestion(dns.Fqdn(domain), qtype)
		message.RecursionDesired = true

		start := time.Now()
		resp, _, err := client.ExchangeContext(ctx, message, server)
		elapsed := time.Since(start)
		if err != nil {
			lastErr = fmt.Errorf("DNS 查询失败 (%s): %w (耗时: %v)", server, err, elapsed)
			continue
		}
		if resp.Rcode != dns.RcodeSuccess {
			lastErr = fmt.Errorf("DNS 查询失败 (%s): %s", server, dns.RcodeToString[resp.Rcode])
			// NXDOMAIN 对 AAAA 同样成立
			if resp.Rcode == dns.RcodeNameError {
				break
			}
			continue
		}

		for _, ans := range resp.Answer {
			switch t := ans.(type) {
			case *dns.A:
				ips = append(ips, t.A)
			case *dns.AAAA:
				ips = append(ips, t.AAAA)
			}
		}
		// 有 A 记录就不再查 AAAA
		if len(ips) > 0 {
			return ips, nil
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("没有解析到有效的 IP 地址")
}

func (r *DNSResolver) getRandomServer() string {
	server := r.Servers[rand.Intn(len(r.Servers))]
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return server
}
