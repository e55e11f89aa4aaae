package common

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/malfunkt/iprange"
	"github.com/projectdiscovery/gologger"
)

// Targets 初步解析后的用户名和主机列表
type Targets struct {
	Usernames []string
	Hosts     []string
	Skipped   int // 字典文件中被跳过的畸形行
}

var hostnameRegexp = regexp.MustCompile(`^[A-Za-z0-9_]([A-Za-z0-9_-]{0,62})(\.[A-Za-z0-9_]([A-Za-z0-9_-]{0,62}))*\.?$`)

func Parse(info Info) (Targets, error) {
	var t Targets

	//解析用户名
	if info.Username != "" {
		user, err := ParseUsername(info.Username)
		if err != nil {
			return Targets{}, err
		}
		t.Usernames = append(t.Usernames, user)
	}

	if info.UserFile != "" {
		users, skipped, err := parseFile(info.UserFile, func(line string) ([]string, error) {
			user, err := ParseUsername(line)
			if err != nil {
				return nil, err
			}
			return []string{user}, nil
		})
		if err != nil {
			return Targets{}, fmt.Errorf("failed to parse userfile: %w", err)
		}
		t.Usernames = append(t.Usernames, users...)
		t.Skipped += skipped
	}

	//解析主机，-t 支持逗号分隔
	if info.TargetAddr != "" {
		for _, addr := range strings.Split(info.TargetAddr, ",") {
			hosts, err := ParseAddr(addr)
			if err != nil {
				return Targets{}, fmt.Errorf("failed to parse addr: %w", err)
			}
			t.Hosts = append(t.Hosts, hosts...)
		}
	}

	if info.TargetFile != "" {
		hosts, skipped, err := parseFile(info.TargetFile, ParseAddr)
		if err != nil {
			return Targets{}, fmt.Errorf("failed to parse addrfile: %w", err)
		}
		t.Hosts = append(t.Hosts, hosts...)
		t.Skipped += skipped
	}

	return t, nil
}

// ParseUsername 用户名会原样写入请求行，不允许包含空白或控制字符
func ParseUsername(user string) (string, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return "", fmt.Errorf("empty username")
	}
	for _, r := range user {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", fmt.Errorf("invalid username: %q", user)
		}
	}
	return user, nil
}

// ParseAddr 解析单个目标，IP 段和 CIDR 会被展开
func ParseAddr(addr string) ([]string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("empty host")
	}

	// IPv6 等 iprange 不支持的单个地址
	if ip := net.ParseIP(addr); ip != nil {
		return []string{ip.String()}, nil
	}

	// 尝试解析为 IP 列表
	if parsedList, err := iprange.ParseList(addr); err == nil {
		ips := parsedList.Expand()
		hosts := make([]string, 0, len(ips))
		for _, ip := range ips {
			hosts = append(hosts, ip.String())
		}
		return hosts, nil
	}

	// 如果解析为 IP 失败，尝试将其作为域名处理
	if len(addr) > 253 || !hostnameRegexp.MatchString(addr) {
		return nil, fmt.Errorf("invalid host: %q", addr)
	}
	return []string{addr}, nil
}

// parseFile 逐行解析字典文件，空行忽略，畸形行跳过并告警
func parseFile(filepath string, parseLine func(string) ([]string, error)) ([]string, int, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var (
		result  []string
		skipped int
		lineNo  int
	)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue // 跳过空行
		}

		values, err := parseLine(line)
		if err != nil {
			gologger.Warning().Msgf("%s:%d 跳过畸形行: %v", filepath, lineNo, err)
			skipped++
			continue
		}
		result = append(result, values...)
	}

	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("error reading file: %w", err)
	}
	return result, skipped, nil
}
