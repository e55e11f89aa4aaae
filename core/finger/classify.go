package finger

import (
	"errors"
	"strings"
	"time"

	"fingerenum/core/network"
)

// listingHeader 多用户列表响应的表头
const listingHeader = "Login       Name"

type Status int

const (
	StatusNotFound Status = iota
	StatusFound
	StatusTimeout
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not found"
	case StatusTimeout:
		return "timeout"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// ErrorKind 区分连接错误的来源
type ErrorKind string

const (
	KindResolve  ErrorKind = "resolve"
	KindConnect  ErrorKind = "connect"
	KindInternal ErrorKind = "internal"
)

type Classification struct {
	Status  Status
	Line    string    // StatusFound 时的展示行
	Listing bool      // Line 取自多用户列表
	Kind    ErrorKind // StatusError 时有效
	Err     error
}

// Result 一次查询的完整结果
type Result struct {
	Query
	Classification
	Worker   int
	Endpoint string
	Elapsed  time.Duration
}

var crlf = strings.NewReplacer("\r", "", "\n", "")

// Classify 根据响应判断用户是否存在。
// 单用户格式的响应不检查用户名是否出现，任何非空且不是 "f" 的响应都算命中，
// 这是已知的误报来源，Summary 会标记对所有用户返回相同内容的主机。
func Classify(raw, username string) Classification {
	if raw == "" || strings.TrimSpace(raw) == "f" {
		return Classification{Status: StatusNotFound}
	}

	if strings.Contains(raw, listingHeader) {
		for _, line := range strings.FieldsFunc(raw, isLineBreak) {
			if strings.Contains(line, username) {
				return Classification{Status: StatusFound, Line: crlf.Replace(line), Listing: true}
			}
		}
		return Classification{Status: StatusNotFound, Listing: true}
	}

	return Classification{Status: StatusFound, Line: crlf.Replace(raw)}
}

// isLineBreak 换行、回车之外还包括 VT、FF、FS/GS/RS、NEL 和 Unicode 行/段分隔符
func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// classifyError 把 FingerClient 的错误映射为结果
func classifyError(err error) Classification {
	if errors.Is(err, network.ErrTimeout) {
		return Classification{Status: StatusTimeout, Err: err}
	}
	var resolveErr *network.ResolveError
	if errors.As(err, &resolveErr) {
		return Classification{Status: StatusError, Kind: KindResolve, Err: err}
	}
	return Classification{Status: StatusError, Kind: KindConnect, Err: err}
}
