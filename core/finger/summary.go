package finger

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/projectdiscovery/gologger"
	"github.com/spaolacci/murmur3"
)

// Summary 汇总结果，只在结果协程中使用
type Summary struct {
	Total     int
	Completed int
	Found     int
	NotFound  int
	Timeouts  int
	Errors    int
	Start     time.Time

	// host -> 响应哈希 -> 第一个得到该响应的用户名
	bodies  map[string]map[uint32]string
	suspect map[string]bool
}

func NewSummary(total int, start time.Time) *Summary {
	return &Summary{
		Total:   total,
		Start:   start,
		bodies:  make(map[string]map[uint32]string),
		suspect: make(map[string]bool),
	}
}

// Add 计数；同一主机上不同用户名得到完全相同的单用户响应时，
// 该主机很可能对任意用户名都返回内容，首次发现时返回 true
func (s *Summary) Add(r Result) bool {
	s.Completed++
	switch r.Status {
	case StatusFound:
		s.Found++
	case StatusNotFound:
		s.NotFound++
	case StatusTimeout:
		s.Timeouts++
	default:
		s.Errors++
	}

	if r.Status != StatusFound || r.Listing || s.suspect[r.Host] {
		return false
	}

	hash := murmur3.Sum32([]byte(r.Line))
	seen, ok := s.bodies[r.Host]
	if !ok {
		seen = make(map[uint32]string)
		s.bodies[r.Host] = seen
	}
	first, dup := seen[hash]
	if !dup {
		seen[hash] = r.Username
		return false
	}
	if first == r.Username {
		return false
	}

	s.suspect[r.Host] = true
	gologger.Warning().Msgf("%s 对 %s 和 %s 返回相同响应，该主机的命中可能是误报", r.Host, first, r.Username)
	return true
}

// SuspectHosts 按字母序
func (s *Summary) SuspectHosts() []string {
	hosts := make([]string, 0, len(s.suspect))
	for h := range s.suspect {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}

func (s *Summary) Report(w io.Writer, end time.Time, verbose bool) {
	elapsed := end.Sub(s.Start).Seconds()
	rate := 0.0
	if elapsed > 0 {
		rate = float64(s.Completed) / elapsed
	}

	fmt.Fprintf(w, "######## Scan completed at %s #########\n", end.Format(time.ANSIC))
	fmt.Fprintf(w, "%d queries in %.1f seconds (%.1f queries / sec)\n", s.Completed, elapsed, rate)

	if verbose {
		fmt.Fprintf(w, "found: %d, not found: %d, timeouts: %d, errors: %d\n", s.Found, s.NotFound, s.Timeouts, s.Errors)
		for _, h := range s.SuspectHosts() {
			fmt.Fprintf(w, "suspect host (identical responses): %s\n", h)
		}
	}
}
