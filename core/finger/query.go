package finger

import "iter"

// Query 一次查询：目标主机 + 用户名
type Query struct {
	Host     string
	Username string
}

// Generator 用户名 x 主机 的惰性笛卡尔积，外层用户名，内层主机
type Generator struct {
	usernames []string
	hosts     []string
}

func NewGenerator(usernames, hosts []string) *Generator {
	return &Generator{usernames: usernames, hosts: hosts}
}

func (g *Generator) Total() int {
	return len(g.usernames) * len(g.hosts)
}

// All 每次调用都从头开始
func (g *Generator) All() iter.Seq[Query] {
	return func(yield func(Query) bool) {
		for _, username := range g.usernames {
			for _, host := range g.hosts {
				if !yield(Query{Host: host, Username: username}) {
					return
				}
			}
		}
	}
}
