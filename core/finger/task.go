package finger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/projectdiscovery/gologger"
)

// Querier 由 network.FingerClient 实现
type Querier interface {
	Query(ctx context.Context, host, username string) (string, error)
	Endpoint(host string) string
}

// QueryFunc 执行单个查询，worker 为工作协程编号
type QueryFunc func(ctx context.Context, worker int, q Query) Result

// NewQueryFunc 查询 + 分类
func NewQueryFunc(client Querier) QueryFunc {
	return func(ctx context.Context, worker int, q Query) Result {
		start := time.Now()
		res := Result{
			Query:    q,
			Worker:   worker,
			Endpoint: client.Endpoint(q.Host),
		}

		raw, err := client.Query(ctx, q.Host, q.Username)
		if err != nil {
			gologger.Debug().Msgf("%s@%s 查询失败: %v", q.Username, q.Host, err)
			res.Classification = classifyError(err)
		} else {
			res.Classification = Classify(raw, q.Username)
		}
		res.Elapsed = time.Since(start)
		return res
	}
}

// RunTask 固定 numWorkers 个工作协程消费查询流，结果在调用方协程中串行交给 onResult。
// ctx 取消后不再派发新查询，已开始的查询会执行完毕。返回交付的结果数。
func RunTask(ctx context.Context, gen *Generator, numWorkers int, fn QueryFunc, onResult func(Result)) int {
	if numWorkers < 1 {
		numWorkers = 1
	}

	var wg sync.WaitGroup
	taskChan := make(chan Query)
	results := make(chan Result, numWorkers)

	// 启动工作协程池
	wg.Add(numWorkers)
	for i := 1; i <= numWorkers; i++ {
		go worker(ctx, i, taskChan, results, fn, &wg)
	}

	go func() {
		defer close(results)
		wg.Wait()
	}()

	go func() {
		defer close(taskChan)
		for q := range gen.All() {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case taskChan <- q:
			}
		}
	}()

	n := 0
	for res := range results {
		onResult(res)
		n++
	}
	return n
}

// worker 取消后收到的查询不再执行；已开始的查询不受取消影响
func worker(ctx context.Context, id int, taskChan <-chan Query, results chan<- Result, fn QueryFunc, wg *sync.WaitGroup) {
	defer wg.Done()
	workCtx := context.WithoutCancel(ctx)
	for q := range taskChan {
		if ctx.Err() != nil {
			continue
		}
		results <- runQuery(workCtx, id, q, fn)
	}
}

func runQuery(ctx context.Context, id int, q Query, fn QueryFunc) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			gologger.Error().Msgf("任务崩溃 %s@%s: %v", q.Username, q.Host, r)
			res = Result{
				Query:  q,
				Worker: id,
				Classification: Classification{
					Status: StatusError,
					Kind:   KindInternal,
					Err:    fmt.Errorf("panic: %v", r),
				},
			}
		}
	}()
	return fn(ctx, id, q)
}
