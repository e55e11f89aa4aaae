package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/projectdiscovery/gologger"

	"fingerenum/common"
	"fingerenum/core/DNS"
	"fingerenum/core/finger"
	"fingerenum/core/network"
)

func main() {
	info, err := common.ParseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		gologger.Fatal().Msgf("参数错误: %v", err)
	}
	common.ConfigureLogger(info)

	if !info.HasInput() {
		gologger.Warning().Msgf("必须同时指定用户名 (-u / -U) 和目标 (-t / -T)，未执行任何查询")
		return
	}

	targets, err := common.Parse(info)
	if err != nil {
		gologger.Fatal().Msgf("%v", err)
	}
	if targets.Skipped > 0 {
		gologger.Info().Msgf("跳过 %d 个畸形行", targets.Skipped)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := &network.FingerClient{
		Port:     info.Port,
		Timeout:  info.QueryTimeout(),
		Relay:    info.Relay,
		Resolver: DNS.NewDNSResolver(common.DnsServers, info.QueryTimeout()),
	}

	if _, err := finger.Run(ctx, info, targets, client, os.Stdout); err != nil {
		gologger.Fatal().Msgf("%v", err)
	}
}
