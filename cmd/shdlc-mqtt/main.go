package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/shdlc.go/pkg/bridge/mqtt"
	"github.com/robotalks/shdlc.go/pkg/env"
	fx "github.com/robotalks/shdlc.go/pkg/framework"
	"github.com/robotalks/shdlc.go/pkg/shdlc/policy"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := env.Default()
	if err := conf.Validate(); err != nil {
		glog.Exit(err)
	}
	id, err := conf.ID()
	if err != nil {
		glog.Exitf("bridge id: %v", err)
	}
	q, err := mqtt.NewQueueFromURL(conf.BrokerURL)
	if err != nil {
		glog.Exitf("broker %q: %v", conf.BrokerURL, err)
	}
	conn, err := conf.OpenConn()
	if err != nil {
		glog.Exit(err)
	}

	bridge := mqtt.NewBridge(q, policy.NewRetry(conf.NewDevice(conn)), id)

	runner := fx.NewRunner().HandleSignals()
	runner.Go(
		fx.NamedRun("link", fx.RunFunc(func(ctx context.Context) error {
			return fx.RunWithContextCloser(ctx, conn, func() error {
				return conn.Run(context.Background())
			})
		})),
		fx.NamedRun("broker", q),
		fx.NamedRun("bridge", bridge),
	)
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}
