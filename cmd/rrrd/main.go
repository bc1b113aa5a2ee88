package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rrr.go/pkg/connectivity"
	"github.com/robotalks/rrr.go/pkg/env"
	"github.com/robotalks/rrr.go/pkg/system"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf, err := env.Load()
	if err != nil {
		glog.Exit(err)
	}
	e := conf.MustNewEnv(context.Background())
	e.Runner.HandleSignals()

	e.ShowStartup(false)
	res, err := e.Connectivity.Connect(e.Runner.Context)
	if err != nil {
		glog.Errorf("network bring-up failed: %v", err)
		if connectivity.IsFatal(err) {
			e.ShowFailure(10, time.Second)
		}
		glog.Exit(err)
	}
	glog.Infof("network up: %s", env.ConnectionLabel(res))
	e.ShowStartup(true)

	addr, err := e.Server.Listen()
	if err != nil {
		glog.Exit(err)
	}
	glog.Infof("HTTP listening on %s", addr)

	e.Runner.Go(e.Pollers()...).Go(e.Supervisor, e.Server)
	if adv := e.Advertiser(addr, res.Address.IP); adv != nil {
		e.Runner.Go(adv)
	}
	if bridge, err := e.Bridge(addr.String()); err != nil {
		glog.Warning(err)
	} else if bridge != nil {
		e.Runner.Go(bridge)
	}

	err = e.Runner.Wait()
	if e.Restarter.Requested() {
		glog.Flush()
		if err := system.Reexec(); err != nil {
			glog.Exit(err)
		}
	}
	if err != nil {
		glog.Exit(err)
	}
}
