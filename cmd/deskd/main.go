package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	"github.com/golang/glog"

	"github.com/robotalks/deskbridge/pkg/deskctl"
	fx "github.com/robotalks/deskbridge/pkg/framework"
	"github.com/robotalks/deskbridge/pkg/l1"
	env "github.com/robotalks/deskbridge/pkg/l1/env/controller"
)

func init() {
	env.SetControllerType("desk", l1.ControllerMeta{Description: "Desk Bridge"})
	env.SetupFlags()
	deskctl.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	env := env.NewConfig().MustNewEnv()
	conf := deskctl.NewConfig()
	ctl, err := conf.NewController(env)
	if err != nil {
		log.Fatalln(err)
	}
	loop := fx.NewLoop().Add(env, ctl)
	loop.Interval = conf.Interval

	if err := fx.NewRunner().HandleSignals().Go(fx.NamedRun("loop", loop)).Wait(); err != nil {
		glog.Flush()
		log.Fatalln(err)
	}
}
