package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	loadctl "github.com/acredsfan/solar-control"
)

func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Printf("Usage: %s CONFIG [on|off|read|watch]\n"+
			" e.g.: %s load.yaml on\n",
			os.Args[0],
			os.Args[0])
		os.Exit(1)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	loadctl.InfoLogFunc = sugar.Infof
	loadctl.DebugLogFunc = sugar.Debugf

	cfg, err := loadctl.LoadConfig(os.Args[1])
	if err != nil {
		sugar.Fatalf("ERR: %s", err)
	}
	con, err := loadctl.NewController(cfg)
	if err != nil {
		sugar.Fatalf("ERR: %s", err)
	}
	eff := con.Effective()
	sugar.Infof("method %s, strategy %s", eff.Method, eff.Strategy)
	con.OnState = func(s loadctl.State) {
		sugar.Infof("load %s", s)
	}

	if err := con.Start(); err != nil {
		sugar.Fatalf("ERR: %s", err)
	}
	defer con.Stop()

	action := "read"
	if len(os.Args) == 3 {
		action = os.Args[2]
	}
	switch action {
	case "read":
		if eff.Method == loadctl.FrameMethod {
			time.Sleep(3 * time.Second)
		}
		fmt.Println(con.State())
	case "on", "off":
		if !con.SetState(action == "on") {
			sugar.Errorf("set %s failed", action)
			return
		}
		if con.Refresh() {
			fmt.Println("read back:", con.State())
		} else {
			fmt.Println(con.State())
		}
	case "watch":
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt)
		<-sig
	default:
		sugar.Errorf("unknown action %q", action)
	}
}
