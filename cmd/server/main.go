package main

import (
	"github.com/graphmind/graphmind/internal/config"
	"github.com/graphmind/graphmind/internal/server"
	"github.com/graphmind/graphmind/internal/util"
)

func main() {
	util.LoadEnv()

	cfg := config.Load()
	cfg.InitLogger()

	server.Init(cfg)
}
