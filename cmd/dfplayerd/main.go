package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/taoyao-code/dfplayer/internal/app/bootstrap"
	cfgpkg "github.com/taoyao-code/dfplayer/internal/config"
	"github.com/taoyao-code/dfplayer/internal/logging"
	"github.com/taoyao-code/dfplayer/internal/serialport"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认读取 DFP_CONFIG 或 configs/dfplayer.yaml）")
	listPorts := flag.Bool("list-ports", false, "列出可用串口后退出")
	flag.Parse()

	if *listPorts {
		ports, err := serialport.ListPorts()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	// 1) 加载配置
	cfg, err := cfgpkg.Load(*configPath)
	if err != nil {
		panic(err)
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	// 3) 启动
	if err := bootstrap.Run(cfg, zap.L()); err != nil {
		zap.L().Error("dfplayerd exited with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}
