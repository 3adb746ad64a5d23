// Package main 是应用程序入口
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version 构建时通过 -ldflags 注入
var version = "dev"

func main() {
	// .env 不存在时忽略
	_ = godotenv.Load()

	var configPath string
	rootCmd := &cobra.Command{
		Use:           "booking-server",
		Short:         "Homestay booking backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径，默认查找 ./configs/config.yaml")

	rootCmd.AddCommand(
		serveCmd(&configPath),
		migrateCmd(&configPath),
		sweepCmd(&configPath),
		seedCmd(&configPath),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
