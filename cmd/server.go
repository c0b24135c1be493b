package cmd

import (
	"FlowieFM/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动FlowieFM服务器",
	Long:  `启动FlowieFM音乐系统的HTTP服务器，提供音频流与收听统计API`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
