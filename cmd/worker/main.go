// Command worker chạy pipeline làm sạch địa chỉ ngoài HTTP:
// làm sạch cả file địa chỉ và seed catalog vào MongoDB/Meilisearch.
package main

import (
	"os"

	"github.com/address-cleaner/app/config"
	"github.com/address-cleaner/internal/bootstrap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	configPath string
	env        string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "worker",
		Short:        "Làm sạch địa chỉ hàng loạt và quản lý catalog",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config/cleaner.yaml", "file cấu hình pipeline")
	cmd.PersistentFlags().StringVar(&opts.env, "env", "development", "môi trường log (production|development)")

	cmd.AddCommand(cleanCmd(opts), seedCmd(opts))
	return cmd
}

// setup đọc cấu hình và tạo logger dùng chung cho các subcommand
func (o *rootOptions) setup() (config.CleanerCfg, *zap.Logger, error) {
	cfg, err := config.Parse(o.configPath)
	if err != nil {
		return cfg, nil, err
	}
	logger, err := bootstrap.NewLogger(o.env)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logger, nil
}
