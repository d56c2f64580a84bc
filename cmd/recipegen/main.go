package main

import (
	"errors"
	"fmt"
	"os"

	"ai-recipe-engine/internal/app"
	"ai-recipe-engine/internal/infrastructure/config"
	"ai-recipe-engine/internal/pkg/common"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "recipegen",
		Short:         "Generate recipes from ingredients with a shared fingerprint cache",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newGenerateCmd(),
		newFingerprintCmd(),
		newCacheCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// errMemoryCache 進程內快取在每次執行後即消失
var errMemoryCache = errors.New("cache driver is memory, nothing persists between runs; set CACHE_DRIVER=sqlite or redis")

// loadApp 載入設定並組裝服務，CLI 只輸出 warn 以上的日誌
func loadApp() (*app.App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return buildApp(cfg)
}

// loadPersistentApp 與 loadApp 相同，但拒絕進程內快取
func loadPersistentApp() (*app.App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Driver == config.CacheDriverMemory {
		return nil, errMemoryCache
	}
	return buildApp(cfg)
}

func buildApp(cfg *config.Config) (*app.App, error) {
	if err := common.InitLogger("warn", ""); err != nil {
		return nil, err
	}
	return app.New(cfg)
}
