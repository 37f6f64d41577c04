package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dripware/dripctl/pkg/auth"
	"github.com/dripware/dripctl/pkg/config"
)

const keyringService = "dripctl"

// Config seeds the command tree; tests override the paths and the writer.
type Config struct {
	ConfigPath   string
	TokenPath    string
	OutputWriter io.Writer
}

func DefaultConfig() Config {
	return Config{
		ConfigPath:   config.DefaultConfigPath(),
		TokenPath:    config.DefaultTokenPath(),
		OutputWriter: os.Stdout,
	}
}

type runtimeState struct {
	configPath string
	tokenPath  string
	cfg        *config.Config
	verbose    bool
	writer     io.Writer
	logger     *zap.SugaredLogger
}

type runtimeKey struct{}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{
		configPath: cfg.ConfigPath,
		tokenPath:  cfg.TokenPath,
		writer:     cfg.OutputWriter,
	}

	root := &cobra.Command{
		Use:   "dripctl",
		Short: "Drip monitoring CLI",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = os.Stdout
			}
			if rt.configPath == "" {
				rt.configPath = config.DefaultConfigPath()
			}
			if rt.tokenPath == "" {
				rt.tokenPath = config.DefaultTokenPath()
			}
			if !rt.verbose {
				rt.verbose = strings.EqualFold(os.Getenv("DRIPCTL_VERBOSE"), "true")
			}

			// Commands that work without a config file.
			switch cmd.Name() {
			case "version", "completion", "help":
				return nil
			}
			if cmd.Parent() != nil && cmd.Parent().Name() == "config" {
				switch cmd.Name() {
				case "init", "edit", "path":
					return nil
				}
			}

			cfg, err := config.Load(rt.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			rt.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&rt.configPath, "config", rt.configPath, "Path to config file")
	root.PersistentFlags().StringVar(&rt.tokenPath, "token-file", rt.tokenPath, "Path to the file-backed token store")
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Enable debug logging")

	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		NewConfigCommand(),
		NewAuthCommand(),
		NewRunCommand(),
		NewVersionCommand(),
	)

	return root
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

func (rt *runtimeState) Writer() io.Writer {
	if rt.writer != nil {
		return rt.writer
	}
	return os.Stdout
}

// Logger returns the process logger: debug-level development output with
// --verbose, errors only otherwise. Logs go to stderr so command output
// stays clean.
func (rt *runtimeState) Logger() *zap.SugaredLogger {
	if rt.logger != nil {
		return rt.logger
	}
	var zcfg zap.Config
	if rt.verbose {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	zcfg.OutputPaths = []string{"stderr"}
	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	rt.logger = logger.Sugar()
	return rt.logger
}

func (rt *runtimeState) EnsureConfigLoaded() error {
	if rt.cfg != nil {
		return nil
	}
	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return err
	}
	rt.cfg = cfg
	return nil
}

func (rt *runtimeState) configPathValue() string {
	if rt.configPath == "" {
		return config.DefaultConfigPath()
	}
	return rt.configPath
}

func (rt *runtimeState) tokenPathValue() string {
	if rt.tokenPath == "" {
		return config.DefaultTokenPath()
	}
	return rt.tokenPath
}

// tokenStore picks the backend from settings.token-storage; the commands
// only ever see the auth.TokenStore interface.
func (rt *runtimeState) tokenStore() auth.TokenStore {
	if rt.cfg != nil && rt.cfg.Settings.TokenStorage == config.TokenStorageKeyring {
		return &auth.KeyringTokenStore{Service: keyringService}
	}
	return &auth.FileTokenStore{Path: rt.tokenPathValue()}
}
