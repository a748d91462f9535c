package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/netherland/internal/constants"
	"github.com/mesh-intelligence/netherland/internal/core"
	"github.com/mesh-intelligence/netherland/internal/paths"
	"github.com/mesh-intelligence/netherland/internal/sqlite"
	"github.com/mesh-intelligence/netherland/pkg/types"
)

// Config keys in config.yaml.
const (
	cfgKeyDataDir       = "data_dir"
	cfgKeyConstants     = "constants"
	cfgKeyErosionPolicy = "erosion_policy"
	cfgKeyLayerPolicy   = "layer_policy"
	cfgKeyBusyTimeout   = "busy_timeout"
	cfgKeyJournalMode   = "journal_mode"
)

// configFile holds the structure written to config.yaml.
type configFile struct {
	DataDir       string `yaml:"data_dir,omitempty"`
	Constants     string `yaml:"constants"`
	ErosionPolicy string `yaml:"erosion_policy"`
	LayerPolicy   string `yaml:"layer_policy"`
	BusyTimeout   string `yaml:"busy_timeout"`
	JournalMode   string `yaml:"journal_mode"`
}

// appConfig is the resolved configuration for one command invocation.
type appConfig struct {
	configDir     string
	dataDir       string
	constantsPath string
	erosion       core.ErosionPolicy
	layers        core.LayerPolicy
	store         types.Config
}

// loadAppConfig resolves directories and reads config.yaml with viper.
// A missing config.yaml is not an error.
func loadAppConfig() (*appConfig, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyConstants, paths.ConstantsFileName)
	v.SetDefault(cfgKeyErosionPolicy, core.ErosionRejectName)
	v.SetDefault(cfgKeyLayerPolicy, core.LayerPerTimestepName)
	v.SetDefault(cfgKeyBusyTimeout, types.DefaultBusyTimeout)
	v.SetDefault(cfgKeyJournalMode, types.JournalWAL)
	_ = v.BindEnv(cfgKeyErosionPolicy, "NETHERLAND_EROSION_POLICY")
	_ = v.BindEnv(cfgKeyLayerPolicy, "NETHERLAND_LAYER_POLICY")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	erosion, err := core.ParseErosionPolicy(v.GetString(cfgKeyErosionPolicy))
	if err != nil {
		return nil, err
	}
	layers, err := core.ParseLayerPolicy(v.GetString(cfgKeyLayerPolicy))
	if err != nil {
		return nil, err
	}

	store := types.Config{
		Backend:     types.BackendSQLite,
		DataDir:     dataDir,
		BusyTimeout: v.GetDuration(cfgKeyBusyTimeout),
		JournalMode: v.GetString(cfgKeyJournalMode),
	}
	if err := store.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidConfiguration, err)
	}

	return &appConfig{
		configDir:     configDir,
		dataDir:       dataDir,
		constantsPath: paths.ConstantsFile(configDir, v.GetString(cfgKeyConstants)),
		erosion:       erosion,
		layers:        layers,
		store:         store,
	}, nil
}

// engine returns an engine configured from the app config.
func (a *appConfig) engine() *core.Engine {
	return core.NewEngine(
		core.WithLogger(logger.Named("engine")),
		core.WithErosionPolicy(a.erosion),
		core.WithLayerPolicy(a.layers),
	)
}

// openStore attaches a SQLite backend in the data directory. The caller must
// defer Detach.
func (a *appConfig) openStore() (*sqlite.Backend, error) {
	b := sqlite.NewBackend()
	if err := b.Attach(a.store); err != nil {
		return nil, fmt.Errorf("attach store: %w", err)
	}
	logger.Debug("store attached", zap.String("data_dir", a.dataDir))
	return b, nil
}

// loadConstants reads the constants file named by path, or the configured
// constants file when path is empty. When the configured file does not exist
// the embedded reference constants are used.
func (a *appConfig) loadConstants(path string) (types.Constants, error) {
	if path != "" {
		return constants.Load(path)
	}
	if _, err := os.Stat(a.constantsPath); errors.Is(err, os.ErrNotExist) {
		logger.Debug("constants file not found, using reference constants",
			zap.String("path", a.constantsPath))
		return constants.Reference(), nil
	}
	return constants.Load(a.constantsPath)
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. If it already exists, the function returns nil.
func writeConfigIfMissing(path, dataDir string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	cfg := configFile{
		DataDir:       dataDir,
		Constants:     paths.ConstantsFileName,
		ErosionPolicy: core.ErosionRejectName,
		LayerPolicy:   core.LayerPerTimestepName,
		BusyTimeout:   types.DefaultBusyTimeout.String(),
		JournalMode:   types.JournalWAL,
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// writeConstantsIfMissing writes the reference constants to path if the
// file does not exist.
func writeConstantsIfMissing(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, constants.ReferenceTOML(), 0o644)
}
