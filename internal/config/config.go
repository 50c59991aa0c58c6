// Package config loads mudra settings from defaults, an optional YAML file,
// MUDRA_* environment variables and command-line flags, in rising priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ayusman/mudra/internal/gesture"
)

// Config is the resolved configuration for one process.
type Config struct {
	Mode             gesture.Mode
	ConfirmThreshold int
	Cooldown         time.Duration
	HandLimit        int

	Camera struct {
		Device int
		Width  int
		Height int
		FPS    int
		Mirror bool
	}

	Detector struct {
		MinDetectionConfidence float64
		MinTrackingConfidence  float64
		FaceConfidence         float64
		FaceCascade            string
		Script                 string
	}

	Executor struct {
		PluginDir string
		Plugin    string
		TimeoutMs int
		DryRun    bool
	}

	Store struct {
		Path string
	}

	Server struct {
		Addr string
		Tray bool
	}

	Log struct {
		Level string
		File  string
	}
}

// DataDir is the per-user directory for the journal and logs.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mudra"
	}
	return filepath.Join(home, ".mudra")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", string(gesture.ModeYoutube))
	v.SetDefault("confirm_threshold", gesture.DefaultConfirmThreshold)
	v.SetDefault("cooldown_seconds", gesture.DefaultCooldown.Seconds())
	v.SetDefault("hand_limit", 1)

	v.SetDefault("camera.device", 0)
	v.SetDefault("camera.width", 640)
	v.SetDefault("camera.height", 480)
	v.SetDefault("camera.fps", 30)
	v.SetDefault("camera.mirror", true)

	v.SetDefault("detector.min_detection_confidence", 0.85)
	v.SetDefault("detector.min_tracking_confidence", 0.7)
	v.SetDefault("detector.face_confidence", 0.6)
	v.SetDefault("detector.face_cascade", "")
	v.SetDefault("detector.script", "")

	v.SetDefault("executor.plugin_dir", filepath.Join(DataDir(), "plugins"))
	v.SetDefault("executor.plugin", "keyboard")
	v.SetDefault("executor.timeout_ms", 5000)
	v.SetDefault("executor.dry_run", false)

	v.SetDefault("store.path", filepath.Join(DataDir(), "mudra.db"))

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.tray", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"mode":              "mode",
	"confirm-threshold": "confirm_threshold",
	"cooldown":          "cooldown_seconds",
	"hand-limit":        "hand_limit",
	"camera":            "camera.device",
	"no-mirror":         "camera.no_mirror",
	"face-cascade":      "detector.face_cascade",
	"plugin-dir":        "executor.plugin_dir",
	"dry-run":           "executor.dry_run",
	"db":                "store.path",
	"addr":              "server.addr",
	"tray":              "server.tray",
	"log-level":         "log.level",
	"log-file":          "log.file",
}

// Load resolves the configuration. configFile may be empty; flags may be nil.
// A .env file in the working directory is loaded first if present.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	// .env file is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MUDRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("mudra")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(DataDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var c Config

	mode, err := gesture.ParseMode(v.GetString("mode"))
	if err != nil {
		return nil, err
	}
	c.Mode = mode

	c.ConfirmThreshold = v.GetInt("confirm_threshold")
	if c.ConfirmThreshold < 1 {
		return nil, fmt.Errorf("confirm_threshold must be at least 1, got %d", c.ConfirmThreshold)
	}

	cooldown := v.GetFloat64("cooldown_seconds")
	if cooldown < 0 {
		return nil, fmt.Errorf("cooldown_seconds must not be negative, got %v", cooldown)
	}
	c.Cooldown = time.Duration(cooldown * float64(time.Second))

	c.HandLimit = v.GetInt("hand_limit")
	if c.HandLimit < 1 {
		return nil, fmt.Errorf("hand_limit must be at least 1, got %d", c.HandLimit)
	}

	c.Camera.Device = v.GetInt("camera.device")
	c.Camera.Width = v.GetInt("camera.width")
	c.Camera.Height = v.GetInt("camera.height")
	c.Camera.FPS = v.GetInt("camera.fps")
	c.Camera.Mirror = v.GetBool("camera.mirror") && !v.GetBool("camera.no_mirror")

	c.Detector.MinDetectionConfidence = v.GetFloat64("detector.min_detection_confidence")
	c.Detector.MinTrackingConfidence = v.GetFloat64("detector.min_tracking_confidence")
	c.Detector.FaceConfidence = v.GetFloat64("detector.face_confidence")
	c.Detector.FaceCascade = v.GetString("detector.face_cascade")
	c.Detector.Script = v.GetString("detector.script")

	c.Executor.PluginDir = v.GetString("executor.plugin_dir")
	c.Executor.Plugin = v.GetString("executor.plugin")
	c.Executor.TimeoutMs = v.GetInt("executor.timeout_ms")
	c.Executor.DryRun = v.GetBool("executor.dry_run")

	c.Store.Path = v.GetString("store.path")

	c.Server.Addr = v.GetString("server.addr")
	c.Server.Tray = v.GetBool("server.tray")

	c.Log.Level = v.GetString("log.level")
	c.Log.File = v.GetString("log.file")

	return &c, nil
}
