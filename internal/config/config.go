package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"tally/internal/storage"
	"tally/internal/todo"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "tally.db"
	DefaultLogName        = "tally.log"
	appDirName            = "tally"
	envConfigPath         = "TALLY_CONFIG"
)

type Keymap struct {
	Quit           string `toml:"quit"`
	Add            string `toml:"add"`
	Up             string `toml:"up"`
	Down           string `toml:"down"`
	Toggle         string `toml:"toggle"`
	Delete         string `toml:"delete"`
	Confirm        string `toml:"confirm"`
	Cancel         string `toml:"cancel"`
	PriorityUp     string `toml:"priority_up"`
	PriorityDown   string `toml:"priority_down"`
	ClearCompleted string `toml:"clear_completed"`
	NextTab        string `toml:"next_tab"`
	PrevTab        string `toml:"prev_tab"`
	TabAll         string `toml:"tab_all"`
	TabPending     string `toml:"tab_pending"`
	TabCompleted   string `toml:"tab_completed"`
	CyclePriority  string `toml:"cycle_priority"`
	CycleCategory  string `toml:"cycle_category"`
}

type Config struct {
	DBPath        string `toml:"db_path"`
	StorageKey    string `toml:"storage_key"`
	DefaultFilter string `toml:"default_filter"`
	LogPath       string `toml:"log_path"`
	LogLevel      string `toml:"log_level"`
	Keys          Keymap `toml:"keys"`
}

// Filter returns the configured start filter, falling back to all.
func (c Config) Filter() todo.Filter {
	f, err := todo.ParseFilter(c.DefaultFilter)
	if err != nil {
		return todo.FilterAll
	}
	return f
}

// ResolveConfigPath picks $TALLY_CONFIG, then the XDG config dir, then
// ~/.config/tally. It falls back to the working directory.
func ResolveConfigPath() string {
	if p := strings.TrimSpace(os.Getenv(envConfigPath)); p != "" {
		return p
	}
	if dir := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); dir != "" {
		return filepath.Join(dir, appDirName, DefaultConfigFileName)
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".config", appDirName, DefaultConfigFileName)
	}
	return DefaultConfigFileName
}

func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig(filepath.Dir(path))
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(filepath.Dir(path), DefaultDBName)
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = storage.TodosKey
	}
	if _, err := todo.ParseFilter(cfg.DefaultFilter); err != nil {
		cfg.DefaultFilter = string(todo.FilterAll)
	}
	return cfg, nil
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig(dir string) Config {
	return Config{
		DBPath:        filepath.Join(dir, DefaultDBName),
		StorageKey:    storage.TodosKey,
		DefaultFilter: string(todo.FilterAll),
		LogPath:       filepath.Join(dir, DefaultLogName),
		LogLevel:      "info",
		Keys: Keymap{
			Quit:           "q",
			Add:            "a",
			Up:             "k",
			Down:           "j",
			Toggle:         " ",
			Delete:         "d",
			Confirm:        "enter",
			Cancel:         "esc",
			PriorityUp:     "+",
			PriorityDown:   "-",
			ClearCompleted: "C",
			NextTab:        "tab",
			PrevTab:        "shift+tab",
			TabAll:         "1",
			TabPending:     "2",
			TabCompleted:   "3",
			CyclePriority:  "ctrl+p",
			CycleCategory:  "ctrl+g",
		},
	}
}
