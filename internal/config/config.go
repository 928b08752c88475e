package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port       string   `json:"port" yaml:"port"`
	SourceDir  string   `json:"sourceDir" yaml:"sourceDir"`   // корень исходников *.java
	TypesDir   string   `json:"typesDir" yaml:"typesDir"`     // справочники типов-значений (yaml)
	Extensions []string `json:"extensions" yaml:"extensions"` // расширения исходников

	DBURL       string `json:"dbUrl" yaml:"dbUrl"` // пусто = снимки в памяти
	AutoMigrate bool   `json:"autoMigrate" yaml:"autoMigrate"`

	// экспорт снимков (локально)
	FilesRoot string `json:"filesRoot" yaml:"filesRoot"`

	Label           string `json:"label" yaml:"label"` // none|field|kind
	ResolveEmbedded bool   `json:"resolveEmbedded" yaml:"resolveEmbedded"`
	Watch           bool   `json:"watch" yaml:"watch"`

	LogFile  string `json:"logFile" yaml:"logFile"` // пусто = stderr
	LogLevel string `json:"logLevel" yaml:"logLevel"`
}

func def() Config {
	return Config{
		Port:            "8080",
		SourceDir:       "src",
		TypesDir:        "reference/types",
		Extensions:      []string{".java"},
		DBURL:           "",
		AutoMigrate:     false,
		FilesRoot:       "exports",
		Label:           "none",
		ResolveEmbedded: true,
		Watch:           false,
		LogFile:         "",
		LogLevel:        "info",
	}
}

// Default возвращает конфигурацию по умолчанию.
func Default() Config { return def() }

// loadFile: YAML для .yaml/.yml, иначе JSON. Поверх значений по умолчанию.
func loadFile(path string) (Config, error) {
	c := def()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &c)
	default:
		err = json.Unmarshal(b, &c)
	}
	if err != nil {
		return c, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func getenvBool(k string, fallback bool) bool {
	if v, ok := os.LookupEnv(k); ok {
		if b, ok := parseBool(v); ok {
			return b
		}
	}
	return fallback
}

func getenvList(k string, fallback []string) []string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return splitList(v)
	}
	return fallback
}

func parseBool(v string) (bool, bool) {
	switch strings.TrimSpace(strings.ToLower(v)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load: defaults -> файл (если есть) -> ENV (ERDGEN_*).
// Отсутствующий файл не ошибка, битый файл ошибка.
func Load(path string) (Config, error) {
	cfg := def()
	if path != "" {
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			c2, err := loadFile(path)
			if err != nil {
				return cfg, err
			}
			cfg = c2
		}
	}

	// ENV overrides
	cfg.Port = getenv("ERDGEN_PORT", cfg.Port)
	cfg.SourceDir = getenv("ERDGEN_SOURCE_DIR", cfg.SourceDir)
	cfg.TypesDir = getenv("ERDGEN_TYPES_DIR", cfg.TypesDir)
	cfg.Extensions = getenvList("ERDGEN_EXTENSIONS", cfg.Extensions)
	cfg.DBURL = getenv("ERDGEN_DB_URL", cfg.DBURL)
	cfg.AutoMigrate = getenvBool("ERDGEN_AUTO_MIGRATE", cfg.AutoMigrate)
	cfg.FilesRoot = getenv("ERDGEN_FILES_ROOT", cfg.FilesRoot)
	cfg.Label = getenv("ERDGEN_LABEL", cfg.Label)
	cfg.ResolveEmbedded = getenvBool("ERDGEN_RESOLVE_EMBEDDED", cfg.ResolveEmbedded)
	cfg.Watch = getenvBool("ERDGEN_WATCH", cfg.Watch)
	cfg.LogFile = getenv("ERDGEN_LOG_FILE", cfg.LogFile)
	cfg.LogLevel = getenv("ERDGEN_LOG_LEVEL", cfg.LogLevel)
	return cfg, nil
}

// LoadWithPath читает файл по указанному пути, потом применяет ENV и флаги из args.
// Флаг -config с другим путём перечитывает файл.
func LoadWithPath(path string, args []string) (Config, error) {
	fs := flag.NewFlagSet("erdgen", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", path, "Path to config file (JSON or YAML)")
	port := fs.String("port", "", "HTTP port")
	src := fs.String("src", "", "Path to source directory")
	types := fs.String("types", "", "Path to value type catalog directory")
	exts := fs.String("ext", "", "Comma separated source extensions")
	db := fs.String("db", "", "Postgres URL (empty = in-memory snapshots)")
	auto := fs.String("auto-migrate", "", "Create snapshot table on start (true/false)")
	files := fs.String("files-root", "", "Snapshot export directory")
	label := fs.String("label", "", "Relation labels: none|field|kind")
	embedded := fs.String("resolve-embedded", "", "Expand @Embedded fields (true/false)")
	watch := fs.String("watch", "", "Reload on source changes (true/false)")
	logFile := fs.String("log-file", "", "Log file (empty = stderr)")
	logLevel := fs.String("log-level", "", "debug|info|warn|error")

	if err := fs.Parse(args); err != nil {
		return def(), err
	}

	cfg, err := Load(*configPath)
	if err != nil {
		return cfg, err
	}

	// Flags overrides: только явно заданные
	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = strings.TrimSpace(*port)
		case "src":
			cfg.SourceDir = strings.TrimSpace(*src)
		case "types":
			cfg.TypesDir = strings.TrimSpace(*types)
		case "ext":
			cfg.Extensions = splitList(*exts)
		case "db":
			cfg.DBURL = strings.TrimSpace(*db)
		case "auto-migrate":
			cfg.AutoMigrate, flagErr = boolFlag(f.Name, *auto, flagErr)
		case "files-root":
			cfg.FilesRoot = strings.TrimSpace(*files)
		case "label":
			cfg.Label = strings.TrimSpace(*label)
		case "resolve-embedded":
			cfg.ResolveEmbedded, flagErr = boolFlag(f.Name, *embedded, flagErr)
		case "watch":
			cfg.Watch, flagErr = boolFlag(f.Name, *watch, flagErr)
		case "log-file":
			cfg.LogFile = strings.TrimSpace(*logFile)
		case "log-level":
			cfg.LogLevel = strings.TrimSpace(*logLevel)
		}
	})
	if flagErr != nil {
		return cfg, flagErr
	}
	return cfg, cfg.Validate()
}

func boolFlag(name, v string, prev error) (bool, error) {
	b, ok := parseBool(v)
	if !ok && prev == nil {
		prev = fmt.Errorf("flag -%s: invalid boolean %q", name, v)
	}
	return b, prev
}

// Validate проверяет значения, которые иначе всплыли бы только в рантайме.
func (c Config) Validate() error {
	var errs []error
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("port %q is not a number", c.Port))
	}
	switch strings.ToLower(c.Label) {
	case "", "none", "field", "kind":
	default:
		errs = append(errs, fmt.Errorf("label %q (allowed: none|field|kind)", c.Label))
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log level %q (allowed: debug|info|warn|error)", c.LogLevel))
	}
	if len(c.Extensions) == 0 {
		errs = append(errs, errors.New("no source extensions"))
	}
	return errors.Join(errs...)
}
