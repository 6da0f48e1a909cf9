package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	EnvTargetURL  = "HARVESTER_TARGET_URL"
	EnvESPassword = "HARVESTER_ES_PASSWORD"
	EnvSQLitePath = "HARVESTER_SQLITE_PATH"
	EnvLogLevel   = "HARVESTER_LOG_LEVEL"
)

// ParseConfig 解析 JSON 配置
func ParseConfig(byteConfig []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(byteConfig, &cfg); err != nil {
		return nil, fmt.Errorf("解析JSON配置失败: %w", err)
	}
	return finish(&cfg)
}

// ParseYAMLConfig 解析 YAML 配置
func ParseYAMLConfig(byteConfig []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(byteConfig, &cfg); err != nil {
		return nil, fmt.Errorf("解析YAML配置失败: %w", err)
	}
	return finish(&cfg)
}

// LoadConfig 按扩展名选择 JSON 或 YAML
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAMLConfig(data)
	default:
		return ParseConfig(data)
	}
}

func finish(cfg *Config) (*Config, error) {
	applyEnv(cfg)
	applyDefaults(cfg)
	for _, dir := range []*string{&cfg.Chromedp.UserDataDir, &cfg.Rod.UserDataDir} {
		if *dir == "" {
			continue
		}
		absPath, err := filepath.Abs(*dir)
		if err != nil {
			return nil, fmt.Errorf("解析用户数据目录失败: %w", err)
		}
		*dir = absPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvTargetURL); v != "" {
		cfg.Target.URL = v
	}
	if v := os.Getenv(EnvESPassword); v != "" {
		cfg.Elasticsearch.Password = v
	}
	if v := os.Getenv(EnvSQLitePath); v != "" {
		cfg.SQLite.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
}

func applyDefaults(cfg *Config) {
	t := &cfg.Target
	setString(&t.MasterGrid, "gdList")
	setString(&t.DetailGrid, "gdDetail")
	setString(&t.Driver, "rod")
	setInt(&t.NavigateTimeout, 60)

	h := &cfg.Harvest
	setInt(&h.DetailThreshold, 3)
	setInt(&h.MasterThreshold, 3)
	setInt(&h.PollIntervalMs, 300)
	setInt(&h.GridTimeoutMs, 3000)
	setInt(&h.SettleTimeoutMs, 1500)
	setInt(&h.ReadyTimeoutMs, 120000)
	setInt(&h.MaxScrolls, 500)
	setString(&h.AggregateField, "sales")
	setString(&h.Readiness, "non_empty")

	if len(h.Master.Columns) == 0 {
		h.Master.Columns = []string{"mid_code", "mid_name", "sale_qty"}
	}
	setString(&h.Master.KeyColumn, "mid_code")
	setString(&h.Master.IDPattern, `^\d{3}$`)
	setString(&h.Master.NameColumn, "mid_name")
	setString(&h.Master.AggregateColumn, "sale_qty")

	if len(h.Detail.Columns) == 0 {
		h.Detail.Columns = []string{"product_code", "product_name", "sales", "order_cnt", "purchase", "disposal", "stock"}
	}
	setString(&h.Detail.KeyColumn, "product_code")
	setString(&h.Detail.IDPattern, `^\d{13}$`)
	setString(&h.Detail.NameColumn, "product_name")
	if len(h.Detail.NumericColumns) == 0 {
		h.Detail.NumericColumns = []string{"sales", "order_cnt", "purchase", "disposal", "stock"}
	}

	setString(&h.Selector.Body, "div[id$='%s.body']")
	setString(&h.Selector.Cell, "div[id*='%s.body'][id*='cell_'][id$=':text']")
	setString(&h.Selector.ScrollButton, "div[id$='%s.vscrollbar.incbutton:icontext']")
	setString(&h.Selector.CellID, `cell_(\d+)_(\d+):text$`)

	setString(&cfg.SQLite.Path, "harvest.db")
	setString(&cfg.Export.Dir, "exports")
	setString(&cfg.Log.Level, "info")
	setInt(&cfg.Rod.PoolSize, 2)
	setString(&cfg.Rod.PoolMode, "browser")
	setInt(&cfg.Rod.BasicRemoteDebuggingPort, 9222)
	setInt(&cfg.Chromedp.LifeTime, 3600)
	setInt(&cfg.Embedder.BatchSize, 16)
}

func setString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func setInt(dst *int, def int) {
	if *dst <= 0 {
		*dst = def
	}
}

// Validate 检查默认值补齐之后仍然不合法的配置
func (c *Config) Validate() error {
	switch c.Target.Driver {
	case "rod", "chromedp":
	default:
		return fmt.Errorf("未知的浏览器驱动: %s", c.Target.Driver)
	}
	switch c.Rod.PoolMode {
	case "browser", "page":
	default:
		return fmt.Errorf("未知的浏览器池模式: %s", c.Rod.PoolMode)
	}
	if !slices.Contains(c.Harvest.Master.Columns, c.Harvest.Master.KeyColumn) {
		return fmt.Errorf("主网格键列 %s 不在列定义中", c.Harvest.Master.KeyColumn)
	}
	if !slices.Contains(c.Harvest.Detail.Columns, c.Harvest.Detail.KeyColumn) {
		return fmt.Errorf("明细网格键列 %s 不在列定义中", c.Harvest.Detail.KeyColumn)
	}
	if !slices.Contains(c.Harvest.Detail.NumericColumns, c.Harvest.AggregateField) {
		return fmt.Errorf("对账字段 %s 不是明细数值列", c.Harvest.AggregateField)
	}
	return nil
}
