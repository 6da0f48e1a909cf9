package config

type Config struct {
	Target struct {
		URL string `json:"url" yaml:"url"`
		// LoginScript 导航完成后执行一次,可为空
		LoginScript string `json:"login_script" yaml:"login_script"`
		// DateScript 切换查询日期的脚本,{{date}} 替换为 YYYYMMDD
		DateScript      string `json:"date_script" yaml:"date_script"`
		MasterGrid      string `json:"master_grid" yaml:"master_grid"`
		DetailGrid      string `json:"detail_grid" yaml:"detail_grid"`
		NavigateTimeout int    `json:"navigate_timeout" yaml:"navigate_timeout"`
		// Driver 浏览器驱动,rod 或 chromedp
		Driver string `json:"driver" yaml:"driver"`
	} `json:"target" yaml:"target"`

	Harvest struct {
		DetailThreshold int    `json:"detail_threshold" yaml:"detail_threshold"`
		MasterThreshold int    `json:"master_threshold" yaml:"master_threshold"`
		PollIntervalMs  int    `json:"poll_interval_ms" yaml:"poll_interval_ms"`
		GridTimeoutMs   int    `json:"grid_timeout_ms" yaml:"grid_timeout_ms"`
		SettleTimeoutMs int    `json:"settle_timeout_ms" yaml:"settle_timeout_ms"`
		ReadyTimeoutMs  int    `json:"ready_timeout_ms" yaml:"ready_timeout_ms"`
		MaxScrolls      int    `json:"max_scrolls" yaml:"max_scrolls"`
		AggregateField  string `json:"aggregate_field" yaml:"aggregate_field"`
		Readiness       string `json:"readiness" yaml:"readiness"`

		Master struct {
			Columns         []string `json:"columns" yaml:"columns"`
			KeyColumn       string   `json:"key_column" yaml:"key_column"`
			IDPattern       string   `json:"id_pattern" yaml:"id_pattern"`
			NameColumn      string   `json:"name_column" yaml:"name_column"`
			AggregateColumn string   `json:"aggregate_column" yaml:"aggregate_column"`
		} `json:"master" yaml:"master"`

		Detail struct {
			Columns        []string `json:"columns" yaml:"columns"`
			KeyColumn      string   `json:"key_column" yaml:"key_column"`
			IDPattern      string   `json:"id_pattern" yaml:"id_pattern"`
			NameColumn     string   `json:"name_column" yaml:"name_column"`
			NumericColumns []string `json:"numeric_columns" yaml:"numeric_columns"`
		} `json:"detail" yaml:"detail"`

		// Selector 网格 DOM 约定,%s 替换为网格名
		Selector struct {
			Body         string `json:"body" yaml:"body"`
			Cell         string `json:"cell" yaml:"cell"`
			ScrollButton string `json:"scroll_button" yaml:"scroll_button"`
			CellID       string `json:"cell_id" yaml:"cell_id"`
		} `json:"selector" yaml:"selector"`
	} `json:"harvest" yaml:"harvest"`

	Elasticsearch struct {
		Enabled  bool   `json:"enabled" yaml:"enabled"`
		Username string `json:"username" yaml:"username"`
		Password string `json:"password" yaml:"password"`
		Address  string `json:"address" yaml:"address"`
	} `json:"elasticsearch" yaml:"elasticsearch"`

	SQLite struct {
		Path string `json:"path" yaml:"path"`
	} `json:"sqlite" yaml:"sqlite"`

	Export struct {
		Dir string `json:"dir" yaml:"dir"`
	} `json:"export" yaml:"export"`

	Log struct {
		Level       string `json:"level" yaml:"level"`
		Development bool   `json:"development" yaml:"development"`
		OutputPath  string `json:"output_path" yaml:"output_path"`
	} `json:"log" yaml:"log"`

	Rod struct {
		UserMode                         bool   `json:"user_mode" yaml:"user_mode"`
		UserDataDir                      string `json:"user_data_dir" yaml:"user_data_dir"`
		Headless                         bool   `json:"headless" yaml:"headless"`
		DisableBlinkFeatures             string `json:"disable_blink_features" yaml:"disable_blink_features"`
		Incognito                        bool   `json:"incognito" yaml:"incognito"`
		DisableDevShmUsage               bool   `json:"disable_dev_shm_usage" yaml:"disable_dev_shm_usage"`
		NoSandbox                        bool   `json:"no_sandbox" yaml:"no_sandbox"`
		UserAgent                        string `json:"user_agent" yaml:"user_agent"`
		Leakless                         bool   `json:"leakless" yaml:"leakless"`
		Bin                              string `json:"bin" yaml:"bin"`
		DisableBackgroundNetworking      bool   `json:"disable_background_networking" yaml:"disable_background_networking"`
		DisableBackgroundTimerThrottling bool   `json:"disable_background_timer_throttling" yaml:"disable_background_timer_throttling"`
		BasicRemoteDebuggingPort         int    `json:"basic_remote_debugging_port" yaml:"basic_remote_debugging_port"`
		Trace                            bool   `json:"trace" yaml:"trace"`
		PoolSize                         int    `json:"pool_size" yaml:"pool_size"`
		// PoolMode 回填任务的并发方式: browser 每个任务一个浏览器, page 共用一个浏览器
		PoolMode                         string `json:"pool_mode" yaml:"pool_mode"`
	} `json:"rod" yaml:"rod"`

	Chromedp struct {
		LifeTime             int    `json:"life_time" yaml:"life_time"`
		UserDataDir          string `json:"user_data_dir" yaml:"user_data_dir"`
		Headless             bool   `json:"headless" yaml:"headless"`
		DisableBlinkFeatures string `json:"disable_blink_features" yaml:"disable_blink_features"`
		Incognito            bool   `json:"incognito" yaml:"incognito"`
		DisableDevShmUsage   bool   `json:"disable_dev_shm_usage" yaml:"disable_dev_shm_usage"`
		NoSandbox            bool   `json:"no_sandbox" yaml:"no_sandbox"`
		UserAgent            string `json:"user_agent" yaml:"user_agent"`
	} `json:"chromedp" yaml:"chromedp"`

	Embedder struct {
		Enabled   bool   `json:"enabled" yaml:"enabled"`
		Host      string `json:"host" yaml:"host"`
		Port      int    `json:"port" yaml:"port"`
		Model     string `json:"model" yaml:"model"`
		BatchSize int    `json:"batch_size" yaml:"batch_size"`
	} `json:"embedder" yaml:"embedder"`
}
