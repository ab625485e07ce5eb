package config

import (
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v2"
)

// SysConfig holds process-level settings
type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

// MonitorConfig tunes the check/dispatch/retention cycles and the scraper.
type MonitorConfig struct {
	CheckInterval    int    `yaml:"check_interval" json:"check_interval"`       // minutes between price-check ticks
	DispatchInterval int    `yaml:"dispatch_interval" json:"dispatch_interval"` // minutes between notification dispatch ticks
	RetentionDays    int    `yaml:"retention_days" json:"retention_days"`
	BatchSize        int    `yaml:"batch_size" json:"batch_size"`
	MaxWorkers       int    `yaml:"max_workers" json:"max_workers"`
	DefaultCurrency  string `yaml:"default_currency" json:"default_currency"`
	FetchTimeout     int    `yaml:"fetch_timeout" json:"fetch_timeout"` // seconds per fetch attempt
	SettleDelay      int    `yaml:"settle_delay" json:"settle_delay"`   // seconds to wait after navigation
	BrowserDisable   bool   `yaml:"browser_disable" json:"browser_disable"`
}

type NotifierConfig struct {
	PushURL    string `yaml:"push_url" json:"push_url"`
	PushToken  string `yaml:"push_token" json:"push_token"`
	PushUser   string `yaml:"push_user" json:"push_user"`
	SMTPHost   string `yaml:"smtp_host" json:"smtp_host"`
	SMTPPort   int    `yaml:"smtp_port" json:"smtp_port"`
	SMTPUser   string `yaml:"smtp_user" json:"smtp_user"`
	SMTPPasswd string `yaml:"smtp_passwd" json:"smtp_passwd"`
	MailFrom   string `yaml:"mail_from" json:"mail_from"`
	MailTo     string `yaml:"mail_to" json:"mail_to"`
}

// RetailerConfig carries per-store extraction defaults: a display name used to
// strip "<title> - Store" suffixes and an optional default price selector.
type RetailerConfig struct {
	Name     string `yaml:"name" json:"name"`
	Selector string `yaml:"selector" json:"selector"`
}

type AppConfig struct {
	System    SysConfig                 `yaml:"system" json:"system"`
	Logger    LogConfig                 `yaml:"logger" json:"logger"`
	Database  DBConfig                  `yaml:"database" json:"database"`
	Monitor   MonitorConfig             `yaml:"monitor" json:"monitor"`
	Notifier  NotifierConfig            `yaml:"notifier" json:"notifier"`
	Retailers map[string]RetailerConfig `yaml:"retailers" json:"retailers"`
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "pricetracker",
		Location: "Australia/Sydney",
		Workdir:  "/var/pricetracker",
		Debug:    false,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/pricetracker/pricetracker.log",
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "pricetracker",
		User:     "postgres",
		Passwd:   "",
		MaxConn:  50,
		IdleConn: 10,
	},
	Monitor: MonitorConfig{
		CheckInterval:    30,
		DispatchInterval: 5,
		RetentionDays:    90,
		BatchSize:        20,
		MaxWorkers:       5,
		DefaultCurrency:  "AUD",
		FetchTimeout:     30,
		SettleDelay:      2,
	},
	Notifier: NotifierConfig{
		PushURL:  "https://api.pushover.net/1/messages.json",
		SMTPPort: 587,
	},
	Retailers: DefaultRetailers,
}

// DefaultRetailers is the built-in retailer table. Keys are matched against
// the second-level domain of a monitor's canonical URL.
var DefaultRetailers = map[string]RetailerConfig{
	"amazon":       {Name: "Amazon.com.au", Selector: ".a-price .a-offscreen, #priceblock_ourprice"},
	"ebay":         {Name: "eBay", Selector: ".x-price-primary .ux-textspans"},
	"jbhifi":       {Name: "JB Hi-Fi", Selector: ".price-value, [data-testid='price']"},
	"thegoodguys":  {Name: "The Good Guys", Selector: ".product-price, .you-pay-price"},
	"kogan":        {Name: "Kogan.com", Selector: "[itemprop='price'], .product-price"},
	"bigw":         {Name: "BIG W", Selector: "[data-testid='price-value']"},
	"officeworks":  {Name: "Officeworks", Selector: "[data-ref='product-price']"},
	"harveynorman": {Name: "Harvey Norman", Selector: ".price, [itemprop='price']"},
	"bunnings":     {Name: "Bunnings Warehouse", Selector: "[data-locator='product-price'], .price"},
}

func setEnvValue(name string, val *string) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		*val = evalue
	}
}

func setEnvBoolValue(name string, val *bool) {
	var evalue = os.Getenv(name)
	if evalue != "" {
		*val = evalue == "true" || evalue == "1" || evalue == "on"
	}
}

func setEnvIntValue(name string, val *int) {
	var evalue = os.Getenv(name)
	if evalue == "" {
		return
	}
	p, err := strconv.ParseInt(evalue, 10, 64)
	if err == nil {
		*val = int(p)
	}
}

// LoadConfig reads the YAML config file when present and applies environment
// overrides on top of the compiled-in defaults. The defaults are copied, so
// repeated loads never see each other's state.
func LoadConfig(cfile string) *AppConfig {
	base := *DefaultAppConfig
	cfg := &base
	cfg.Retailers = make(map[string]RetailerConfig, len(DefaultRetailers))
	for store, retailer := range DefaultRetailers {
		cfg.Retailers[store] = retailer
	}

	if cfile != "" {
		if data, err := os.ReadFile(filepath.Clean(cfile)); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				panic(err)
			}
		}
	}
	if cfg.Retailers == nil {
		cfg.Retailers = make(map[string]RetailerConfig, len(DefaultRetailers))
	}
	for store, retailer := range DefaultRetailers {
		if _, ok := cfg.Retailers[store]; !ok {
			cfg.Retailers[store] = retailer
		}
	}

	setEnvValue("PRICETRACKER_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvValue("PRICETRACKER_SYSTEM_LOCATION", &cfg.System.Location)
	setEnvBoolValue("PRICETRACKER_SYSTEM_DEBUG", &cfg.System.Debug)

	setEnvValue("PRICETRACKER_DB_TYPE", &cfg.Database.Type)
	setEnvValue("PRICETRACKER_DB_HOST", &cfg.Database.Host)
	setEnvIntValue("PRICETRACKER_DB_PORT", &cfg.Database.Port)
	setEnvValue("PRICETRACKER_DB_NAME", &cfg.Database.Name)
	setEnvValue("PRICETRACKER_DB_USER", &cfg.Database.User)
	setEnvValue("PRICETRACKER_DB_PWD", &cfg.Database.Passwd)
	setEnvBoolValue("PRICETRACKER_DB_DEBUG", &cfg.Database.Debug)

	setEnvIntValue("PRICETRACKER_CHECK_INTERVAL", &cfg.Monitor.CheckInterval)
	setEnvIntValue("PRICETRACKER_DISPATCH_INTERVAL", &cfg.Monitor.DispatchInterval)
	setEnvIntValue("PRICETRACKER_RETENTION_DAYS", &cfg.Monitor.RetentionDays)
	setEnvValue("PRICETRACKER_DEFAULT_CURRENCY", &cfg.Monitor.DefaultCurrency)
	setEnvBoolValue("PRICETRACKER_BROWSER_DISABLE", &cfg.Monitor.BrowserDisable)

	setEnvValue("PRICETRACKER_PUSH_URL", &cfg.Notifier.PushURL)
	setEnvValue("PRICETRACKER_PUSH_TOKEN", &cfg.Notifier.PushToken)
	setEnvValue("PRICETRACKER_PUSH_USER", &cfg.Notifier.PushUser)
	setEnvValue("PRICETRACKER_SMTP_HOST", &cfg.Notifier.SMTPHost)
	setEnvIntValue("PRICETRACKER_SMTP_PORT", &cfg.Notifier.SMTPPort)
	setEnvValue("PRICETRACKER_SMTP_USER", &cfg.Notifier.SMTPUser)
	setEnvValue("PRICETRACKER_SMTP_PWD", &cfg.Notifier.SMTPPasswd)
	setEnvValue("PRICETRACKER_MAIL_FROM", &cfg.Notifier.MailFrom)
	setEnvValue("PRICETRACKER_MAIL_TO", &cfg.Notifier.MailTo)

	return cfg
}
