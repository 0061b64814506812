package config

import (
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host  string `yaml:"host" json:"host"`
	Port  int    `yaml:"port" json:"port"`
	Debug bool   `yaml:"debug" json:"debug"`
}

type DBConfig struct {
	Type   string `yaml:"type" json:"type"`
	Host   string `yaml:"host" json:"host"`
	Port   int    `yaml:"port" json:"port"`
	Name   string `yaml:"name" json:"name"`
	User   string `yaml:"user" json:"user"`
	Passwd string `yaml:"passwd" json:"passwd"`
	Debug  bool   `yaml:"debug" json:"debug"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AppConfig struct {
	System   SysConfig `yaml:"system" json:"system"`
	Web      WebConfig `yaml:"web" json:"web"`
	Database DBConfig  `yaml:"database" json:"database"`
	Logger   LogConfig `yaml:"logger" json:"logger"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

func (c *AppConfig) GetBackupDir() string {
	return path.Join(c.System.Workdir, "backup")
}

func (c *AppConfig) initDirs() {
	_ = os.MkdirAll(path.Join(c.System.Workdir), 0755)
	_ = os.MkdirAll(path.Join(c.System.Workdir, "logs"), 0755)
	_ = os.MkdirAll(path.Join(c.System.Workdir, "data"), 0755)
	_ = os.MkdirAll(path.Join(c.System.Workdir, "backup"), 0755)
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "pricetrack",
		Location: "Local",
		Workdir:  "/var/pricetrack",
		Debug:    false,
	},
	Web: WebConfig{
		Host:  "0.0.0.0",
		Port:  1820,
		Debug: false,
	},
	Database: DBConfig{
		Type:   "sqlite",
		Host:   "127.0.0.1",
		Port:   5432,
		Name:   "pricetrack",
		User:   "postgres",
		Passwd: "",
		Debug:  false,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/pricetrack/pricetrack.log",
	},
}

func setEnvValue(name string, val *string) {
	if evalue, ok := os.LookupEnv(name); ok {
		*val = evalue
	}
}

func setEnvBoolValue(name string, val *bool) {
	if evalue, ok := os.LookupEnv(name); ok {
		*val = evalue == "true" || evalue == "1" || evalue == "on"
	}
}

// LoadConfig loads the YAML configuration file and applies environment
// variable overrides. A missing file yields the default configuration.
func LoadConfig(cfile string) *AppConfig {
	if cfile == "" {
		cfile = "pricetrack.yml"
	}
	cfg := DefaultAppConfig
	if _, err := os.Stat(cfile); err == nil {
		data, err := os.ReadFile(cfile)
		if err != nil {
			panic(err)
		}
		cfg = new(AppConfig)
		if err := yaml.Unmarshal(data, cfg); err != nil {
			panic(fmt.Errorf("parse config %s: %w", cfile, err))
		}
	}

	setEnvValue("PRICETRACK_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvBoolValue("PRICETRACK_SYSTEM_DEBUG", &cfg.System.Debug)
	setEnvValue("PRICETRACK_DB_TYPE", &cfg.Database.Type)
	setEnvValue("PRICETRACK_DB_HOST", &cfg.Database.Host)
	setEnvValue("PRICETRACK_DB_NAME", &cfg.Database.Name)
	setEnvValue("PRICETRACK_DB_USER", &cfg.Database.User)
	setEnvValue("PRICETRACK_DB_PWD", &cfg.Database.Passwd)
	setEnvValue("PRICETRACK_LOG_MODE", &cfg.Logger.Mode)

	cfg.initDirs()
	return cfg
}
