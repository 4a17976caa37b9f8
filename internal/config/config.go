package config

import (
	"fmt"
	"os"
	"path/filepath"
	"pivotsync/internal/logger"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Workbook WorkbookConfig `toml:"workbook"`
	Schedule ScheduleConfig `toml:"schedule"`
	Log      LogConfig      `toml:"log"`
}

type WorkbookConfig struct {
	Path        string `toml:"path"`
	DataSheet   string `toml:"data_sheet"`
	ReportSheet string `toml:"report_sheet"`
	DateColumn  int    `toml:"date_column"`
}

type ScheduleConfig struct {
	Every int    `toml:"every"`
	Unit  string `toml:"unit"`
}

type LogConfig struct {
	Directory string `toml:"directory"`
	Level     string `toml:"level"`
}

// LoadConfig loads configuration from the specified config file path
func LoadConfig(configPath string) (*Config, error) {
	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Create configs directory if it doesn't exist
		configDir := filepath.Dir(configPath)
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %v", err)
		}

		// Create default config file
		defaultConfig := &Config{
			Workbook: WorkbookConfig{
				Path:        "data/report.xlsx",
				DataSheet:   "RawData",
				ReportSheet: "Óránkénti jelentés",
				DateColumn:  0,
			},
			Schedule: ScheduleConfig{
				Every: 5,
				Unit:  "minutes",
			},
			Log: LogConfig{
				Directory: "logs",
				Level:     "info",
			},
		}

		err = SaveConfig(configPath, defaultConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create default config: %v", err)
		}

		logger.Info("Created default config file", "path", configPath)
		return defaultConfig, nil
	}

	// Load existing config
	var config Config
	_, err := toml.DecodeFile(configPath, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %v", configPath, err)
	}

	// Set defaults if missing
	if config.Workbook.Path == "" {
		config.Workbook.Path = "data/report.xlsx"
	}
	if config.Workbook.DataSheet == "" {
		config.Workbook.DataSheet = "RawData"
	}
	if config.Workbook.ReportSheet == "" {
		config.Workbook.ReportSheet = "Óránkénti jelentés"
	}
	if config.Schedule.Every == 0 {
		config.Schedule.Every = 5
	}
	if config.Schedule.Unit == "" {
		config.Schedule.Unit = "minutes"
	}
	if config.Log.Directory == "" {
		config.Log.Directory = "logs"
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}

	logger.Info("Loaded configuration", "path", configPath)
	return &config, nil
}

// SaveConfig saves configuration to the specified config file path
func SaveConfig(configPath string, config *Config) error {
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %v", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	err = encoder.Encode(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %v", err)
	}

	logger.Info("Saved configuration", "path", configPath)
	return nil
}
