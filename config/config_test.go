package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Data:   DataConfig{MaxUploadMB: 20},
		Analysis: AnalysisConfig{
			GivingLevels: []GivingLevel{
				{Threshold: 0, Label: "Non-Donor"},
				{Threshold: 100, Label: "$100-$999"},
				{Threshold: 1000, Label: "$1,000-$4,999"},
			},
			EngagementCuts: EngagementCuts{Low: 34, High: 67},
			WealthRanges:   []string{"Under $100K", "Over $5M"},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("合法配置不应报错: %v", err)
	}
}

func TestValidate_FirstThresholdMustBeZero(t *testing.T) {
	cfg := validConfig()
	cfg.Analysis.GivingLevels[0].Threshold = 5
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "首档阈值") {
		t.Errorf("首档阈值非 0 应报错，实际: %v", err)
	}
}

func TestValidate_ThresholdsStrictlyIncreasing(t *testing.T) {
	cfg := validConfig()
	cfg.Analysis.GivingLevels[2].Threshold = 100 // 与上一档相等
	if err := cfg.Validate(); err == nil {
		t.Error("阈值不严格递增应报错")
	}
}

func TestValidate_EngagementCutsOrdered(t *testing.T) {
	cfg := validConfig()
	cfg.Analysis.EngagementCuts = EngagementCuts{Low: 70, High: 30}
	if err := cfg.Validate(); err == nil {
		t.Error("low >= high 应报错")
	}
}

func TestValidate_BadPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("非法端口应报错")
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	// 无配置文件时仅依赖默认值
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("默认端口期望 8080，实际=%d", cfg.Server.Port)
	}
	if len(cfg.Analysis.GivingLevels) != 7 {
		t.Errorf("默认捐赠档位期望 7 档，实际=%d", len(cfg.Analysis.GivingLevels))
	}
	if cfg.Analysis.GivingLevels[0].Label != "Non-Donor" {
		t.Errorf("最低档期望 Non-Donor，实际=%q", cfg.Analysis.GivingLevels[0].Label)
	}
	if len(cfg.Analysis.WealthRanges) != 6 {
		t.Errorf("默认财富区间期望 6 档，实际=%d", len(cfg.Analysis.WealthRanges))
	}
	if !cfg.Analysis.FuzzyMatch {
		t.Error("模糊匹配默认应开启")
	}
}
