package common

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSensitiveFieldsAreDropped(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	LogWarn("calling provider",
		zap.String("groq_api_key", "secret"),
		zap.String("Authorization", "Bearer secret"),
		zap.String("model", "llama"),
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}
	fields := entries[0].ContextMap()
	if _, ok := fields["groq_api_key"]; ok {
		t.Error("api key leaked")
	}
	if _, ok := fields["Authorization"]; ok {
		t.Error("authorization leaked")
	}
	if fields["model"] != "llama" {
		t.Errorf("fields = %v", fields)
	}
}

func TestConciseMode(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	LogMode = "concise"
	t.Cleanup(func() {
		SetLogger(nil)
		LogMode = ""
	})

	LogInfo("快取命中")
	LogInfo("請求完成")
	LogError("always logged")

	if logs.Len() != 2 {
		t.Errorf("got %d entries, want 2", logs.Len())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"WARN":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"unknown": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
