package config

import "testing"

func BenchmarkDefaultSanitizer_Sanitize(b *testing.B) {
	sanitizer := NewSanitizer()
	cfg := &Config{
		Drive: DriveConfig{
			Account:  "acct",
			Password: "secret123",
			Host:     "localhost",
			Port:     5432,
		},
		Pipeline: PipelineConfig{
			Name:       "orders",
			SourceName: "billing",
		},
		Tick: TickConfig{
			XTimeBack: "1h",
		},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = sanitizer.Sanitize(cfg)
	}
}
