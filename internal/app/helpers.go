package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mx-space/fieldkit/internal/config"
)

// applyRuntimeSettings pins the process timezone when one is configured.
func applyRuntimeSettings(cfg *config.AppConfig) {
	if strings.TrimSpace(cfg.Timezone) == "" {
		return
	}
	time.Local = cfg.Location()
	_ = os.Setenv("TZ", cfg.Timezone)
}

// formatUptime renders d as its two most significant units, e.g. "3d4h",
// "2h15m" or "42s".
func formatUptime(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}
	parts := []struct {
		unit string
		size time.Duration
	}{
		{"d", 24 * time.Hour},
		{"h", time.Hour},
		{"m", time.Minute},
		{"s", time.Second},
	}

	var b strings.Builder
	shown := 0
	for _, p := range parts {
		n := d / p.size
		if n == 0 && shown == 0 {
			continue
		}
		d -= n * p.size
		if n > 0 {
			b.WriteString(strconv.FormatInt(int64(n), 10))
			b.WriteString(p.unit)
		}
		if shown++; shown == 2 {
			break
		}
	}
	return b.String()
}
