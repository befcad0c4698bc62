package postgres

import (
	"testing"
	"time"

	"github.com/hyunwoojo/gilro/internal/pkg/config"
)

func TestPoolConfigAppliesKnobs(t *testing.T) {
	pc, err := poolConfig(config.DatabaseConfig{
		Host:             "localhost",
		Port:             5432,
		User:             "gilro",
		DBName:           "gilro",
		SSLMode:          "disable",
		MaxConns:         7,
		ConnLifetimeMins: 45,
	})
	if err != nil {
		t.Fatalf("poolConfig: %v", err)
	}
	if pc.MaxConns != 7 {
		t.Errorf("MaxConns = %d, want 7", pc.MaxConns)
	}
	if pc.MaxConnLifetime != 45*time.Minute {
		t.Errorf("MaxConnLifetime = %v, want 45m", pc.MaxConnLifetime)
	}
	if pc.ConnConfig.Host != "localhost" || pc.ConnConfig.Database != "gilro" {
		t.Errorf("conn config = %s/%s, want localhost/gilro", pc.ConnConfig.Host, pc.ConnConfig.Database)
	}
}
