package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.GRPCAddr != ":9090" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":9090")
	}
	if cfg.IdentityProvider != IdentityProviderLocal {
		t.Errorf("IdentityProvider = %q, want %q", cfg.IdentityProvider, IdentityProviderLocal)
	}
	if cfg.JWTIssuer != "linkerai-auth" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "linkerai-auth")
	}
	if cfg.JWTAudience != "linkerai-api" {
		t.Errorf("JWTAudience = %q, want %q", cfg.JWTAudience, "linkerai-api")
	}
	if cfg.ProfileEventsTopic != "linkerai-profile-events" {
		t.Errorf("ProfileEventsTopic = %q, want default", cfg.ProfileEventsTopic)
	}
	if cfg.TelemetryTopic != "linkerai-telemetry" {
		t.Errorf("TelemetryTopic = %q, want default", cfg.TelemetryTopic)
	}
	if cfg.CacheKeyPrefix != "linkerai:view" {
		t.Errorf("CacheKeyPrefix = %q, want default", cfg.CacheKeyPrefix)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Timeout() != 10*time.Second {
		t.Errorf("Timeout() = %v, want 10s", cfg.Timeout())
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9999")
	os.Setenv("JWT_ISSUER", "custom-issuer")
	os.Setenv("REQUEST_TIMEOUT", "3s")
	os.Setenv("IDENTITY_PROVIDER", "LOCAL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9999")
	}
	if cfg.JWTIssuer != "custom-issuer" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "custom-issuer")
	}
	if cfg.Timeout() != 3*time.Second {
		t.Errorf("Timeout() = %v, want 3s", cfg.Timeout())
	}
	if cfg.IdentityProvider != IdentityProviderLocal {
		t.Errorf("IdentityProvider = %q, want normalized %q", cfg.IdentityProvider, IdentityProviderLocal)
	}
}

func TestLoad_FirebaseRequiresProject(t *testing.T) {
	os.Clearenv()
	os.Setenv("IDENTITY_PROVIDER", "firebase")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when FIREBASE_PROJECT_ID is missing")
	}

	os.Setenv("FIREBASE_PROJECT_ID", "linkerai-dev")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.IdentityProvider != IdentityProviderFirebase {
		t.Errorf("IdentityProvider = %q, want firebase", cfg.IdentityProvider)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{"unknown provider", map[string]string{"IDENTITY_PROVIDER": "clerk"}},
		{"bad timeout", map[string]string{"REQUEST_TIMEOUT": "soon"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Clearenv()
			for k, v := range tc.env {
				os.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestConfig_AccessTTL(t *testing.T) {
	testCases := []struct {
		in   string
		want time.Duration
	}{
		{"30m", 30 * time.Minute},
		{"", 15 * time.Minute},
		{"bogus", 15 * time.Minute},
		{"-1m", 15 * time.Minute},
	}
	for _, tc := range testCases {
		c := &Config{JWTAccessTTL: tc.in}
		if got := c.AccessTTL(); got != tc.want {
			t.Errorf("AccessTTL(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestConfig_KafkaBrokersList(t *testing.T) {
	var nilCfg *Config
	if got := nilCfg.KafkaBrokersList(); got != nil {
		t.Errorf("nil config brokers = %v, want nil", got)
	}
	c := &Config{KafkaBrokers: " a:9092, ,b:9092 "}
	got := c.KafkaBrokersList()
	if len(got) != 2 || got[0] != "a:9092" || got[1] != "b:9092" {
		t.Errorf("KafkaBrokersList() = %v, want [a:9092 b:9092]", got)
	}
}

func TestConfig_RedisAddrs(t *testing.T) {
	if got := (&Config{}).RedisAddrs(); got != nil {
		t.Errorf("empty RedisAddrs() = %v, want nil", got)
	}
	got := (&Config{RedisAddr: "r1:6379,r2:6379"}).RedisAddrs()
	if len(got) != 2 || got[1] != "r2:6379" {
		t.Errorf("RedisAddrs() = %v", got)
	}
}

func TestConfig_AllowedOrigins(t *testing.T) {
	c := &Config{}
	if got := c.AllowedOrigins(); len(got) != 1 || got[0] != "*" {
		t.Errorf("AllowedOrigins() = %v, want [*]", got)
	}
	c.CORSAllowedOrigins = "https://linkerai.app,https://admin.linkerai.app"
	if got := c.AllowedOrigins(); len(got) != 2 {
		t.Errorf("AllowedOrigins() = %v, want 2 entries", got)
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	if (&Config{Env: "Development"}).IsDevelopment() != true {
		t.Error("Development should be development")
	}
	if (&Config{Env: "production"}).IsDevelopment() {
		t.Error("production should not be development")
	}
}

func TestLoad_RejectsSharedKafkaTopic(t *testing.T) {
	os.Clearenv()
	os.Setenv("PROFILE_EVENTS_TOPIC", "linkerai-events")
	os.Setenv("TELEMETRY_TOPIC", "linkerai-events")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail when profile events and telemetry share a topic")
	}
}
