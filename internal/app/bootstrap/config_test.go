// internal/app/bootstrap/config_test.go
package bootstrap

import (
	"testing"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "group_hub",
		JWTSecret:     "a-strong-secret-for-tests-0123456789",
		JWTAlgorithm:  "HS256",
	}
}

func TestValidateConfigAccepts(t *testing.T) {
	cfg := validAppConfig()
	if err := ValidateConfig(&config.CoreConfig{Env: "dev"}, cfg, zap.NewNop()); err != nil {
		t.Fatalf("ValidateConfig: %v", err)
	}
}

func TestValidateConfigRejectsBadURI(t *testing.T) {
	cfg := validAppConfig()
	cfg.MongoURI = "postgres://localhost:5432"
	if err := ValidateConfig(&config.CoreConfig{Env: "dev"}, cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for non-mongodb URI")
	}
}

func TestValidateConfigRejectsBadAlgorithm(t *testing.T) {
	cfg := validAppConfig()
	cfg.JWTAlgorithm = "RS256"
	if err := ValidateConfig(&config.CoreConfig{Env: "dev"}, cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for non-HMAC algorithm")
	}
}

func TestValidateConfigRejectsEmptySecret(t *testing.T) {
	cfg := validAppConfig()
	cfg.JWTSecret = ""
	if err := ValidateConfig(&config.CoreConfig{Env: "dev"}, cfg, zap.NewNop()); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestValidateConfigRejectsDefaultSecretInProd(t *testing.T) {
	cfg := validAppConfig()
	cfg.JWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

	if err := ValidateConfig(&config.CoreConfig{Env: "dev"}, cfg, zap.NewNop()); err != nil {
		t.Fatalf("dev should tolerate the default secret: %v", err)
	}
	if err := ValidateConfig(&config.CoreConfig{Env: "prod"}, cfg, zap.NewNop()); err == nil {
		t.Fatal("prod must reject the default secret")
	}
}
