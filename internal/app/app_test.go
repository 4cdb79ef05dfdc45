package app_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/voxorbit/callorbit/internal/app"
	"github.com/voxorbit/callorbit/internal/config"
	"github.com/voxorbit/callorbit/pkg/store/postgres"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{LogLevel: config.LogLevelInfo},
		Telephony: config.TelephonyConfig{
			AllowDigitCollection: true,
		},
	}
}

func TestNew_RequiresStoreWhenNotInjected(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	_, err := app.New(context.Background(), cfg, &app.Providers{})
	if err == nil {
		t.Fatal("expected New to fail without a store or postgres_dsn")
	}
}

// testStoreDSN returns the test database DSN from the environment, or
// skips the test if CALLORBIT_TEST_POSTGRES_DSN is not set.
func testStoreDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("CALLORBIT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CALLORBIT_TEST_POSTGRES_DSN not set — skipping app integration test")
	}
	return dsn
}

func TestApp_RunAndShutdown(t *testing.T) {
	dsn := testStoreDSN(t)
	ctx := context.Background()

	st, err := postgres.NewStore(ctx, dsn)
	if err != nil {
		t.Fatalf("postgres.NewStore: %v", err)
	}
	t.Cleanup(st.Close)

	cfg := testConfig()
	application, err := app.New(ctx, cfg, &app.Providers{}, app.WithStore(st))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if application.Calls() == nil {
		t.Fatal("expected a non-nil CallManager")
	}
	if application.Health() == nil {
		t.Fatal("expected a non-nil health handler")
	}

	runCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := application.Run(runCtx); err != nil && runCtx.Err() == nil {
		t.Fatalf("Run: %v", err)
	}

	shutdownCtx, cancel2 := context.WithTimeout(ctx, time.Second)
	defer cancel2()
	if err := application.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	// Shutdown must be idempotent.
	if err := application.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("second Shutdown: %v", err)
	}
}
