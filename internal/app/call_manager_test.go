package app

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/voxorbit/callorbit/internal/config"
	"github.com/voxorbit/callorbit/internal/notifier"
	"github.com/voxorbit/callorbit/internal/observe"
	"github.com/voxorbit/callorbit/internal/profile"
	"github.com/voxorbit/callorbit/internal/registry"
	"github.com/voxorbit/callorbit/pkg/provider/llm"
	"github.com/voxorbit/callorbit/pkg/provider/tts"
	"github.com/voxorbit/callorbit/pkg/store/postgres"
	"github.com/voxorbit/callorbit/pkg/telephony"
	"github.com/voxorbit/callorbit/pkg/types"
)

// callManagerTestDSN returns the test database DSN from the environment,
// or skips the test if CALLORBIT_TEST_POSTGRES_DSN is not set.
func callManagerTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("CALLORBIT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CALLORBIT_TEST_POSTGRES_DSN not set — skipping CallManager integration test")
	}
	return dsn
}

type stubLLM struct{}

func (stubLLM) StreamCompletion(context.Context, llm.CompletionRequest) (<-chan llm.Chunk, error) {
	ch := make(chan llm.Chunk)
	close(ch)
	return ch, nil
}
func (stubLLM) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{Content: "ok"}, nil
}
func (stubLLM) CountTokens([]types.Message) (int, error) { return 0, nil }
func (stubLLM) Capabilities() types.ModelCapabilities    { return types.ModelCapabilities{} }

type stubTTS struct{}

func (stubTTS) SynthesizeStream(_ context.Context, text <-chan string, _ types.VoiceProfile) (<-chan []byte, error) {
	out := make(chan []byte)
	go func() {
		defer close(out)
		for range text {
		}
	}()
	return out, nil
}
func (stubTTS) ListVoices(context.Context) ([]types.VoiceProfile, error) { return nil, nil }
func (stubTTS) CloneVoice(context.Context, [][]byte) (*types.VoiceProfile, error) {
	return nil, nil
}

var _ tts.Provider = stubTTS{}

func newTestCallManager(t *testing.T) (*CallManager, *postgres.Store) {
	t.Helper()
	dsn := callManagerTestDSN(t)
	st, err := postgres.NewStore(context.Background(), dsn)
	if err != nil {
		t.Fatalf("postgres.NewStore: %v", err)
	}
	t.Cleanup(st.Close)

	cfg := &config.Config{Telephony: config.TelephonyConfig{AllowDigitCollection: true}}
	providers := &Providers{LLM: stubLLM{}, TTS: stubTTS{}}
	cm := NewCallManager(cfg, providers, registry.New(), profile.New(), st, notifier.NewMemoryGate(), observe.DefaultMetrics(), nil)
	return cm, st
}

func TestCallManager_StartAndEndCall(t *testing.T) {
	cm, _ := newTestCallManager(t)

	session, err := cm.StartCall(context.Background(), "call-1", "+15555550100", "", "you are a helpful assistant", "hello there", nil)
	if err != nil {
		t.Fatalf("StartCall: %v", err)
	}
	if session == nil {
		t.Fatal("expected a non-nil session")
	}
	if cm.ActiveCalls() != 1 {
		t.Fatalf("ActiveCalls() = %d, want 1", cm.ActiveCalls())
	}

	if _, err := cm.StartCall(context.Background(), "call-1", "+15555550100", "", "", "", nil); err == nil {
		t.Fatal("expected error starting an already-active call")
	}

	cm.EndCall("call-1")
	if cm.ActiveCalls() != 0 {
		t.Fatalf("ActiveCalls() = %d after EndCall, want 0", cm.ActiveCalls())
	}
	// Idempotent.
	cm.EndCall("call-1")
}

func TestCallManager_HandleStatusWebhook_NonTerminal(t *testing.T) {
	cm, st := newTestCallManager(t)
	ctx := context.Background()

	if _, err := cm.StartCall(ctx, "call-2", "+15555550101", "", "", "hi", nil); err != nil {
		t.Fatalf("StartCall: %v", err)
	}

	err := cm.HandleStatusWebhook(ctx, "call-2", telephony.StatusWebhook{CallStatus: telephony.StatusRinging})
	if err != nil {
		t.Fatalf("HandleStatusWebhook: %v", err)
	}

	row, err := st.Calls().Get(ctx, "call-2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if row.Status != telephony.StatusRinging {
		t.Errorf("status = %q, want %q", row.Status, telephony.StatusRinging)
	}

	cm.EndCall("call-2")
}

func TestCallManager_HandleStatusWebhook_TerminalDefersAndReleases(t *testing.T) {
	cm, st := newTestCallManager(t)
	ctx := context.Background()

	if _, err := cm.StartCall(ctx, "call-3", "+15555550102", "", "", "hi", nil); err != nil {
		t.Fatalf("StartCall: %v", err)
	}

	err := cm.HandleStatusWebhook(ctx, "call-3", telephony.StatusWebhook{
		CallStatus: telephony.StatusCompleted,
		Duration:   time.Minute,
	})
	if err != nil {
		t.Fatalf("HandleStatusWebhook: %v", err)
	}
	if cm.ActiveCalls() != 1 {
		t.Fatal("expected the call to still be active while its terminal status is deferred")
	}

	// Force the deferred window open by asking at a time past the quiet
	// window, bypassing the real timer wait.
	cm.checkDeferredTerminal(ctx, "call-3")

	if cm.ActiveCalls() != 0 {
		t.Fatalf("ActiveCalls() = %d, want 0 after terminal release", cm.ActiveCalls())
	}

	row, err := st.Calls().Get(ctx, "call-3")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if row.Status != telephony.StatusCompleted {
		t.Errorf("status = %q, want %q", row.Status, telephony.StatusCompleted)
	}
}
