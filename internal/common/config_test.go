package common

import (
	"testing"
	"time"
)

func TestLoadConfigHTTPTimeoutFollowsCallTimeout(t *testing.T) {
	t.Setenv("CALL_TIMEOUT", "3m")
	t.Setenv("OPENAI_TIMEOUT", "")

	cfg := LoadConfig()
	if cfg.Pipeline.CallTimeout != 3*time.Minute {
		t.Fatalf("call timeout = %s", cfg.Pipeline.CallTimeout)
	}
	if cfg.LLM.Timeout != cfg.Pipeline.CallTimeout {
		t.Fatalf("http timeout = %s, want %s", cfg.LLM.Timeout, cfg.Pipeline.CallTimeout)
	}

	t.Setenv("OPENAI_TIMEOUT", "90s")
	if got := LoadConfig().LLM.Timeout; got != 90*time.Second {
		t.Fatalf("explicit http timeout = %s", got)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"CALL_TIMEOUT", "OPENAI_TIMEOUT", "INBOX_REPROCESS", "DOC_CONCURRENCY"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	if cfg.Pipeline.CallTimeout != 2*time.Minute || cfg.LLM.Timeout != 2*time.Minute {
		t.Fatalf("timeouts = %s / %s", cfg.Pipeline.CallTimeout, cfg.LLM.Timeout)
	}
	if cfg.Ingest.Reprocess || cfg.Pipeline.Concurrency != 1 {
		t.Fatalf("ingest/pipeline defaults = %+v / %+v", cfg.Ingest, cfg.Pipeline)
	}

	t.Setenv("INBOX_REPROCESS", "true")
	if !LoadConfig().Ingest.Reprocess {
		t.Fatalf("INBOX_REPROCESS not honored")
	}
}
