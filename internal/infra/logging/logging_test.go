//go:build !integration

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestWith_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithTraceID(context.Background(), "trace-123")
	ctx = WithUserID(ctx, 42)

	With(ctx, &base).Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"trace_id":"trace-123"`) {
		t.Errorf("expected trace_id field, got %s", out)
	}
	if !strings.Contains(out, `"user_id":42`) {
		t.Errorf("expected user_id field, got %s", out)
	}
}

func TestWith_EmptyContext(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	With(context.Background(), &base).Info().Msg("hello")

	out := buf.String()
	if strings.Contains(out, "trace_id") || strings.Contains(out, "user_id") {
		t.Errorf("expected no context fields, got %s", out)
	}
}

func TestTraceDuration(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf).Level(zerolog.TraceLevel)

	done := TraceDuration(&base, "PurchaseUC.Purchase")
	done()

	out := buf.String()
	if !strings.Contains(out, `"message":"start"`) {
		t.Errorf("expected start entry, got %s", out)
	}
	if !strings.Contains(out, `"message":"finish"`) {
		t.Errorf("expected finish entry, got %s", out)
	}
	if !strings.Contains(out, `"method":"PurchaseUC.Purchase"`) {
		t.Errorf("expected method field, got %s", out)
	}
	if !strings.Contains(out, `"duration"`) {
		t.Errorf("expected duration field, got %s", out)
	}
}
