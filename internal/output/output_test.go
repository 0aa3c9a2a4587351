package output

import (
	"bytes"
	"context"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := WithPrinter(context.Background(), &buf)

	p := FromContext(ctx)
	p.Printf("%d pending\n", 2)
	p.Println("done")

	want := "2 pending\ndone\n"
	if got := buf.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestFromContext_Fallback(t *testing.T) {
	t.Parallel()

	if p := FromContext(context.Background()); p.Writer() == nil {
		t.Error("fallback printer has nil writer")
	}
}
