package recording

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/podhmo/pagescript/host"
)

func TestHost_Member(t *testing.T) {
	h := New(Config{
		Values: map[string]any{
			"title":          "Example",
			"viewport.width": 800,
		},
	})

	tests := []struct {
		path string
		want host.Member
	}{
		{path: "title", want: host.Member{Kind: host.MemberValue, Value: "Example"}},
		{path: "viewport", want: host.Member{Kind: host.MemberObject}},
		{path: "viewport.width", want: host.Member{Kind: host.MemberValue, Value: 800}},
		{path: "click", want: host.Member{Kind: host.MemberMethod}},
		{path: "keyboard.press", want: host.Member{Kind: host.MemberMethod}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := h.Member(tt.path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Member(%q) mismatch (-want +got):\n%s", tt.path, diff)
			}
		})
	}
}

func TestHost_Call(t *testing.T) {
	h := New(Config{
		Responses: map[string]any{"evaluate": "42"},
		Fail:      []string{"click"},
	})
	ctx := context.Background()

	got, err := h.Call(ctx, "evaluate", []any{"1+1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "42" {
		t.Errorf("expected the canned response, got %v", got)
	}

	if _, err := h.Call(ctx, "click", []any{"#go"}); err == nil || err.Error() != "click failed" {
		t.Errorf("expected %q, got %v", "click failed", err)
	}

	got, err = h.Call(ctx, "fill", []any{"#q", "x"})
	if err != nil || got != nil {
		t.Errorf("expected (nil, nil) for a method without a response, got (%v, %v)", got, err)
	}

	want := []Call{
		{Path: "evaluate", Args: []any{"1+1"}},
		{Path: "click", Args: []any{"#go"}},
		{Path: "fill", Args: []any{"#q", "x"}},
	}
	if diff := cmp.Diff(want, h.Calls()); diff != "" {
		t.Errorf("recorded calls mismatch (-want +got):\n%s", diff)
	}
}

func TestHost_CallCancelled(t *testing.T) {
	h := New(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.Call(ctx, "click", nil); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
