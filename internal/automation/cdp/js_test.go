package cdp

import (
	"strings"
	"testing"
)

func TestJstrEscapes(t *testing.T) {
	got := jstr(`input[onclick*="closepopupLayerConfirm(true)"]`)
	if !strings.HasPrefix(got, `"`) || !strings.HasSuffix(got, `"`) {
		t.Fatalf("not a quoted literal: %s", got)
	}
	if !strings.Contains(got, `\"closepopupLayerConfirm(true)\"`) {
		t.Fatalf("inner quotes not escaped: %s", got)
	}
}

func TestPredicatesEmbedSelector(t *testing.T) {
	cases := []struct {
		name string
		expr string
	}{
		{name: "visible", expr: jsVisible(".button-next", 0)},
		{name: "enabled", expr: jsEnabled(".button-next")},
		{name: "click", expr: jsClick(".button-next", 1)},
		{name: "text", expr: jsText(".button-next", 2)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !strings.Contains(tc.expr, `".button-next"`) {
				t.Fatalf("selector not embedded: %s", tc.expr)
			}
		})
	}
}

func TestJsFillDispatchesEvents(t *testing.T) {
	expr := jsFill("#test_input", "01012345678")
	for _, want := range []string{`"01012345678"`, `new Event("input"`, `new Event("change"`} {
		if !strings.Contains(expr, want) {
			t.Fatalf("fill expression missing %s:\n%s", want, expr)
		}
	}
}
