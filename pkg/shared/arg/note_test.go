package arg

import "testing"

func TestHandleNote(t *testing.T) {
	cases := []struct {
		name   string
		args   []string
		expect string
	}{
		{name: "no args", args: nil, expect: ""},
		{name: "single", args: []string{"Topic"}, expect: "Topic"},
		{name: "spaced title", args: []string{"Reading", "list"}, expect: "Reading list"},
		{name: "blank", args: []string{"  "}, expect: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := HandleNote(tc.args)
			if got != tc.expect {
				t.Fatalf("HandleNote(%v) = %q, want %q", tc.args, got, tc.expect)
			}
		})
	}
}

func TestHandleLinkRequiresArgument(t *testing.T) {
	if _, err := HandleLink(nil); err == nil {
		t.Fatalf("expected error without link")
	}
	got, err := HandleLink([]string{"New", "idea"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "New idea" {
		t.Fatalf("HandleLink = %q, want %q", got, "New idea")
	}
}
