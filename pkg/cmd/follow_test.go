package cmd

import "testing"

func TestNewNotePath(t *testing.T) {
	cases := []struct {
		link, source, want string
		wantErr            bool
	}{
		{link: "Idea", want: "Idea.md"},
		{link: "Idea#^block", want: "Idea.md"},
		{link: "Idea|Alias", want: "Idea.md"},
		{link: "Idea", source: "inbox/Today.md", want: "inbox/Idea.md"},
		{link: "archive/Old", source: "inbox/Today.md", want: "archive/Old.md"},
		{link: "../ideas/Next", source: "inbox/Today.md", want: "ideas/Next.md"},
		{link: "./Sibling", source: "inbox/Today.md", want: "inbox/Sibling.md"},
		{link: "./Top", want: "Top.md"},
		{link: "diagram.canvas", want: "diagram.canvas"},
		{link: "../escape", wantErr: true},
		{link: "../../escape", source: "inbox/Today.md", wantErr: true},
		{link: "#heading", wantErr: true},
	}

	for _, tc := range cases {
		got, err := NewNotePath(tc.link, tc.source)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("NewNotePath(%q, %q) expected error, got %q", tc.link, tc.source, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NewNotePath(%q, %q) returned error: %v", tc.link, tc.source, err)
		}
		if got != tc.want {
			t.Fatalf("NewNotePath(%q, %q) = %q, want %q", tc.link, tc.source, got, tc.want)
		}
	}
}

func TestLinkTarget(t *testing.T) {
	idx := buildIndex(t, map[string]string{
		"inbox/Today.md": "[[Existing]]",
		"Existing.md":    "body",
	})

	if got := LinkTarget(idx, "Existing", "inbox/Today.md"); got != "Existing.md" {
		t.Fatalf("expected Existing.md, got %q", got)
	}
	if got := LinkTarget(idx, "Missing", "inbox/Today.md"); got != "" {
		t.Fatalf("expected no target for a missing note, got %q", got)
	}
}
