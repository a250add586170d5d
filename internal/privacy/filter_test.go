package privacy

import "testing"

func TestStripPrivateTags(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no tags", "plain text", "plain text"},
		{"single block", "keep <private>secret</private> this", "keep  this"},
		{"multiline block", "a <private>line one\nline two</private> b", "a  b"},
		{"multiple blocks", "<private>x</private>mid<private>y</private>", "mid"},
		{"unclosed tag is left alone", "text <private>dangling", "text <private>dangling"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripPrivateTags(tc.in); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestHasOnlyPrivateContent(t *testing.T) {
	if !HasOnlyPrivateContent("  <private>all secret</private>  ") {
		t.Fatal("whitespace around a private block still counts as empty")
	}
	if HasOnlyPrivateContent("visible <private>hidden</private>") {
		t.Fatal("visible content must not be treated as private-only")
	}
}
