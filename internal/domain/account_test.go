package domain

import "testing"

func TestNormalizeEmail(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  User@X.Com ", "user@x.com"},
		{"user@x.com", "user@x.com"},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		if got := NormalizeEmail(c.in); got != c.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestEffectiveEmail_TopLevelWins(t *testing.T) {
	a := Account{
		Email: "Top@X.com",
		ProviderRecords: []ProviderRecord{
			{Kind: ProviderGoogle, ProviderUserID: "g1", Email: "other@x.com"},
		},
	}
	if got := a.EffectiveEmail(); got != "top@x.com" {
		t.Fatalf("EffectiveEmail = %q, want top@x.com", got)
	}
}

func TestEffectiveEmail_FallsBackToProviderRecord(t *testing.T) {
	a := Account{
		ProviderRecords: []ProviderRecord{
			{Kind: ProviderGoogle, ProviderUserID: "g1"},
			{Kind: ProviderFacebook, ProviderUserID: "f1", Email: "FB@x.com"},
			{Kind: ProviderApple, ProviderUserID: "a1", Email: "apple@x.com"},
		},
	}
	// first non-empty provider email, in attach order
	if got := a.EffectiveEmail(); got != "fb@x.com" {
		t.Fatalf("EffectiveEmail = %q, want fb@x.com", got)
	}

	empty := Account{ProviderRecords: []ProviderRecord{{Kind: ProviderGoogle, ProviderUserID: "g1"}}}
	if got := empty.EffectiveEmail(); got != "" {
		t.Fatalf("EffectiveEmail of emailless account = %q, want empty", got)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		records []ProviderRecord
		want    Classification
	}{
		{"empty", nil, Classification{}},
		{"password only", []ProviderRecord{{Kind: ProviderPassword}}, Classification{HasPassword: true}},
		{"social only", []ProviderRecord{{Kind: ProviderGoogle}}, Classification{HasSocial: true}},
		{"both", []ProviderRecord{{Kind: ProviderPassword}, {Kind: ProviderApple}}, Classification{HasPassword: true, HasSocial: true}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Classify(c.records); got != c.want {
				t.Fatalf("Classify = %+v, want %+v", got, c.want)
			}
		})
	}
}

func TestSocialOnly(t *testing.T) {
	if !(Classification{HasSocial: true}).SocialOnly() {
		t.Error("social-only should report SocialOnly")
	}
	if (Classification{HasSocial: true, HasPassword: true}).SocialOnly() {
		t.Error("mixed account should not report SocialOnly")
	}
	if (Classification{}).SocialOnly() {
		t.Error("empty account should not report SocialOnly")
	}
}

func TestHasRecord(t *testing.T) {
	a := Account{ProviderRecords: []ProviderRecord{
		{Kind: ProviderGoogle, ProviderUserID: "g1"},
	}}
	if !a.HasRecord(ProviderGoogle, "g1") {
		t.Error("expected record (google, g1)")
	}
	if a.HasRecord(ProviderGoogle, "g2") {
		t.Error("unexpected record (google, g2)")
	}
	if a.HasRecord(ProviderFacebook, "g1") {
		t.Error("unexpected record (facebook, g1)")
	}
}

func TestLastProvider(t *testing.T) {
	a := Account{ProviderRecords: []ProviderRecord{
		{Kind: ProviderPassword, ProviderUserID: "p"},
		{Kind: ProviderGoogle, ProviderUserID: "g1"},
	}}
	kind, ok := a.LastProvider()
	if !ok || kind != ProviderGoogle {
		t.Fatalf("LastProvider = (%v, %v), want (google, true)", kind, ok)
	}

	var empty Account
	if _, ok := empty.LastProvider(); ok {
		t.Fatal("LastProvider on empty account should report false")
	}
}
