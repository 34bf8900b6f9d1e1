package publishers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: http2
    type: http
    enabled: true
    http:
      url: https://example.com/2
  - id: topic
    type: sns
    watches: [" acme ", globex, acme, ""]
    sns:
      topic_arn: arn:aws:sns:eu-west-1:123:jobs
      region: eu-west-1
      access_key_id: AKID
      secret_access_key: secret
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 2 || enabled[0].ID != "http2" || enabled[1].ID != "topic" {
		t.Fatalf("expected http2 and topic enabled, got %#v", enabled)
	}
	if enabled[0].HTTP.Method != "POST" || enabled[0].HTTP.TimeoutSeconds != 5 {
		t.Fatalf("http defaults not applied: %#v", enabled[0].HTTP)
	}
	if enabled[1].SNS.AccessKeyID != "AKID" {
		t.Fatalf("inline aws auth not decoded: %#v", enabled[1].SNS)
	}
	if diff := cmp.Diff([]string{"acme", "globex"}, enabled[1].Watches); diff != "" {
		t.Fatalf("watches not normalized (-want +got):\n%s", diff)
	}
	if all := reg.All(); len(all) != 3 || all[0].ID != "http1" || all[0].EnabledValue() {
		t.Fatalf("All should keep disabled entries in file order, got %#v", all)
	}
}

func TestLoadRegistryRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"dup.yaml":   "publishers:\n  - {id: a, type: http, http: {url: https://x}}\n  - {id: a, type: http, http: {url: https://y}}\n",
		"empty.yaml": "publishers: []\n",
		"bad.toml":   "publishers = []\n",
		"bad.json":   "{not json",
	}
	for name, raw := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		if _, err := LoadRegistry(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestAcceptsAndUnrouted(t *testing.T) {
	all := PublisherConfig{ID: "all"}
	acme := PublisherConfig{ID: "acme", Watches: []string{"acme"}}

	if !all.Accepts("anything") {
		t.Fatalf("publisher without watches should accept every watch")
	}
	if !acme.Accepts("acme") || acme.Accepts("globex") {
		t.Fatalf("unexpected routing for %v", acme.Watches)
	}

	got := Unrouted([]PublisherConfig{acme}, []string{"acme", "globex", "initech"})
	if diff := cmp.Diff([]string{"globex", "initech"}, got); diff != "" {
		t.Fatalf("Unrouted mismatch (-want +got):\n%s", diff)
	}
	if got := Unrouted([]PublisherConfig{acme, all}, []string{"globex"}); len(got) != 0 {
		t.Fatalf("expected every watch routed, got %v", got)
	}
}

func TestValidatePublisherConfig(t *testing.T) {
	cases := map[string]PublisherConfig{
		"missing http":   {ID: "h1", Type: TypeHTTP},
		"missing sqs":    {ID: "q1", Type: TypeSQS},
		"missing region": {ID: "s1", Type: TypeSNS, SNS: &SNSPublisherConfig{TopicARN: "arn"}},
		"half creds": {ID: "s1", Type: TypeSNS, SNS: &SNSPublisherConfig{
			TopicARN: "arn", Region: "eu-west-1", AWSAuth: AWSAuth{AccessKeyID: "AKID"},
		}},
		"missing topic": {ID: "p1", Type: TypePubSub, PubSub: &GCPQueueConfig{ProjectID: "proj"}},
		"unknown type":  {ID: "k1", Type: "kafka"},
	}
	for name, cfg := range cases {
		if err := cfg.normalize().validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}

	ok := PublisherConfig{ID: "p1", Type: TypePubSub, PubSub: &GCPQueueConfig{ProjectID: "proj", Topic: "jobs"}}
	if err := ok.validate(); err != nil {
		t.Fatalf("valid pubsub config rejected: %v", err)
	}
}
