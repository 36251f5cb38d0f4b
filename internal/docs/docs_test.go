package docs

import (
	"strings"
	"testing"
)

func TestAll_ReturnsTopics(t *testing.T) {
	topics := All()
	if len(topics) == 0 {
		t.Fatal("All() returned no topics")
	}
	if topics[0].Name != "quickstart" {
		t.Errorf("first topic = %q, want %q", topics[0].Name, "quickstart")
	}
}

func TestAll_NoDuplicateNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, topic := range All() {
		if seen[topic.Name] {
			t.Errorf("duplicate topic name: %q", topic.Name)
		}
		seen[topic.Name] = true
	}
}

func TestAll_AllFieldsPopulated(t *testing.T) {
	for _, topic := range All() {
		if topic.Name == "" {
			t.Error("topic has empty Name")
		}
		if topic.Title == "" {
			t.Errorf("topic %q has empty Title", topic.Name)
		}
		if topic.Summary == "" {
			t.Errorf("topic %q has empty Summary", topic.Name)
		}
		if topic.Content == "" {
			t.Errorf("topic %q has empty Content", topic.Name)
		}
	}
}

func TestAll_ContentStartsWithTitle(t *testing.T) {
	for _, topic := range All() {
		if !strings.HasPrefix(topic.Content, topic.Title+"\n") {
			t.Errorf("topic %q does not start with its title heading", topic.Name)
		}
	}
}

func TestGet_Found(t *testing.T) {
	topic, err := Get("quickstart")
	if err != nil {
		t.Fatalf("Get(quickstart) error: %v", err)
	}
	if topic.Name != "quickstart" {
		t.Errorf("Name = %q, want %q", topic.Name, "quickstart")
	}
}

func TestGet_NotFound(t *testing.T) {
	_, err := Get("nonexistent")
	if err == nil {
		t.Fatal("Get(nonexistent) should return error")
	}
	if !strings.Contains(err.Error(), "pstate docs") {
		t.Errorf("error should point at 'pstate docs': %v", err)
	}
}

func TestRender_PlainWithoutTerminal(t *testing.T) {
	md := "Title\n=====\n\nbody\n"
	if got := Render(md, false); got != md {
		t.Errorf("Render without tty changed the text: %q", got)
	}
}

func TestLocksTopic_NamesReclaimGuard(t *testing.T) {
	for _, name := range []string{"layout", "locks"} {
		topic, err := Get(name)
		if err != nil {
			t.Fatalf("Get(%s) error: %v", name, err)
		}
		if !strings.Contains(topic.Content, ".lock-reclaim") {
			t.Errorf("%s topic does not mention .lock-reclaim", name)
		}
	}
}
