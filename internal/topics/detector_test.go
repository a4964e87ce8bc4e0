package topics

import "testing"

func TestDetect(t *testing.T) {
	d := NewDetector(5)

	transcript := "Climate change affects coastal cities. Climate scientists measure " +
		"ocean temperatures every year. Rising ocean levels threaten coastal " +
		"infrastructure. Climate policy remains a contested subject."

	topics := d.Detect(transcript)
	if len(topics) == 0 {
		t.Fatal("expected topics, got none")
	}
	if topics[0].Topic != "Climate" {
		t.Errorf("expected most frequent topic Climate, got %q", topics[0].Topic)
	}
	if topics[0].Score != 1.0 {
		t.Errorf("expected top topic score 1.0, got %f", topics[0].Score)
	}
	for i, topic := range topics {
		if topic.Score <= 0 || topic.Score > 1 {
			t.Errorf("topic %d score out of range: %f", i, topic.Score)
		}
		if i > 0 && topic.Score > topics[i-1].Score {
			t.Errorf("topics not ordered by score at %d", i)
		}
	}
}

func TestDetectMaxTopics(t *testing.T) {
	d := NewDetector(2)

	topics := d.Detect("apples bananas cherries apples bananas apples grapes mangoes")
	if len(topics) > 2 {
		t.Errorf("expected at most 2 topics, got %d", len(topics))
	}
}

func TestDetectEmpty(t *testing.T) {
	d := NewDetector(5)

	tests := []struct {
		name string
		text string
	}{
		{"empty string", ""},
		{"only stopwords", "the and that this with for"},
		{"only short words", "a b cd ef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Detect(tt.text); len(got) != 0 {
				t.Errorf("expected no topics, got %+v", got)
			}
		})
	}
}

func TestDetectKeywordsCooccur(t *testing.T) {
	d := NewDetector(1)

	topics := d.Detect("Rockets launch satellites. Rockets carry satellites into orbit.")
	if len(topics) != 1 {
		t.Fatalf("expected 1 topic, got %d", len(topics))
	}
	found := false
	for _, kw := range topics[0].Keywords {
		if kw == "satellites" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected co-occurring keyword satellites, got %v", topics[0].Keywords)
	}
}
