// internal/analysis/markers_test.go
package analysis

import (
	"reflect"
	"testing"
)

func TestEmotionalMarkers(t *testing.T) {
	got := EmotionalMarkers("I feel so anxious and ANGRY lately, just anxious all the time")
	want := []string{"angry", "anxious"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestEmotionalMarkersEmpty(t *testing.T) {
	if got := EmotionalMarkers(""); len(got) != 0 {
		t.Errorf("empty text should yield empty set, got %v", got)
	}
	if got := EmotionalMarkers("nothing relevant here"); len(got) != 0 {
		t.Errorf("expected no matches, got %v", got)
	}
}

func TestSubstringMatchIsLiteral(t *testing.T) {
	// "safety" contains "safe"; the crude substring behavior is intentional.
	got := EmotionalMarkers("I worry about my safety")
	want := []string{"safe"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractionIdempotent(t *testing.T) {
	text := "my childhood shaped my trust issues and my attachment style"
	first := PsychologicalPatterns(text)
	second := PsychologicalPatterns(text)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-running extraction changed result: %v vs %v", first, second)
	}
	doubled := PsychologicalPatterns(text + " " + text)
	if !reflect.DeepEqual(first, doubled) {
		t.Errorf("concatenated text double-counted: %v vs %v", first, doubled)
	}
}

func TestTraumaAndAttachmentSubsets(t *testing.T) {
	text := "the trauma of abandonment left me with grief and trust issues"
	trauma := TraumaIndicators(text)
	if !reflect.DeepEqual(trauma, []string{"grief", "trauma"}) {
		t.Errorf("trauma indicators: got %v", trauma)
	}
	attach := AttachmentPatterns(text)
	if !reflect.DeepEqual(attach, []string{"abandonment", "trust"}) {
		t.Errorf("attachment patterns: got %v", attach)
	}
}

func TestMergeSets(t *testing.T) {
	got := MergeSets([]string{"b", "a"}, []string{"a", "c"})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
