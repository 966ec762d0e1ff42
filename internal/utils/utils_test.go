package utils

import (
	"reflect"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLogLevel(t *testing.T) {
	defer Log.SetLevel(logrus.InfoLevel)

	if err := SetLogLevel("WARN"); err != nil {
		t.Fatal(err)
	}
	if Log.GetLevel() != logrus.WarnLevel {
		t.Fatalf("expected warn level, got %s", Log.GetLevel())
	}
	if err := SetLogLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" ev-adoption, ,market-size,")
	if !reflect.DeepEqual(got, []string{"ev-adoption", "market-size"}) {
		t.Fatalf("unexpected split %v", got)
	}
	if got := SplitList(""); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}
