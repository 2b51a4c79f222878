package eventbus

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

type reportApproved struct {
	unit string
}

type reportRejected struct{}

func TestPublisher_Publish_NoSubscribers(t *testing.T) {
	logBuffer := bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(&logBuffer)
	log.SetLevel(logrus.WarnLevel)

	publisher := NewEventPublisher(log)
	publisher.Subscribe(func(e *reportApproved) {
		t.Error("should not be called")
	})
	publisher.Publish(&reportRejected{})

	if output := logBuffer.String(); output == "" {
		t.Error("should have logged")
	} else if !strings.Contains(output, "eventbus.Publish: no matching subscribers") {
		t.Errorf("should have contained no matching subscribers but got: %q", output)
	}
}

func TestPublisher_Subscribe(t *testing.T) {
	publisher := NewEventPublisher(logrus.New())
	called := false
	var unit string
	publisher.Subscribe(func(e *reportApproved) {
		called = true
		unit = e.unit
	})
	publisher.Publish(&reportApproved{unit: "alpha"})
	if !called {
		t.Error("should be called")
	}
	if unit != "alpha" {
		t.Errorf("expected: %v, got: %v", "alpha", unit)
	}
}

func TestPublisher_PanicRecovery(t *testing.T) {
	logBuffer := bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(&logBuffer)

	publisher := NewEventPublisher(log)
	publisher.Subscribe(func(e *reportApproved) {
		panic("boom")
	})
	publisher.Publish(&reportApproved{unit: "alpha"})

	if !strings.Contains(logBuffer.String(), "panicked") {
		t.Errorf("expected panic to be logged, got: %q", logBuffer.String())
	}
}

func TestPublisher_Clear(t *testing.T) {
	publisher := NewEventPublisher(logrus.New())
	publisher.Subscribe(func(e *reportApproved) {})
	publisher.Subscribe(func(e *reportRejected) {})
	if got := publisher.SubscribersCount(); got != 2 {
		t.Fatalf("expected 2 subscribers, got %d", got)
	}
	publisher.Clear()
	if got := publisher.SubscribersCount(); got != 0 {
		t.Fatalf("expected 0 subscribers, got %d", got)
	}
}
