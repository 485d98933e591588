package mstat

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewFoldsClientIDIntoLabels(t *testing.T) {
	r := New("client-a")
	metric := &dto.Metric{}
	if err := r.ConnectAttempts.Write(metric); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var found bool
	for _, l := range metric.GetLabel() {
		if l.GetName() == "client_id" && l.GetValue() == "client-a" {
			found = true
		}
	}
	if !found {
		t.Fatalf("client_id label missing: %+v", metric.GetLabel())
	}
}

func TestMustRegisterRegistersAllCollectors(t *testing.T) {
	r := New("client-b")
	reg := prometheus.NewRegistry()
	r.MustRegister(reg)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) != 8 {
		t.Fatalf("len(families) = %d, want 8", len(families))
	}
}

func TestTwoClientsDoNotCollideOnRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	New("client-c").MustRegister(reg)
	New("client-d").MustRegister(reg)

	if _, err := reg.Gather(); err != nil {
		t.Fatalf("Gather: %v", err)
	}
}
