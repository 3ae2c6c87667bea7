package deliver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"

	"github.com/rankpilot/rankpilot/pkg/models"
)

func TestRegistryDispatch(t *testing.T) {
	sink := NewInboxSink()
	reg := NewRegistry(NewNotificationAdapter(sink))

	ack, err := reg.Deliver(context.Background(), models.ChannelNotification, "user-1", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(ack, "user-1") {
		t.Errorf("expected ack to name the destination, got %q", ack)
	}

	entries := sink.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(entries))
	}
	if entries[0].Content != "hello" {
		t.Errorf("expected content %q, got %q", "hello", entries[0].Content)
	}
}

func TestRegistryUnknownChannel(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Deliver(context.Background(), models.ChannelEmail, "a@b.com", "x")
	if err == nil {
		t.Fatal("expected error for unregistered channel")
	}
}

func TestWebhookAdapterSend(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("invalid payload: %v", err)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %q", ct)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := NewWebhookAdapter()
	ack, err := a.Send(context.Background(), srv.URL, "report body")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ack == "" {
		t.Error("expected non-empty ack")
	}
	if received["content"] != "report body" {
		t.Errorf("expected content in payload, got %v", received["content"])
	}
}

func TestWebhookAdapterErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	a := NewWebhookAdapter()
	if _, err := a.Send(context.Background(), srv.URL, "x"); err == nil {
		t.Fatal("expected error for 502 response")
	}
}

func TestEmailAdapterBuildsMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	a := NewEmailAdapter(EmailConfig{
		Host: "smtp.example.com",
		Port: 587,
		From: "reports@rankpilot.io",
	})
	a.sendMail = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	ack, err := a.Send(context.Background(), "a@b.com", "weekly numbers")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ack != "email sent to a@b.com" {
		t.Errorf("unexpected ack %q", ack)
	}
	if gotAddr != "smtp.example.com:587" {
		t.Errorf("unexpected addr %q", gotAddr)
	}
	if gotFrom != "reports@rankpilot.io" {
		t.Errorf("unexpected from %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "a@b.com" {
		t.Errorf("unexpected to %v", gotTo)
	}
	if !strings.Contains(string(gotMsg), "weekly numbers") {
		t.Error("expected body in message")
	}
}

func TestEmailAdapterUnconfigured(t *testing.T) {
	a := NewEmailAdapter(EmailConfig{})
	if _, err := a.Send(context.Background(), "a@b.com", "x"); err == nil {
		t.Fatal("expected error when smtp host missing")
	}
}

func TestWhatsAppAdapterSend(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	a := NewWhatsAppAdapter(WhatsAppConfig{GatewayURL: srv.URL, Token: "tok"})
	ack, err := a.Send(context.Background(), "+5511999990000", "oi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(ack, "+5511999990000") {
		t.Errorf("expected ack to name destination, got %q", ack)
	}
	if auth != "Bearer tok" {
		t.Errorf("expected bearer token, got %q", auth)
	}
}
