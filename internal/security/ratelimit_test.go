package security

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiterAllowsWithinRate(t *testing.T) {
	limiter := NewLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("1.2.3.4") {
			t.Fatalf("request %d denied within rate", i+1)
		}
	}
	if limiter.Allow("1.2.3.4") {
		t.Error("request over the rate was allowed")
	}
}

func TestLimiterIsolatesClients(t *testing.T) {
	limiter := NewLimiter(1, time.Minute)

	if !limiter.Allow("1.2.3.4") {
		t.Fatal("first client denied")
	}
	if !limiter.Allow("5.6.7.8") {
		t.Error("second client denied by first client's usage")
	}
}

func TestLimiterWindowResets(t *testing.T) {
	limiter := NewLimiter(1, 10*time.Millisecond)

	if !limiter.Allow("1.2.3.4") {
		t.Fatal("first request denied")
	}
	if limiter.Allow("1.2.3.4") {
		t.Fatal("second request in window allowed")
	}

	time.Sleep(20 * time.Millisecond)
	if !limiter.Allow("1.2.3.4") {
		t.Error("request denied after window reset")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		realIP    string
		remote    string
		want      string
	}{
		{
			name:   "remote addr only",
			remote: "1.2.3.4:5678",
			want:   "1.2.3.4:5678",
		},
		{
			name:      "forwarded header wins",
			forwarded: "9.8.7.6",
			remote:    "1.2.3.4:5678",
			want:      "9.8.7.6",
		},
		{
			name:      "first forwarded entry",
			forwarded: "9.8.7.6, 10.0.0.1, 10.0.0.2",
			remote:    "1.2.3.4:5678",
			want:      "9.8.7.6",
		},
		{
			name:   "real ip fallback",
			realIP: "9.8.7.6",
			remote: "1.2.3.4:5678",
			want:   "9.8.7.6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
