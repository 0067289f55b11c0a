package ipcheck

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serveText(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func loaded(t *testing.T, sources ...Source) *Checker {
	t.Helper()
	c := New(testLogger(), sources, time.Hour)
	c.Refresh(context.Background())
	return c
}

func TestIsProxy_StaticRanges(t *testing.T) {
	c := loaded(t, Source{Name: "static", Static: []string{"203.0.113.0/24", "2001:db8::/32"}})

	tests := []struct {
		ip   string
		want bool
	}{
		{"203.0.113.7", true},
		{"203.0.114.1", false},
		{"2001:db8::1", true},
		{"8.8.8.8", false},
		{"not-an-ip", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := c.IsProxy(tt.ip); got != tt.want {
			t.Errorf("IsProxy(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}
}

func TestIsProxy_NilChecker(t *testing.T) {
	var c *Checker
	if c.IsProxy("1.2.3.4") {
		t.Error("nil checker must not match")
	}
}

func TestRefresh_AllFormats(t *testing.T) {
	cidr := serveText(t, "# dc\n45.32.0.0/15\n\nbogus\n")
	tor := serveText(t, "1.2.3.4\nnot-an-ip\n")
	ipsum := serveText(t, "# header\n5.6.7.8\t3\n")
	oci := serveText(t, `{"regions":[{"cidrs":[{"cidr":"129.146.0.0/21"}]}]}`)
	geofeed := serveText(t, "# comment\n104.131.0.0/18,US,US-NJ,Clifton\n")

	c := loaded(t,
		Source{Name: "cidr", URL: cidr.URL, Format: CIDRLines},
		Source{Name: "tor", URL: tor.URL, Format: IPLines},
		Source{Name: "ipsum", URL: ipsum.URL, Format: IpsumLines},
		Source{Name: "oci", URL: oci.URL, Format: OCIJSON},
		Source{Name: "do", URL: geofeed.URL, Format: GeofeedCSV},
	)

	for _, ip := range []string{"45.33.1.1", "1.2.3.4", "5.6.7.8", "129.146.1.1", "104.131.5.5"} {
		if !c.IsProxy(ip) {
			t.Errorf("IsProxy(%q) = false, want true", ip)
		}
	}
	if c.IsProxy("9.9.9.9") {
		t.Error("9.9.9.9 should not match")
	}
}

func TestRefresh_FailureKeepsPreviousData(t *testing.T) {
	var mu sync.Mutex
	fail := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, "7.7.7.7\n")
	}))
	defer srv.Close()

	c := loaded(t, Source{Name: "list", URL: srv.URL, Format: IPLines})
	if !c.IsProxy("7.7.7.7") {
		t.Fatal("expected first load to match")
	}

	mu.Lock()
	fail = true
	mu.Unlock()
	c.Refresh(context.Background())

	if !c.IsProxy("7.7.7.7") {
		t.Error("failed refresh must keep the previous list")
	}
}

func TestStartShutdown(t *testing.T) {
	c := New(testLogger(), []Source{{Name: "s", Static: []string{"10.0.0.0/8"}}}, time.Hour)
	c.Start()

	deadline := time.Now().Add(2 * time.Second)
	for !c.IsProxy("10.1.1.1") && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !c.IsProxy("10.1.1.1") {
		t.Error("expected initial load after Start")
	}

	done := make(chan struct{})
	go func() { c.Shutdown(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return")
	}
}

func TestShutdownWithoutStart(t *testing.T) {
	c := New(testLogger(), nil, time.Hour)

	done := make(chan struct{})
	go func() { c.Shutdown(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Shutdown blocked without Start")
	}
	c.Start()
}

func TestIsProxy_ConcurrentReads(t *testing.T) {
	c := loaded(t, Source{Name: "s", Static: []string{"10.0.0.0/8"}})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.IsProxy("10.0.0.1")
			c.IsProxy("8.8.8.8")
		}()
	}
	wg.Wait()
}

func TestDefaultSources_StaticCIDRsValid(t *testing.T) {
	for _, src := range DefaultSources {
		if len(src.Static) == 0 {
			continue
		}
		if got := len(parseCIDRs(src.Static)); got != len(src.Static) {
			t.Errorf("%s: parsed %d of %d CIDRs", src.Name, got, len(src.Static))
		}
	}
}

func TestParseCIDRLines_SkipsCommentsAndInvalid(t *testing.T) {
	nets, err := parseCIDRLines(strings.NewReader("# c\n10.0.0.0/8\n\nnope\n192.168.0.0/16\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(nets) != 2 {
		t.Fatalf("got %d ranges, want 2", len(nets))
	}
}
