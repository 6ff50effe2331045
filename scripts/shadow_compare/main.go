// Command shadow_compare replays read endpoints against the Go API and the
// legacy college admin app it replaces, then diffs status codes and JSON
// bodies. It exits non-zero when a critical endpoint diverges, so it can gate
// a cutover from CI.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"
)

type check struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type result struct {
	check check

	apiStatus    int
	legacyStatus int
	apiLatency   time.Duration
	legacyLat    time.Duration
	bodiesMatch  bool
	err          error
}

func (r result) ok() bool {
	return r.err == nil && r.apiStatus == r.legacyStatus && r.bodiesMatch
}

func main() {
	apiBase := flag.String("api", "http://localhost:8080/api/v1", "Go API base URL")
	legacyBase := flag.String("legacy", "http://localhost:3000/api", "legacy app base URL")
	targets := flag.String("targets", filepath.Join("scripts", "shadow_compare", "targets.json"), "checks file")
	token := flag.String("token", os.Getenv("SHADOW_COMPARE_TOKEN"), "bearer token sent to both sides")
	timeout := flag.Duration("timeout", 10*time.Second, "per-request timeout")
	flag.Parse()

	checks, err := loadChecks(*targets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shadow_compare: %v\n", err)
		os.Exit(2)
	}

	client := &http.Client{Timeout: *timeout}
	results := make([]result, 0, len(checks))
	criticalDiffs := 0
	for _, c := range checks {
		r := runCheck(client, *apiBase, *legacyBase, *token, c)
		if !r.ok() && c.Critical {
			criticalDiffs++
		}
		results = append(results, r)
	}

	report(os.Stdout, results)
	if criticalDiffs > 0 {
		fmt.Fprintf(os.Stderr, "shadow_compare: %d critical endpoint(s) diverged\n", criticalDiffs)
		os.Exit(1)
	}
}

func loadChecks(path string) ([]check, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file struct {
		Targets []check `json:"targets"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("%s defines no targets", path)
	}
	return file.Targets, nil
}

func runCheck(client *http.Client, apiBase, legacyBase, token string, c check) result {
	r := result{check: c}

	apiBody, err := fetch(client, apiBase, token, c, &r.apiStatus, &r.apiLatency)
	if err != nil {
		r.err = fmt.Errorf("api side: %w", err)
		return r
	}
	legacyBody, err := fetch(client, legacyBase, token, c, &r.legacyStatus, &r.legacyLat)
	if err != nil {
		r.err = fmt.Errorf("legacy side: %w", err)
		return r
	}

	r.bodiesMatch = sameJSON(apiBody, legacyBody)
	return r
}

func fetch(client *http.Client, base, token string, c check, status *int, latency *time.Duration) ([]byte, error) {
	method := strings.ToUpper(strings.TrimSpace(c.Method))
	if method == "" {
		method = http.MethodGet
	}
	url := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(c.Path, "/")

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := client.Do(req)
	*latency = time.Since(started)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	*status = resp.StatusCode
	return io.ReadAll(resp.Body)
}

// sameJSON compares bodies structurally: both are decoded and re-encoded so
// key order, whitespace and numeric formatting differences do not count as
// drift. Non-JSON bodies fall back to a byte comparison.
func sameJSON(a, b []byte) bool {
	var av, bv interface{}
	if json.Unmarshal(a, &av) != nil || json.Unmarshal(b, &bv) != nil {
		return bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b))
	}
	ac, err := json.Marshal(av)
	if err != nil {
		return false
	}
	bc, err := json.Marshal(bv)
	if err != nil {
		return false
	}
	return bytes.Equal(ac, bc)
}

func report(w io.Writer, results []result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RESULT\tENDPOINT\tAPI\tLEGACY\tBODY\tLATENCY (api/legacy)")
	for _, r := range results {
		verdict := "ok"
		switch {
		case r.err != nil:
			verdict = "error"
		case !r.ok():
			verdict = "diff"
		}
		if r.check.Critical {
			verdict += "!"
		}
		detail := fmt.Sprintf("%t", r.bodiesMatch)
		if r.err != nil {
			detail = r.err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s %s\t%d\t%d\t%s\t%s / %s\n",
			verdict, r.check.Method, r.check.Path,
			r.apiStatus, r.legacyStatus, detail,
			r.apiLatency.Round(time.Millisecond), r.legacyLat.Round(time.Millisecond))
	}
	tw.Flush()
}
