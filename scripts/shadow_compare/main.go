// Command shadow_compare replays a set of read-only requests against the
// legacy CMS backend and this service, and reports status or body
// divergences. Used during the migration cutover to prove endpoint parity.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
)

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type result struct {
	Target       target
	LegacyStatus int
	NewStatus    int
	StatusMatch  bool
	BodyMatch    bool
	Err          error
	NewTook      time.Duration
	LegacyTook   time.Duration
}

// Envelope fields that legitimately differ between runs and between the two
// backends. Stripped before comparison.
var volatileKeys = map[string]bool{
	"requestId": true,
	"timestamp": true,
	"took":      true,
	"meta":      true,
}

func main() {
	var (
		newBase     string
		legacyBase  string
		token       string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&newBase, "new-base", "http://localhost:8080/api/v1", "new backend base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:8081/api/v1", "legacy backend base URL")
	flag.StringVar(&token, "token", os.Getenv("SHADOW_COMPARE_TOKEN"), "bearer token sent to both backends")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "shadow_compare", "targets.json"), "path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var (
		results  []result
		breaking int
		minor    int
	)
	for _, t := range targets {
		res := compare(client, newBase, legacyBase, token, t)
		if res.Err != nil || !res.StatusMatch || !res.BodyMatch {
			if t.Critical {
				breaking++
			} else {
				minor++
			}
		}
		results = append(results, res)
	}

	printReport(results)
	fmt.Printf("Breaking diffs: %d, minor diffs: %d\n", breaking, minor)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func compare(client *http.Client, newBase, legacyBase, token string, tgt target) result {
	res := result{Target: tgt}

	newBody, newStatus, newTook, err := fetch(client, newBase, token, tgt)
	if err != nil {
		res.Err = fmt.Errorf("new backend: %w", err)
		return res
	}
	legacyBody, legacyStatus, legacyTook, err := fetch(client, legacyBase, token, tgt)
	if err != nil {
		res.Err = fmt.Errorf("legacy backend: %w", err)
		return res
	}

	res.NewStatus = newStatus
	res.LegacyStatus = legacyStatus
	res.NewTook = newTook
	res.LegacyTook = legacyTook
	res.StatusMatch = newStatus == legacyStatus
	res.BodyMatch = bodiesEqual(newBody, legacyBody)
	return res
}

func fetch(client *http.Client, base, token string, tgt target) ([]byte, int, time.Duration, error) {
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return nil, 0, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer resp.Body.Close() //nolint:errcheck
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, 0, err
	}
	return body, resp.StatusCode, time.Since(start), nil
}

func bodiesEqual(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}
	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	normalize(&aj)
	normalize(&bj)
	return reflect.DeepEqual(aj, bj)
}

// normalize strips volatile envelope fields and collapses whole-number floats
// so the two backends' JSON encoders compare equal.
func normalize(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k := range val {
			if volatileKeys[k] {
				delete(val, k)
			}
		}
		for k, v2 := range val {
			normalize(&v2)
			val[k] = v2
		}
	case []interface{}:
		for i, v2 := range val {
			normalize(&v2)
			val[i] = v2
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func printReport(results []result) {
	fmt.Println("Shadow Compare Report")
	fmt.Println("======================")
	for _, res := range results {
		status := "OK"
		switch {
		case res.Err != nil:
			status = "ERROR"
		case !res.StatusMatch || !res.BodyMatch:
			status = "DIFF"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Target.Method, res.Target.Path)
		if res.Err != nil {
			fmt.Printf("  error: %v\n", res.Err)
			continue
		}
		fmt.Printf("  new: %d (%s) | legacy: %d (%s)\n",
			res.NewStatus, res.NewTook, res.LegacyStatus, res.LegacyTook)
		fmt.Printf("  status match: %t | body match: %t | critical: %t\n",
			res.StatusMatch, res.BodyMatch, res.Target.Critical)
	}
}
