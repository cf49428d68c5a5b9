package main

import (
	"bytes"
	"flag"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Each employee fires several concurrent check-ins followed by one
// check-out. Exactly one check-in per employee must succeed.
func main() {
	baseURL := flag.String("url", "http://localhost:8080/api/v1/attendance", "attendance API base URL")
	numEmployees := flag.Int("employees", 5000, "employees to simulate (emp-0 .. emp-N-1)")
	duplicates := flag.Int("duplicates", 3, "concurrent check-ins per employee")
	concurrency := flag.Int("concurrency", 50, "employees in flight")
	flag.Parse()

	contentType := "application/json"
	fmt.Printf("Starting load test: %d employees, %d concurrent check-ins each, against %s\n", *numEmployees, *duplicates, *baseURL)

	var wg sync.WaitGroup
	sem := make(chan struct{}, *concurrency)

	var created, conflicts, checkedOut, failed int64

	post := func(path, empID string) int {
		payload := []byte(fmt.Sprintf(`{"userId": "%s"}`, empID))
		resp, err := http.Post(*baseURL+path, contentType, bytes.NewBuffer(payload))
		if err != nil {
			return 0
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	startTime := time.Now()

	for i := 0; i < *numEmployees; i++ {
		wg.Add(1)
		sem <- struct{}{}

		go func(empID string) {
			defer wg.Done()
			defer func() { <-sem }()

			var inner sync.WaitGroup
			for j := 0; j < *duplicates; j++ {
				inner.Add(1)
				go func() {
					defer inner.Done()
					switch post("/check-in", empID) {
					case http.StatusCreated:
						atomic.AddInt64(&created, 1)
					case http.StatusConflict:
						atomic.AddInt64(&conflicts, 1)
					default:
						atomic.AddInt64(&failed, 1)
					}
				}()
			}
			inner.Wait()

			if post("/check-out", empID) == http.StatusOK {
				atomic.AddInt64(&checkedOut, 1)
			} else {
				atomic.AddInt64(&failed, 1)
			}
		}(fmt.Sprintf("emp-%d", i))
	}

	wg.Wait()
	duration := time.Since(startTime)
	total := *numEmployees * (*duplicates + 1)

	fmt.Println("\n--- Load Test Results ---")
	fmt.Printf("Total Duration: %v\n", duration)
	fmt.Printf("Total Requests: %d\n", total)
	fmt.Printf("Checked in:     %d\n", created)
	fmt.Printf("Duplicates:     %d\n", conflicts)
	fmt.Printf("Checked out:    %d\n", checkedOut)
	fmt.Printf("Failed:         %d\n", failed)
	fmt.Printf("Requests/Sec:   %.2f\n", float64(total)/duration.Seconds())
	if created != int64(*numEmployees) {
		fmt.Printf("UNIQUENESS VIOLATED: expected %d check-ins, got %d\n", *numEmployees, created)
	}
}
