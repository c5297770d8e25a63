// memoryhog deliberately retains heap memory at a configurable rate so a
// monitoring run has something to flag. Manual test companion:
//
//	go run ./test/simulators/memoryhog -rate 2048 -duration 2m &
//	procpulse monitor memoryhog 1m --interval 2s
package main

import (
	"flag"
	"log"
	"time"
)

func main() {
	rate := flag.Int("rate", 1024, "KB to retain per second")
	duration := flag.Duration("duration", 5*time.Minute, "how long to keep growing before exiting")
	flag.Parse()

	if *rate <= 0 {
		log.Fatal("ERROR: -rate must be positive")
	}

	log.Printf("growing ~%d KB/s for %s", *rate, *duration)

	var hoard [][]byte
	deadline := time.Now().Add(*duration)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for now := range ticker.C {
		if now.After(deadline) {
			break
		}
		chunk := make([]byte, *rate*1024)
		// Touch every page so the memory is actually resident.
		for i := range chunk {
			chunk[i] = byte(i)
		}
		hoard = append(hoard, chunk)
	}

	log.Printf("done, retained %d chunks", len(hoard))
}
