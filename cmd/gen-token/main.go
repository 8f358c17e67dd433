// gen-token prints a random hex token suitable for INVALIDATE_TOKEN or
// ADMIN_TOKEN.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
)

func main() {
	size := flag.Int("bytes", 32, "token size in bytes before hex encoding")
	flag.Parse()

	if *size < 16 {
		fmt.Fprintln(os.Stderr, "refusing to generate a token shorter than 16 bytes")
		os.Exit(1)
	}

	buf := make([]byte, *size)
	if _, err := rand.Read(buf); err != nil {
		fmt.Fprintf(os.Stderr, "read random: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hex.EncodeToString(buf))
}
