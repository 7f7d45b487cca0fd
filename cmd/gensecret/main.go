// Prints a random hex string suitable for SECRET_KEY.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

func main() {
	length := pflag.IntP("bytes", "n", 32, "number of random bytes")
	pflag.Parse()

	b := make([]byte, *length)
	if _, err := rand.Read(b); err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hex.EncodeToString(b))
}
