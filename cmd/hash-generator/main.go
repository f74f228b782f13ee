// Command hash-generator prints bcrypt hashes for the passwords given as
// arguments, using the same hasher the API applies at registration. It is
// handy for seeding user documents by hand.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/phrazzld/candidate-api/internal/service/auth"
)

func main() {
	cost := flag.Int("cost", 10, "bcrypt cost factor")
	flag.Parse()

	if err := run(os.Stdout, *cost, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(out io.Writer, cost int, passwords []string) error {
	if len(passwords) == 0 {
		return fmt.Errorf("usage: hash-generator [-cost n] password...")
	}

	hasher := auth.NewBcryptHasher(cost)
	for _, password := range passwords {
		hash, err := hasher.Hash(password)
		if err != nil {
			return fmt.Errorf("hash %q: %w", password, err)
		}
		fmt.Fprintln(out, hash)
	}
	return nil
}
