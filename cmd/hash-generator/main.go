// Command hash-generator prints a bcrypt hash for a password so operators can
// seed accounts, such as the first admin, directly in the users table.
//
//	hash-generator -cost 12 'S3curePassword'
//	echo 'S3curePassword' | hash-generator
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/phrazzld/task-api/internal/domain"
	"github.com/phrazzld/task-api/internal/service/auth"
)

func main() {
	cost := flag.Int("cost", 10, "bcrypt cost factor")
	flag.Parse()

	if err := run(flag.Args(), os.Stdin, os.Stdout, *cost); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run hashes each password argument, or a single password read from in when
// there are none. Passwords must meet the registration rules.
func run(args []string, in io.Reader, out io.Writer, cost int) error {
	passwords := args
	if len(passwords) == 0 {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("read password: %w", err)
		}
		passwords = []string{strings.TrimRight(line, "\r\n")}
	}

	hasher := auth.NewBcryptHasher(cost)
	for _, password := range passwords {
		if verr := domain.ValidatePassword(password); verr != nil {
			return verr
		}
		hash, err := hasher.Hash(password)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, hash); err != nil {
			return err
		}
	}
	return nil
}
