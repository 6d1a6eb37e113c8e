package main

import (
	"fmt"
	"os"

	"github.com/andrasnagy-data/gatehouse/internal/shared/password"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/hash <password>")
		os.Exit(1)
	}

	digest, err := password.NewBcrypt().Hash(os.Args[1])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Hash: %s\n", digest)
	fmt.Printf("\nSeed an account with:\n")
	fmt.Printf("INSERT INTO users (username, password_hash) VALUES ('<username>', '%s');\n", digest)
}
