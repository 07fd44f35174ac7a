//go:build ignore

package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// Generates a bcrypt hash for an officer or admin account
// Usage: go run scripts/hash_password.go <password> [email]
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run scripts/hash_password.go <password> [email]")
		os.Exit(1)
	}

	password := os.Args[1]
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("Error generating hash: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Bcrypt Hash: %s\n", string(hashedPassword))
	if len(os.Args) > 2 {
		fmt.Printf("\nTo update in MongoDB, run:\n")
		fmt.Printf("db.users.updateOne(\n")
		fmt.Printf("  {\"user.email\": \"%s\"},\n", os.Args[2])
		fmt.Printf("  {$set: {\"user.password\": \"%s\"}}\n", string(hashedPassword))
		fmt.Printf(")\n")
	}
}
