package main

import (
	"log"

	"github.com/tech-arch1tect/accounts"
)

func main() {
	a, err := accounts.New(nil)
	if err != nil {
		log.Fatalf("failed to initialise: %v", err)
	}

	if err := a.Run(); err != nil {
		log.Fatalf("accountd: %v", err)
	}
}
