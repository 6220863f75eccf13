package store_test

import (
	"context"
	"fmt"
	"log"

	"github.com/go-training/oauth2-client/pkg/client"
	"github.com/go-training/oauth2-client/pkg/store"
)

// Example demonstrates basic usage of the store factory.
func Example() {
	// Create a memory store using the factory
	config := store.MemoryConfig()
	s, err := store.NewStore(config)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	// Save a freshly granted token under a session
	token := &client.Token{
		AccessToken:  "tok_abc",
		RefreshToken: "ref_xyz",
		Changed:      true,
	}
	if err := s.SaveToken(ctx, "example-session", token); err != nil {
		log.Fatal(err)
	}

	// Retrieve it on the next request
	retrieved, err := s.GetToken(ctx, "example-session")
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(retrieved.AccessToken)
	fmt.Println(retrieved.Changed)
	// Output:
	// tok_abc
	// false
}

// Example_memoryStore demonstrates creating a memory store.
func Example_memoryStore() {
	s, err := store.NewStoreFromType("memory", store.RedisOptions{})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Store type: %T\n", s)
	// Output: Store type: *store.MemoryStore
}
