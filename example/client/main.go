package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"

	"github.com/mnehpets/jsondispatch/client"
)

// Calls a JSON-RPC endpoint (see example/calculator). Set RPC_URL to the
// endpoint and, optionally, RPC_TOKEN to authenticate with a bearer token.
func main() {
	_ = godotenv.Load()
	url := os.Getenv("RPC_URL")
	if url == "" {
		url = "http://localhost:8080/rpc"
	}

	opts := []client.Option{}
	if token := os.Getenv("RPC_TOKEN"); token != "" {
		opts = append(opts, client.WithTokenSource(
			oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		))
	}
	c := client.New(url, opts...)

	ctx := context.Background()

	var difference int
	if err := c.Call(ctx, "subtract", []int{42, 23}, &difference); err != nil {
		log.Fatal(err)
	}
	fmt.Println("42 - 23 =", difference)

	var named int
	params := map[string]int{"minuend": 42, "subtrahend": 23}
	if err := c.Call(ctx, "subtract_named", params, &named); err != nil {
		log.Fatal(err)
	}
	fmt.Println("named subtract =", named)

	if err := c.Notify(ctx, "subtract", []int{1, 1}); err != nil {
		log.Fatal(err)
	}
	fmt.Println("notification sent")
}
