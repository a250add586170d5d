package main

import (
	"fmt"
	"os"

	"github.com/voxagent/memoryd/internal/mcp"
)

func main() {
	serverURL := os.Getenv("MEMORY_SERVER_URL")
	if serverURL == "" {
		serverURL = "http://localhost:8001"
	}
	apiKey := os.Getenv("API_KEY")

	server := mcp.NewServer(serverURL, apiKey)
	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "mcp server error: %s\n", err)
		os.Exit(1)
	}
}
