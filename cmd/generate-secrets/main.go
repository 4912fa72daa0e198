package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/estatehub/marketplace-backend/internal/utils"
)

func main() {
	withServices := flag.Bool("services", false, "also generate MinIO and Meilisearch keys for local stacks")
	flag.Parse()

	accessSecret, refreshSecret, err := utils.GenerateJWTSecrets()
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}

	fmt.Println("# EstateHub secrets. Keep them out of version control.")
	fmt.Printf("JWT_SECRET=%s\n", accessSecret)
	fmt.Printf("JWT_REFRESH_SECRET=%s\n", refreshSecret)

	if !*withServices {
		return
	}

	minioSecret, err := utils.GenerateSecret(20)
	if err != nil {
		log.Fatalf("Failed to generate storage secret: %v", err)
	}
	searchKey, err := utils.GenerateSecret(16)
	if err != nil {
		log.Fatalf("Failed to generate search key: %v", err)
	}
	fmt.Printf("MINIO_SECRET_KEY=%s\n", minioSecret)
	fmt.Printf("MEILISEARCH_API_KEY=%s\n", searchKey)
}
