// The seed command writes the initial shop configuration document so a
// fresh deployment starts with the default catalog.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/printgenie/orderflow/internal/gcp"
	"github.com/printgenie/orderflow/internal/models"
	"github.com/printgenie/orderflow/internal/store"
)

func main() {
	// CLI flags
	projectID := flag.String("project", "", "GCP project id")
	force := flag.Bool("force", false, "Overwrite an existing configuration")
	flag.Parse()

	_ = godotenv.Load()

	// Fall back to environment variables
	if *projectID == "" {
		*projectID = os.Getenv("PROJECT_ID")
	}
	if *projectID == "" {
		log.Fatal("Project id is required: pass -project or set PROJECT_ID")
	}

	ctx := context.Background()
	client, err := gcp.NewFirestoreClient(ctx, *projectID)
	if err != nil {
		log.Fatalf("Unable to connect to Firestore: %v", err)
	}
	defer client.Close()

	// The existence probe keeps reruns from clobbering staff edits.
	snap, err := client.Collection(store.ConfigCollection).Doc(store.ConfigDocID).Get(ctx)
	if err == nil && snap.Exists() && !*force {
		log.Printf("Configuration document '%s/%s' already exists, skipping (use -force to overwrite)",
			store.ConfigCollection, store.ConfigDocID)
		return
	}

	cfg := models.DefaultShopConfiguration()
	_, err = client.Collection(store.ConfigCollection).Doc(store.ConfigDocID).Set(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to write configuration: %v", err)
	}

	log.Println("Seed completed successfully")
	log.Printf("Shop: %s, %d products, %d finishes", cfg.ShopName, len(cfg.Products), len(cfg.Finishes))
}
