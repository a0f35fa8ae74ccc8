package main

import (
	"log"
	"os"

	"github.com/swiftcart/checkout-api/cmd/checkout-api/app"
	"github.com/swiftcart/checkout-api/configs"
)

func main() {
	env := os.Getenv("APP_ENV") // dev | staging | prod
	if env == "" {
		env = "dev"
	}

	cfg, err := configs.Load("configs", env)
	if err != nil {
		log.Fatal(err)
	}

	app, cleanup, err := app.InitWithConfig(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	log.Printf("checkout-api (%s) listening on %s", env, cfg.App.HTTPAddr)
	if err := app.Serve(cfg); err != nil {
		log.Fatal(err)
	}
}
