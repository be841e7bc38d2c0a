// Command settle computes a driver or fleet owner settlement against the
// backend API and prints the statement.
//
//	settle -driver 7 -trips 1,2 -old-km 1000 -new-km 1500 -rate 18 -save -pdf out.pdf
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/diewo77/haulage/internal/config"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cfg.Backend, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
