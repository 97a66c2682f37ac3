package main

import (
	"github.com/corebill/pos-sync-svc/internal/app"
	"github.com/corebill/pos-sync-svc/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
